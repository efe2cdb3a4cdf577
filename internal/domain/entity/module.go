package entity

import (
	"errors"
	"time"
)

// ErrNoModules возвращается при попытке работать с викториной без модулей
var ErrNoModules = errors.New("quiz has no modules")

// Module представляет титулованный блок контента с привязанным набором вопросов.
// На практике викторина содержит ровно один модуль, но модель допускает несколько.
type Module struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	QuizID    uint       `gorm:"not null;index" json:"quiz_id"`
	Title     string     `gorm:"size:200;not null" json:"title"`
	Content   string     `gorm:"type:text" json:"content"`
	Questions []Question `gorm:"foreignKey:ModuleID" json:"questions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Module) TableName() string {
	return "modules"
}

// Validate проверяет инварианты модуля и всех его вопросов
func (m *Module) Validate() error {
	if len(m.Questions) == 0 {
		return errors.New("module has no questions")
	}
	for i := range m.Questions {
		if err := m.Questions[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FindQuestion возвращает вопрос модуля по его ID
func (m *Module) FindQuestion(questionID uint) *Question {
	for i := range m.Questions {
		if m.Questions[i].ID == questionID {
			return &m.Questions[i]
		}
	}
	return nil
}
