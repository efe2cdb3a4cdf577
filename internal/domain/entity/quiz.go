package entity

import (
	"time"
)

// Статусы викторины
const (
	QuizStatusGenerating = "generating" // Генерация вопросов еще выполняется
	QuizStatusPublished  = "published"  // Викторина доступна для прохождения
)

// Quiz представляет сгенерированную викторину по курсу.
// После публикации состав модулей и вопросов неизменяем.
type Quiz struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CourseName    string    `gorm:"size:200;not null" json:"course_name"`
	Status        string    `gorm:"size:20;not null;default:'published'" json:"status"`
	QuestionCount int       `gorm:"not null;default:0" json:"question_count"`
	Modules       []Module  `gorm:"foreignKey:QuizID" json:"modules,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// IsPublished проверяет, опубликована ли викторина
func (q *Quiz) IsPublished() bool {
	return q.Status == QuizStatusPublished
}

// TotalQuestions возвращает суммарное количество вопросов по всем модулям
func (q *Quiz) TotalQuestions() int {
	total := 0
	for i := range q.Modules {
		total += len(q.Modules[i].Questions)
	}
	return total
}

// Validate проверяет структурные инварианты всей викторины.
// Викторина без модулей или с невалидным вопросом не может быть опубликована.
func (q *Quiz) Validate() error {
	if len(q.Modules) == 0 {
		return ErrNoModules
	}
	for i := range q.Modules {
		if err := q.Modules[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
