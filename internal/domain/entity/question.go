package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Каждый вопрос имеет ровно 4 варианта с идентификаторами "A".."D"
const OptionsPerQuestion = 4

// OptionIDs возвращает канонический набор идентификаторов вариантов
func OptionIDs() []string {
	return []string{"A", "B", "C", "D"}
}

// Option представляет один вариант ответа на вопрос
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// OptionArray - пользовательский тип для хранения вариантов ответа в JSONB
type OptionArray []Option

// Scan реализует интерфейс sql.Scanner для OptionArray
// Используется GORM для чтения JSONB данных из базы
func (o *OptionArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = OptionArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	// Обработка пустого массива байтов
	if len(bytes) == 0 {
		*o = OptionArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для OptionArray
// Используется GORM для записи OptionArray в JSONB в базе
func (o OptionArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Question представляет вопрос модуля викторины.
// После публикации викторины вопрос неизменяем.
type Question struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	ModuleID        uint        `gorm:"not null;index" json:"module_id"`
	Text            string      `gorm:"size:1000;not null" json:"text"`
	Options         OptionArray `gorm:"type:jsonb;not null" json:"options"`
	// CorrectOptionID сериализуется: викторина целиком кешируется как JSON.
	// От клиента правильный вариант скрывает DTO-слой, а не эта модель.
	CorrectOptionID string      `gorm:"size:4;not null" json:"correct_option_id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным.
// Сентинел AnswerTimeout и пустая строка правильными не считаются.
func (q *Question) IsCorrect(selectedOptionID string) bool {
	if selectedOptionID == "" || selectedOptionID == AnswerTimeout {
		return false
	}
	return selectedOptionID == q.CorrectOptionID
}

// HasOption проверяет, существует ли вариант с данным идентификатором
func (q *Question) HasOption(optionID string) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// OptionText возвращает текст варианта по его идентификатору
func (q *Question) OptionText(optionID string) (string, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt.Text, true
		}
	}
	return "", false
}

// Validate проверяет структурные инварианты вопроса: ровно 4 варианта
// с уникальными идентификаторами, correct_option_id указывает ровно на один из них
func (q *Question) Validate() error {
	if q.Text == "" {
		return errors.New("question text is empty")
	}
	if len(q.Options) != OptionsPerQuestion {
		return errors.New("question must have exactly 4 options")
	}

	seen := make(map[string]bool, len(q.Options))
	correctFound := false
	for _, opt := range q.Options {
		if seen[opt.ID] {
			return errors.New("duplicate option id: " + opt.ID)
		}
		seen[opt.ID] = true
		if opt.ID == q.CorrectOptionID {
			correctFound = true
		}
	}
	if !correctFound {
		return errors.New("correct_option_id does not match any option")
	}
	return nil
}
