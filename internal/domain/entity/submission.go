package entity

import (
	"time"
)

// Submission представляет отправленный в хранилище результат одной попытки.
// Хранилище append-only: записи никогда не обновляются, только добавляются.
// Уникальный индекс по attempt_id защищает от повторной отправки того же
// результата (unique violation 23505 мапится на ErrConflict в репозитории).
type Submission struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	QuizID           uint              `gorm:"not null;index" json:"quiz_id"`
	AttemptID        string            `gorm:"size:36;not null;uniqueIndex" json:"attempt_id"`
	UserName         string            `gorm:"size:100;not null" json:"user_name"`
	TotalQuestions   int               `gorm:"not null;default:0" json:"total_questions"`
	CorrectAnswers   int               `gorm:"not null;default:0" json:"correct_answers"`
	IncorrectAnswers int               `gorm:"not null;default:0" json:"incorrect_answers"`
	Answers          AnswerRecordArray `gorm:"type:jsonb;not null" json:"answers"`
	CompletedAt      time.Time         `gorm:"not null" json:"completed_at"`
	CreatedAt        time.Time         `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Submission) TableName() string {
	return "submissions"
}

// Percentage возвращает долю правильных ответов в процентах
func (s *Submission) Percentage() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.TotalQuestions) * 100
}
