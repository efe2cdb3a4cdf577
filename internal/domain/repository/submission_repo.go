package repository

import (
	"github.com/yourusername/quizgen-api/internal/domain/entity"
)

// SubmissionRepository определяет методы для работы с отправленными результатами.
// Хранилище append-only: записи только добавляются, никогда не обновляются.
type SubmissionRepository interface {
	// Save добавляет результат попытки. Повторная отправка того же attempt_id
	// возвращает apperrors.ErrConflict (unique violation в БД).
	Save(submission *entity.Submission) error
	GetByID(id uint) (*entity.Submission, error)
	// GetByQuizID возвращает результаты викторины с пагинацией и total count
	GetByQuizID(quizID uint, limit, offset int) ([]entity.Submission, int64, error)
	// GetAllByQuizID возвращает все результаты викторины без пагинации (для экспорта)
	GetAllByQuizID(quizID uint) ([]entity.Submission, error)
}
