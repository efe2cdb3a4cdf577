package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/quizgen-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizgen-api/internal/pkg/errors"
)

// SubmissionRepo реализует repository.SubmissionRepository
type SubmissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo создает новый репозиторий результатов
func NewSubmissionRepo(db *gorm.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// Save добавляет результат попытки в append-only хранилище.
// Уникальный индекс по attempt_id гарантирует ровно одну запись на попытку:
// - 23505 (unique violation) → ErrConflict (результат уже отправлен)
// - Другая DB ошибка → оборачивается в ErrStore (ретраябельна для клиента)
func (r *SubmissionRepo) Save(submission *entity.Submission) error {
	if err := r.db.Create(submission).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: attempt %s already submitted", apperrors.ErrConflict, submission.AttemptID)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrStore, err)
	}
	return nil
}

// GetByID возвращает результат по ID
func (r *SubmissionRepo) GetByID(id uint) (*entity.Submission, error) {
	var submission entity.Submission
	err := r.db.First(&submission, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &submission, nil
}

// GetByQuizID возвращает результаты викторины с пагинацией и total count
func (r *SubmissionRepo) GetByQuizID(quizID uint, limit, offset int) ([]entity.Submission, int64, error) {
	var submissions []entity.Submission
	var total int64

	query := r.db.Model(&entity.Submission{}).Where("quiz_id = ?", quizID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("completed_at DESC").Find(&submissions).Error
	if err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

// GetAllByQuizID возвращает все результаты викторины без пагинации (для экспорта)
func (r *SubmissionRepo) GetAllByQuizID(quizID uint) ([]entity.Submission, error) {
	var submissions []entity.Submission
	err := r.db.Where("quiz_id = ?", quizID).Order("completed_at DESC").Find(&submissions).Error
	return submissions, err
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
