package repository

import (
	"github.com/yourusername/quizgen-api/internal/domain/entity"
)

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	// Create сохраняет викторину вместе с модулями и вопросами в одной транзакции
	Create(quiz *entity.Quiz) error
	GetByID(id uint) (*entity.Quiz, error)
	// GetWithModules возвращает викторину с модулями и их вопросами
	GetWithModules(id uint) (*entity.Quiz, error)
	List(limit, offset int) ([]entity.Quiz, error)
	Delete(id uint) error
}
