package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/yourusername/quizgen-api/internal/domain/entity"
	"github.com/yourusername/quizgen-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizgen-api/internal/pkg/errors"
)

const (
	// quizCacheTTL — время жизни кеша викторины. Викторина неизменяема
	// после генерации, TTL нужен только для ограничения памяти Redis.
	quizCacheTTL = 30 * time.Minute

	maxSourceTextLen = 100000
	maxCourseNameLen = 200
)

// QuizGenerator определяет интерфейс генерации вопросов из учебного текста
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, sourceText string, questionCount int) ([]entity.Module, error)
}

// QuizService предоставляет методы для работы с викторинами
type QuizService struct {
	quizRepo  repository.QuizRepository
	cacheRepo repository.CacheRepository
	generator QuizGenerator

	// defaultQuestionCount используется, когда клиент не указал количество
	defaultQuestionCount int
}

// NewQuizService создает новый сервис викторин
func NewQuizService(
	quizRepo repository.QuizRepository,
	cacheRepo repository.CacheRepository,
	generator QuizGenerator,
	defaultQuestionCount int,
) *QuizService {
	if defaultQuestionCount <= 0 {
		defaultQuestionCount = 30
	}
	return &QuizService{
		quizRepo:             quizRepo,
		cacheRepo:            cacheRepo,
		generator:            generator,
		defaultQuestionCount: defaultQuestionCount,
	}
}

// CreateQuiz генерирует викторину из учебного текста и сохраняет её.
// Генерация синхронная: клиент получает готовую опубликованную викторину
// либо ошибку генерации.
func (s *QuizService) CreateQuiz(ctx context.Context, courseName, sourceText string, questionCount int) (*entity.Quiz, error) {
	courseName = strings.TrimSpace(courseName)
	if courseName == "" {
		return nil, fmt.Errorf("%w: course name must not be empty", apperrors.ErrValidation)
	}
	if len([]rune(courseName)) > maxCourseNameLen {
		return nil, fmt.Errorf("%w: course name is too long (max %d characters)", apperrors.ErrValidation, maxCourseNameLen)
	}
	if strings.TrimSpace(sourceText) == "" {
		return nil, fmt.Errorf("%w: source text must not be empty", apperrors.ErrValidation)
	}
	if len(sourceText) > maxSourceTextLen {
		return nil, fmt.Errorf("%w: source text is too long (max %d bytes)", apperrors.ErrValidation, maxSourceTextLen)
	}

	if questionCount <= 0 {
		questionCount = s.defaultQuestionCount
	}

	log.Printf("[QuizService] Генерация викторины '%s' (%d вопросов, %d байт текста)...", courseName, questionCount, len(sourceText))

	modules, err := s.generator.GenerateQuiz(ctx, sourceText, questionCount)
	if err != nil {
		log.Printf("[QuizService] Ошибка генерации викторины '%s': %v", courseName, err)
		return nil, err
	}

	quiz := &entity.Quiz{
		CourseName:    courseName,
		Status:        entity.QuizStatusPublished,
		QuestionCount: questionCount,
		Modules:       modules,
	}

	if err := quiz.Validate(); err != nil {
		log.Printf("[QuizService] Сгенерированная викторина '%s' не прошла валидацию: %v", courseName, err)
		return nil, fmt.Errorf("%w: generated quiz is invalid: %v", apperrors.ErrGeneration, err)
	}

	// Репозиторий сохраняет викторину с модулями и вопросами атомарно
	if err := s.quizRepo.Create(quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	log.Printf("[QuizService] Викторина '%s' создана с ID=%d (%d вопросов)", courseName, quiz.ID, quiz.TotalQuestions())
	return quiz, nil
}

// GetQuizByID возвращает викторину без модулей и вопросов
func (s *QuizService) GetQuizByID(quizID uint) (*entity.Quiz, error) {
	return s.quizRepo.GetByID(quizID)
}

// GetQuizWithModules возвращает викторину с модулями и вопросами.
// Викторина неизменяема, поэтому результат кешируется в Redis.
func (s *QuizService) GetQuizWithModules(quizID uint) (*entity.Quiz, error) {
	cacheKey := fmt.Sprintf("quiz:%d:full", quizID)

	var cached entity.Quiz
	if err := s.cacheRepo.GetJSON(cacheKey, &cached); err == nil && cached.ID == quizID {
		return &cached, nil
	}

	quiz, err := s.quizRepo.GetWithModules(quizID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.SetJSON(cacheKey, quiz, quizCacheTTL); err != nil {
		// Ошибка кеша не мешает отдать данные из БД
		log.Printf("[QuizService] Не удалось закешировать викторину #%d: %v", quizID, err)
	}

	return quiz, nil
}

// ListQuizzes возвращает список викторин с пагинацией
func (s *QuizService) ListQuizzes(page, pageSize int) ([]entity.Quiz, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.quizRepo.List(pageSize, offset)
}

// DeleteQuiz удаляет викторину вместе с модулями и вопросами
func (s *QuizService) DeleteQuiz(quizID uint) error {
	if _, err := s.quizRepo.GetByID(quizID); err != nil {
		return err
	}

	if err := s.quizRepo.Delete(quizID); err != nil {
		return err
	}

	// Инвалидируем кеш; ошибка здесь не критична
	cacheKey := fmt.Sprintf("quiz:%d:full", quizID)
	if err := s.cacheRepo.Delete(cacheKey); err != nil {
		log.Printf("[QuizService] Не удалось удалить кеш викторины #%d: %v", quizID, err)
	}

	log.Printf("[QuizService] Викторина #%d удалена", quizID)
	return nil
}
