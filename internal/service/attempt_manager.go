package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/quizgen-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizgen-api/internal/pkg/errors"
	"github.com/yourusername/quizgen-api/internal/service/attempt"
)

// AttemptManager хранит активные попытки прохождения викторин в памяти.
// Попытка живет от создания до истечения TTL неактивности; завершённые
// результаты сохраняются в хранилище и не зависят от жизни попытки.
type AttemptManager struct {
	quizRepo  repository.QuizRepository
	submitter attempt.ResultSubmitter
	config    *attempt.Config

	attempts map[string]*attempt.Attempt
	mu       sync.RWMutex

	ttl time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewAttemptManager создает новый менеджер попыток и запускает фоновую
// очистку неактивных попыток
func NewAttemptManager(
	quizRepo repository.QuizRepository,
	submitter attempt.ResultSubmitter,
	config *attempt.Config,
	ttl time.Duration,
) *AttemptManager {
	ctx, cancel := context.WithCancel(context.Background())

	am := &AttemptManager{
		quizRepo:  quizRepo,
		submitter: submitter,
		config:    config,
		attempts:  make(map[string]*attempt.Attempt),
		ttl:       ttl,
		ctx:       ctx,
		cancel:    cancel,
	}

	go am.cleanupLoop()

	log.Println("[AttemptManager] Менеджер попыток инициализирован")
	return am
}

// StartAttempt создает новую попытку прохождения опубликованной викторины
func (am *AttemptManager) StartAttempt(quizID uint) (*attempt.Attempt, error) {
	quiz, err := am.quizRepo.GetWithModules(quizID)
	if err != nil {
		return nil, err
	}

	if !quiz.IsPublished() {
		return nil, fmt.Errorf("%w: quiz #%d is not published yet", apperrors.ErrConflict, quizID)
	}
	if quiz.TotalQuestions() == 0 {
		return nil, fmt.Errorf("%w: quiz #%d has no questions", apperrors.ErrValidation, quizID)
	}

	id := uuid.NewString()
	a := attempt.New(id, quiz, am.config, &attempt.Dependencies{Submitter: am.submitter})

	am.mu.Lock()
	am.attempts[id] = a
	count := len(am.attempts)
	am.mu.Unlock()

	log.Printf("[AttemptManager] Создана попытка %s для викторины #%d (активных попыток: %d)", id, quizID, count)
	return a, nil
}

// Get возвращает активную попытку по идентификатору
func (am *AttemptManager) Get(attemptID string) (*attempt.Attempt, error) {
	am.mu.RLock()
	a, ok := am.attempts[attemptID]
	am.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: attempt %s not found or expired", apperrors.ErrNotFound, attemptID)
	}
	return a, nil
}

// cleanupLoop периодически удаляет попытки, неактивные дольше TTL
func (am *AttemptManager) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-am.ctx.Done():
			return
		case <-ticker.C:
			am.cleanup()
		}
	}
}

func (am *AttemptManager) cleanup() {
	cutoff := time.Now().Add(-am.ttl)

	// Сначала собираем кандидатов под RLock, затем удаляем под Lock
	am.mu.RLock()
	var expired []string
	for id, a := range am.attempts {
		if a.LastActivity().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	am.mu.RUnlock()

	if len(expired) == 0 {
		return
	}

	am.mu.Lock()
	for _, id := range expired {
		if a, ok := am.attempts[id]; ok {
			a.Close()
			delete(am.attempts, id)
		}
	}
	remaining := len(am.attempts)
	am.mu.Unlock()

	log.Printf("[AttemptManager] Удалено %d неактивных попыток (осталось: %d)", len(expired), remaining)
}

// Shutdown останавливает фоновую очистку и закрывает все активные попытки
func (am *AttemptManager) Shutdown() {
	log.Println("[AttemptManager] Завершение работы менеджера попыток...")
	am.cancel()

	am.mu.Lock()
	for id, a := range am.attempts {
		a.Close()
		delete(am.attempts, id)
	}
	am.mu.Unlock()

	log.Println("[AttemptManager] Менеджер попыток остановлен")
}
