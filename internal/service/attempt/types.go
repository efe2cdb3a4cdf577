package attempt

import (
	"context"
	"time"

	"github.com/yourusername/quizgen-api/internal/domain/entity"
)

// Constants for default values
const (
	DefaultQuestionTimeSec = 45
	DefaultTickInterval    = 1 * time.Second
)

// State представляет состояние попытки прохождения викторины
type State string

const (
	// StateAwaitingName — попытка создана, имя пользователя еще не введено
	StateAwaitingName State = "awaiting_name"
	// StateReadingContent — пользователь читает контент модуля перед вопросами
	StateReadingContent State = "reading_content"
	// StateAnswering — идет ответ на текущий вопрос, таймер тикает
	StateAnswering State = "answering"
	// StateSubmitted — ответ на текущий вопрос зафиксирован, таймер приостановлен
	StateSubmitted State = "submitted"
	// StateComplete — все вопросы пройдены, итог подсчитан
	StateComplete State = "complete"
)

// Feedback определяет вид обратной связи после фиксации ответа
type Feedback string

const (
	FeedbackNone Feedback = ""
	// FeedbackCorrect — выбран правильный вариант
	FeedbackCorrect Feedback = "correct"
	// FeedbackIncorrect — выбран неправильный вариант
	FeedbackIncorrect Feedback = "incorrect"
	// FeedbackTimeoutNoSelection — таймер истёк, вариант не был выбран
	FeedbackTimeoutNoSelection Feedback = "timeout_no_selection"
	// FeedbackTimeoutWithSelection — таймер истёк, но предварительный выбор сохранён
	FeedbackTimeoutWithSelection Feedback = "timeout_with_selection"
)

// Config содержит настройки попытки
type Config struct {
	// QuestionTimeSec — бюджет времени на один вопрос в секундах
	QuestionTimeSec int
	// TickInterval — гранулярность тика таймера
	TickInterval time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		QuestionTimeSec: DefaultQuestionTimeSec,
		TickInterval:    DefaultTickInterval,
	}
}

// ResultSubmitter определяет интерфейс отправки итогового результата
// во внешнее хранилище. Вызов может завершиться ошибкой — попытка при этом
// сохраняет локальный результат и позволяет повторить отправку.
type ResultSubmitter interface {
	SubmitResult(ctx context.Context, submission *entity.Submission) error
}

// Dependencies содержит зависимости попытки
type Dependencies struct {
	Submitter ResultSubmitter
}

// questionRef связывает вопрос со своим модулем в сквозной последовательности
type questionRef struct {
	module   *entity.Module
	question *entity.Question
}
