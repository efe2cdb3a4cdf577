package attempt

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizgen-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizgen-api/internal/pkg/errors"
)

// mockSubmitter записывает отправленные результаты и позволяет
// симулировать ошибку хранилища
type mockSubmitter struct {
	mu          sync.Mutex
	submissions []*entity.Submission
	err         error
}

func (m *mockSubmitter) SubmitResult(ctx context.Context, s *entity.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.submissions = append(m.submissions, s)
	return nil
}

func (m *mockSubmitter) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockSubmitter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissions)
}

func (m *mockSubmitter) last() *entity.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.submissions) == 0 {
		return nil
	}
	return m.submissions[len(m.submissions)-1]
}

func testQuestion(id, moduleID uint, correct string) entity.Question {
	return entity.Question{
		ID:       id,
		ModuleID: moduleID,
		Text:     "Вопрос",
		Options: entity.OptionArray{
			{ID: "A", Text: "Вариант A"},
			{ID: "B", Text: "Вариант B"},
			{ID: "C", Text: "Вариант C"},
			{ID: "D", Text: "Вариант D"},
		},
		CorrectOptionID: correct,
	}
}

func testQuiz() *entity.Quiz {
	return &entity.Quiz{
		ID:         1,
		CourseName: "Основы Go",
		Status:     entity.QuizStatusPublished,
		Modules: []entity.Module{
			{
				ID:      10,
				QuizID:  1,
				Title:   "Модуль 1",
				Content: "Учебный контент",
				Questions: []entity.Question{
					testQuestion(100, 10, "B"),
					testQuestion(101, 10, "D"),
				},
			},
		},
	}
}

// newTestAttempt создает попытку с быстрым таймером для тестов
func newTestAttempt(t *testing.T, quiz *entity.Quiz, sub ResultSubmitter) *Attempt {
	t.Helper()
	cfg := &Config{QuestionTimeSec: 2, TickInterval: 10 * time.Millisecond}
	a := New("test-attempt-id", quiz, cfg, &Dependencies{Submitter: sub})
	t.Cleanup(a.Close)
	return a
}

func TestAttempt_HappyPath(t *testing.T) {
	sub := &mockSubmitter{}
	a := newTestAttempt(t, testQuiz(), sub)

	assert.Equal(t, StateAwaitingName, a.Snapshot().State)

	require.NoError(t, a.SetName("Иван"))
	snap := a.Snapshot()
	assert.Equal(t, StateReadingContent, snap.State)
	assert.Equal(t, "Модуль 1", snap.ModuleTitle)
	assert.Equal(t, "Учебный контент", snap.ModuleContent)

	require.NoError(t, a.Begin())
	snap = a.Snapshot()
	assert.Equal(t, StateAnswering, snap.State)
	require.NotNil(t, snap.Question)
	assert.Equal(t, 1, snap.Question.Number)
	assert.Equal(t, 2, snap.Question.Total)
	assert.Len(t, snap.Question.Options, 4)
	// Правильный вариант клиенту не раскрывается до фиксации ответа
	assert.Empty(t, snap.CorrectOptionID)

	// Вопрос 1: правильный ответ
	require.NoError(t, a.SelectOption("B"))
	require.NoError(t, a.Submit())
	snap = a.Snapshot()
	assert.Equal(t, StateSubmitted, snap.State)
	assert.Equal(t, FeedbackCorrect, snap.Feedback)
	assert.Equal(t, "B", snap.CorrectOptionID)

	// Вопрос 2: неправильный ответ
	require.NoError(t, a.Advance())
	snap = a.Snapshot()
	assert.Equal(t, StateAnswering, snap.State)
	assert.Equal(t, 2, snap.Question.Number)

	require.NoError(t, a.SelectOption("A"))
	require.NoError(t, a.Submit())
	assert.Equal(t, FeedbackIncorrect, a.Snapshot().Feedback)

	// Завершение
	require.NoError(t, a.Advance())
	snap = a.Snapshot()
	assert.Equal(t, StateComplete, snap.State)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, 2, snap.Results[0].TotalQuestions)
	assert.Equal(t, 1, snap.Results[0].CorrectAnswers)
	assert.Equal(t, 1, snap.Results[0].IncorrectAnswers)
	assert.InDelta(t, 50.0, snap.OverallPercentage, 0.01)

	// Ровно одна отправка результата
	require.Eventually(t, func() bool { return sub.count() == 1 }, time.Second, 10*time.Millisecond)
	s := sub.last()
	assert.Equal(t, "test-attempt-id", s.AttemptID)
	assert.Equal(t, "Иван", s.UserName)
	assert.Equal(t, 2, s.TotalQuestions)
	assert.Equal(t, 1, s.CorrectAnswers)
	assert.Equal(t, 1, s.IncorrectAnswers)
	require.Len(t, s.Answers, 2)
}

func TestAttempt_TallyInvariant(t *testing.T) {
	// Для любой комбинации ответов: correct + incorrect == total
	sub := &mockSubmitter{}
	a := newTestAttempt(t, testQuiz(), sub)

	require.NoError(t, a.SetName("Анна"))
	require.NoError(t, a.Begin())

	require.NoError(t, a.SelectOption("C")) // неправильно
	require.NoError(t, a.Submit())
	require.NoError(t, a.Advance())

	require.NoError(t, a.SelectOption("D")) // правильно
	require.NoError(t, a.Submit())
	require.NoError(t, a.Advance())

	snap := a.Snapshot()
	for _, r := range snap.Results {
		assert.Equal(t, r.TotalQuestions, r.CorrectAnswers+r.IncorrectAnswers)
	}
}

func TestAttempt_TimeoutWithoutSelection(t *testing.T) {
	sub := &mockSubmitter{}
	a := newTestAttempt(t, testQuiz(), sub)

	require.NoError(t, a.SetName("Пётр"))
	require.NoError(t, a.Begin())

	// Ничего не выбираем и ждём истечения таймера
	require.Eventually(t, func() bool {
		return a.Snapshot().State == StateSubmitted
	}, time.Second, 10*time.Millisecond)

	snap := a.Snapshot()
	assert.Equal(t, FeedbackTimeoutNoSelection, snap.Feedback)

	// Завершаем попытку, чтобы проверить запись ответа в отправке
	require.NoError(t, a.Advance())
	require.NoError(t, a.SelectOption("D"))
	require.NoError(t, a.Submit())
	require.NoError(t, a.Advance())

	require.Eventually(t, func() bool { return sub.count() == 1 }, time.Second, 10*time.Millisecond)
	s := sub.last()
	assert.Equal(t, entity.AnswerTimeout, s.Answers[0].SelectedOptionID)
	assert.True(t, s.Answers[0].TimedOut)
	assert.False(t, s.Answers[0].IsCorrect)
}

func TestAttempt_TimeoutKeepsTentativePick(t *testing.T) {
	sub := &mockSubmitter{}
	a := newTestAttempt(t, testQuiz(), sub)

	require.NoError(t, a.SetName("Мария"))
	require.NoError(t, a.Begin())

	// Выбираем правильный вариант, но не фиксируем — таймаут должен сохранить выбор
	require.NoError(t, a.SelectOption("B"))

	require.Eventually(t, func() bool {
		return a.Snapshot().State == StateSubmitted
	}, time.Second, 10*time.Millisecond)

	snap := a.Snapshot()
	assert.Equal(t, FeedbackTimeoutWithSelection, snap.Feedback)

	require.NoError(t, a.Advance())
	require.NoError(t, a.SelectOption("A"))
	require.NoError(t, a.Submit())
	require.NoError(t, a.Advance())

	require.Eventually(t, func() bool { return sub.count() == 1 }, time.Second, 10*time.Millisecond)
	s := sub.last()
	assert.Equal(t, "B", s.Answers[0].SelectedOptionID)
	assert.True(t, s.Answers[0].TimedOut)
	assert.True(t, s.Answers[0].IsCorrect)
}

func TestAttempt_SelectAfterSubmitIsNoOp(t *testing.T) {
	sub := &mockSubmitter{}
	a := newTestAttempt(t, testQuiz(), sub)

	require.NoError(t, a.SetName("Олег"))
	require.NoError(t, a.Begin())
	require.NoError(t, a.SelectOption("B"))
	require.NoError(t, a.Submit())

	// Попытка сменить выбор после фиксации молча игнорируется
	require.NoError(t, a.SelectOption("A"))
	assert.Equal(t, "B", a.Snapshot().Tentative)
	assert.Equal(t, FeedbackCorrect, a.Snapshot().Feedback)
}

func TestAttempt_SubmitWithoutSelection(t *testing.T) {
	sub := &mockSubmitter{}
	a := newTestAttempt(t, testQuiz(), sub)

	require.NoError(t, a.SetName("Олег"))
	require.NoError(t, a.Begin())

	err := a.Submit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestAttempt_InvalidTransitions(t *testing.T) {
	sub := &mockSubmitter{}
	a := newTestAttempt(t, testQuiz(), sub)

	// Begin до ввода имени
	err := a.Begin()
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	// Пустое имя
	err = a.SetName("   ")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	require.NoError(t, a.SetName("Ирина"))

	// Повторная установка имени
	err = a.SetName("Другая")
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	// Advance до фиксации ответа
	require.NoError(t, a.Begin())
	err = a.Advance()
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestAttempt_ShuffleIsPermutation(t *testing.T) {
	sub := &mockSubmitter{}
	a := newTestAttempt(t, testQuiz(), sub)

	require.NoError(t, a.SetName("Саша"))
	require.NoError(t, a.Begin())

	snap := a.Snapshot()
	ids := make([]string, 0, len(snap.Question.Options))
	for _, opt := range snap.Question.Options {
		ids = append(ids, opt.ID)
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids)
}

func TestAttempt_StoreFailureKeepsComplete(t *testing.T) {
	sub := &mockSubmitter{}
	sub.setError(errors.New("storage unavailable"))
	a := newTestAttempt(t, testQuiz(), sub)

	require.NoError(t, a.SetName("Вера"))
	require.NoError(t, a.Begin())
	require.NoError(t, a.SelectOption("B"))
	require.NoError(t, a.Submit())
	require.NoError(t, a.Advance())
	require.NoError(t, a.SelectOption("D"))
	require.NoError(t, a.Submit())
	require.NoError(t, a.Advance())

	// Ошибка хранилища НЕ откатывает Complete: результат остаётся локально
	require.Eventually(t, func() bool {
		snap := a.Snapshot()
		return snap.State == StateComplete && !snap.IsSubmitting && snap.SubmitError != ""
	}, time.Second, 10*time.Millisecond)

	snap := a.Snapshot()
	assert.Equal(t, StateComplete, snap.State)
	assert.False(t, snap.IsSubmitted)
	require.Len(t, snap.Results, 1)
	assert.Equal(t, 2, snap.Results[0].CorrectAnswers)

	// Повторная отправка после восстановления хранилища
	sub.setError(nil)
	require.NoError(t, a.Resubmit())
	require.Eventually(t, func() bool { return sub.count() == 1 }, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool { return a.Snapshot().IsSubmitted }, time.Second, 10*time.Millisecond)

	// Повторный Resubmit после успешной отправки — no-op
	require.NoError(t, a.Resubmit())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, sub.count())
}

func TestAttempt_ReportDataAfterStoreFailure(t *testing.T) {
	sub := &mockSubmitter{}
	sub.setError(errors.New("storage unavailable"))
	a := newTestAttempt(t, testQuiz(), sub)

	require.NoError(t, a.SetName("Дмитрий"))
	require.NoError(t, a.Begin())
	require.NoError(t, a.SelectOption("B"))
	require.NoError(t, a.Submit())
	require.NoError(t, a.Advance())
	require.NoError(t, a.SelectOption("A"))
	require.NoError(t, a.Submit())
	require.NoError(t, a.Advance())

	// Отчет доступен даже при недоступном хранилище
	userName, courseName, modules, results, err := a.ReportData()
	require.NoError(t, err)
	assert.Equal(t, "Дмитрий", userName)
	assert.Equal(t, "Основы Go", courseName)
	require.Len(t, modules, 1)
	require.Contains(t, results, uint(10))
	assert.Equal(t, 1, results[10].CorrectAnswers)
}

func TestAttempt_ReportDataBeforeComplete(t *testing.T) {
	sub := &mockSubmitter{}
	a := newTestAttempt(t, testQuiz(), sub)

	_, _, _, _, err := a.ReportData()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestAttempt_StaleTickDoesNotAffectNextQuestion(t *testing.T) {
	sub := &mockSubmitter{}
	// Длинный бюджет времени, чтобы таймер не истекал сам
	cfg := &Config{QuestionTimeSec: 100, TickInterval: 50 * time.Millisecond}
	a := New("stale-tick-test", testQuiz(), cfg, &Dependencies{Submitter: sub})
	t.Cleanup(a.Close)

	require.NoError(t, a.SetName("Костя"))
	require.NoError(t, a.Begin())

	// Даём таймеру первого вопроса потикать
	time.Sleep(120 * time.Millisecond)

	require.NoError(t, a.SelectOption("B"))
	require.NoError(t, a.Submit())
	require.NoError(t, a.Advance())

	// Сразу после входа во второй вопрос таймер должен быть сброшен полностью;
	// тики первого вопроса не должны уменьшать его
	snap := a.Snapshot()
	assert.Equal(t, 2, snap.Question.Number)
	assert.GreaterOrEqual(t, snap.RemainingSec, 99)
}

func TestAttempt_SelectUnknownOption(t *testing.T) {
	sub := &mockSubmitter{}
	a := newTestAttempt(t, testQuiz(), sub)

	require.NoError(t, a.SetName("Лена"))
	require.NoError(t, a.Begin())

	err := a.SelectOption("Z")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}
