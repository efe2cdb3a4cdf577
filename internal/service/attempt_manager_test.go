package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizgen-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizgen-api/internal/pkg/errors"
	"github.com/yourusername/quizgen-api/internal/service/attempt"
)

// nopSubmitter - заглушка отправки результатов для тестов менеджера
type nopSubmitter struct{}

func (nopSubmitter) SubmitResult(ctx context.Context, submission *entity.Submission) error {
	return nil
}

func publishedQuiz(id uint) *entity.Quiz {
	return &entity.Quiz{
		ID:         id,
		CourseName: "Go Basics",
		Status:     entity.QuizStatusPublished,
		Modules: []entity.Module{{
			ID:     1,
			QuizID: id,
			Title:  "Module 1",
			Questions: []entity.Question{{
				ID:       1,
				ModuleID: 1,
				Text:     "Question?",
				Options: entity.OptionArray{
					{ID: "A", Text: "a"}, {ID: "B", Text: "b"},
					{ID: "C", Text: "c"}, {ID: "D", Text: "d"},
				},
				CorrectOptionID: "A",
			}},
		}},
	}
}

func newTestManager(t *testing.T, repo *MockQuizRepo) *AttemptManager {
	t.Helper()
	cfg := &attempt.Config{QuestionTimeSec: 100, TickInterval: time.Second}
	am := NewAttemptManager(repo, nopSubmitter{}, cfg, time.Hour)
	t.Cleanup(am.Shutdown)
	return am
}

func TestStartAttempt_Success(t *testing.T) {
	repo := new(MockQuizRepo)
	repo.On("GetWithModules", uint(7)).Return(publishedQuiz(7), nil)
	am := newTestManager(t, repo)

	a, err := am.StartAttempt(7)

	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, uint(7), a.QuizID)

	got, err := am.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestStartAttempt_UnpublishedQuiz(t *testing.T) {
	quiz := publishedQuiz(7)
	quiz.Status = entity.QuizStatusGenerating

	repo := new(MockQuizRepo)
	repo.On("GetWithModules", uint(7)).Return(quiz, nil)
	am := newTestManager(t, repo)

	_, err := am.StartAttempt(7)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestStartAttempt_QuizWithoutQuestions(t *testing.T) {
	quiz := publishedQuiz(7)
	quiz.Modules[0].Questions = nil

	repo := new(MockQuizRepo)
	repo.On("GetWithModules", uint(7)).Return(quiz, nil)
	am := newTestManager(t, repo)

	_, err := am.StartAttempt(7)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestStartAttempt_QuizNotFound(t *testing.T) {
	repo := new(MockQuizRepo)
	repo.On("GetWithModules", uint(404)).Return(nil, apperrors.ErrNotFound)
	am := newTestManager(t, repo)

	_, err := am.StartAttempt(404)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGet_UnknownAttempt(t *testing.T) {
	am := newTestManager(t, new(MockQuizRepo))

	_, err := am.Get("no-such-attempt")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestShutdown_RemovesAttempts(t *testing.T) {
	repo := new(MockQuizRepo)
	repo.On("GetWithModules", uint(7)).Return(publishedQuiz(7), nil)

	cfg := &attempt.Config{QuestionTimeSec: 100, TickInterval: time.Second}
	am := NewAttemptManager(repo, nopSubmitter{}, cfg, time.Hour)

	a, err := am.StartAttempt(7)
	require.NoError(t, err)

	am.Shutdown()

	_, err = am.Get(a.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
