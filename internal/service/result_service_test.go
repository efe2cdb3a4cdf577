package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizgen-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizgen-api/internal/pkg/errors"
)

// MockSubmissionRepo - мок для SubmissionRepository
type MockSubmissionRepo struct {
	mock.Mock
}

func (m *MockSubmissionRepo) Save(submission *entity.Submission) error {
	args := m.Called(submission)
	return args.Error(0)
}

func (m *MockSubmissionRepo) GetByID(id uint) (*entity.Submission, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) GetByQuizID(quizID uint, limit, offset int) ([]entity.Submission, int64, error) {
	args := m.Called(quizID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Submission), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepo) GetAllByQuizID(quizID uint) ([]entity.Submission, error) {
	args := m.Called(quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Submission), args.Error(1)
}

// MockPublisher - мок для ResultPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(channel string, message []byte) error {
	args := m.Called(channel, message)
	return args.Error(0)
}

func testSubmission() *entity.Submission {
	return &entity.Submission{
		QuizID:           7,
		AttemptID:        "attempt-uuid",
		UserName:         "Иван",
		TotalQuestions:   10,
		CorrectAnswers:   8,
		IncorrectAnswers: 2,
		CompletedAt:      time.Now(),
	}
}

func TestSubmitResult_SavesAndPublishes(t *testing.T) {
	// Arrange
	repo := new(MockSubmissionRepo)
	pub := new(MockPublisher)
	svc := NewResultService(repo, pub)

	submission := testSubmission()
	repo.On("Save", submission).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.Submission).ID = 42
	}).Return(nil)

	pub.On("Publish", "quiz:7:submissions", mock.Anything).Return(nil)

	// Act
	err := svc.SubmitResult(context.Background(), submission)

	// Assert
	require.NoError(t, err)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)

	// Проверяем содержимое опубликованного события
	raw := pub.Calls[0].Arguments.Get(1).([]byte)
	var event SubmissionEvent
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "submission:new", event.Type)
	assert.Equal(t, uint(7), event.QuizID)
	assert.Equal(t, uint(42), event.SubmissionID)
	assert.Equal(t, "Иван", event.UserName)
	assert.InDelta(t, 80.0, event.Percentage, 0.01)
}

func TestSubmitResult_PublishFailureIsNotFatal(t *testing.T) {
	repo := new(MockSubmissionRepo)
	pub := new(MockPublisher)
	svc := NewResultService(repo, pub)

	repo.On("Save", mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	err := svc.SubmitResult(context.Background(), testSubmission())

	// Результат сохранён — ошибка публикации не возвращается наверх
	require.NoError(t, err)
}

func TestSubmitResult_DuplicateAttempt(t *testing.T) {
	repo := new(MockSubmissionRepo)
	pub := new(MockPublisher)
	svc := NewResultService(repo, pub)

	repo.On("Save", mock.Anything).Return(apperrors.ErrConflict)

	err := svc.SubmitResult(context.Background(), testSubmission())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	// При ошибке сохранения публикации быть не должно
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestGetQuizResults_Pagination(t *testing.T) {
	repo := new(MockSubmissionRepo)
	svc := NewResultService(repo, nil)

	submissions := []entity.Submission{
		{UserName: "A", TotalQuestions: 10, CorrectAnswers: 10},
		{UserName: "B", TotalQuestions: 10, CorrectAnswers: 5},
	}
	// page=2, pageSize=2 -> limit=2, offset=2
	repo.On("GetByQuizID", uint(7), 2, 2).Return(submissions, int64(5), nil)

	page, err := svc.GetQuizResults(7, 2, 2)

	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Len(t, page.Submissions, 2)
	assert.InDelta(t, 75.0, page.AveragePercentage, 0.01)
}

func TestGetQuizResults_DefaultsForInvalidPaging(t *testing.T) {
	repo := new(MockSubmissionRepo)
	svc := NewResultService(repo, nil)

	repo.On("GetByQuizID", uint(7), 20, 0).Return([]entity.Submission{}, int64(0), nil)

	page, err := svc.GetQuizResults(7, -1, 1000)

	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	assert.Equal(t, 0.0, page.AveragePercentage)
	repo.AssertExpectations(t)
}
