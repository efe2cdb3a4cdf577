package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/quizgen-api/internal/domain/entity"
	"github.com/yourusername/quizgen-api/internal/domain/repository"
)

// SubmissionChannel возвращает имя Redis-канала, в который публикуются
// новые результаты викторины
func SubmissionChannel(quizID uint) string {
	return fmt.Sprintf("quiz:%d:submissions", quizID)
}

// ResultPublisher публикует события о новых результатах для live-подписчиков
type ResultPublisher interface {
	Publish(channel string, message []byte) error
}

// SubmissionEvent — событие о новом результате, уходящее в Redis-канал
type SubmissionEvent struct {
	Type             string    `json:"type"`
	QuizID           uint      `json:"quiz_id"`
	SubmissionID     uint      `json:"submission_id"`
	UserName         string    `json:"user_name"`
	TotalQuestions   int       `json:"total_questions"`
	CorrectAnswers   int       `json:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers"`
	Percentage       float64   `json:"percentage"`
	CompletedAt      time.Time `json:"completed_at"`
}

// QuizResultsPage — страница агрегированных результатов викторины
type QuizResultsPage struct {
	Submissions []entity.Submission
	Total       int64
	// AveragePercentage — средний процент по всем результатам страницы запроса
	AveragePercentage float64
}

// ResultService отвечает за сохранение и выдачу результатов попыток
type ResultService struct {
	submissionRepo repository.SubmissionRepository
	publisher      ResultPublisher
}

// NewResultService создает новый сервис результатов
func NewResultService(submissionRepo repository.SubmissionRepository, publisher ResultPublisher) *ResultService {
	return &ResultService{
		submissionRepo: submissionRepo,
		publisher:      publisher,
	}
}

// SubmitResult сохраняет результат попытки и публикует событие для
// live-подписчиков. Реализует attempt.ResultSubmitter.
// Ошибка публикации не считается ошибкой сохранения.
func (s *ResultService) SubmitResult(ctx context.Context, submission *entity.Submission) error {
	if err := s.submissionRepo.Save(submission); err != nil {
		return err
	}

	log.Printf("[ResultService] Результат попытки %s сохранён (ID=%d, %d/%d)",
		submission.AttemptID, submission.ID, submission.CorrectAnswers, submission.TotalQuestions)

	s.publishSubmission(submission)
	return nil
}

// publishSubmission отправляет событие о новом результате в Redis-канал викторины
func (s *ResultService) publishSubmission(submission *entity.Submission) {
	if s.publisher == nil {
		return
	}

	event := SubmissionEvent{
		Type:             "submission:new",
		QuizID:           submission.QuizID,
		SubmissionID:     submission.ID,
		UserName:         submission.UserName,
		TotalQuestions:   submission.TotalQuestions,
		CorrectAnswers:   submission.CorrectAnswers,
		IncorrectAnswers: submission.IncorrectAnswers,
		Percentage:       submission.Percentage(),
		CompletedAt:      submission.CompletedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ResultService] Ошибка сериализации события результата: %v", err)
		return
	}

	if err := s.publisher.Publish(SubmissionChannel(submission.QuizID), data); err != nil {
		log.Printf("[ResultService] Ошибка публикации события результата викторины #%d: %v", submission.QuizID, err)
	}
}

// GetQuizResults возвращает страницу результатов викторины
func (s *ResultService) GetQuizResults(quizID uint, page, pageSize int) (*QuizResultsPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	submissions, total, err := s.submissionRepo.GetByQuizID(quizID, pageSize, offset)
	if err != nil {
		return nil, err
	}

	return &QuizResultsPage{
		Submissions:       submissions,
		Total:             total,
		AveragePercentage: averagePercentage(submissions),
	}, nil
}

// GetQuizResultsAll возвращает все результаты викторины (для экспорта)
func (s *ResultService) GetQuizResultsAll(quizID uint) ([]entity.Submission, error) {
	return s.submissionRepo.GetAllByQuizID(quizID)
}

// GetSubmission возвращает один сохранённый результат
func (s *ResultService) GetSubmission(submissionID uint) (*entity.Submission, error) {
	return s.submissionRepo.GetByID(submissionID)
}

func averagePercentage(submissions []entity.Submission) float64 {
	if len(submissions) == 0 {
		return 0
	}
	sum := 0.0
	for i := range submissions {
		sum += submissions[i].Percentage()
	}
	return sum / float64(len(submissions))
}
