package dto

import (
	"time"

	"github.com/yourusername/quizgen-api/internal/domain/entity"
	"github.com/yourusername/quizgen-api/internal/service"
)

// OptionResponse представляет вариант ответа в формате для клиента
type OptionResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionResponse представляет вопрос в формате для клиента.
// Правильный вариант намеренно отсутствует: клиент узнаёт его только
// после фиксации своего ответа в рамках попытки.
type QuestionResponse struct {
	ID      uint             `json:"id"`
	Text    string           `json:"text"`
	Options []OptionResponse `json:"options"`
}

// ModuleResponse представляет модуль викторины
type ModuleResponse struct {
	ID        uint               `json:"id"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	Questions []QuestionResponse `json:"questions,omitempty"`
}

// QuizResponse представляет викторину в формате для клиента
type QuizResponse struct {
	ID            uint             `json:"id"`
	CourseName    string           `json:"course_name"`
	Status        string           `json:"status"`
	QuestionCount int              `json:"question_count"`
	Modules       []ModuleResponse `json:"modules,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// NewQuestionResponse создает DTO вопроса без правильного варианта
func NewQuestionResponse(q *entity.Question) QuestionResponse {
	options := make([]OptionResponse, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, OptionResponse{ID: opt.ID, Text: opt.Text})
	}
	return QuestionResponse{
		ID:      q.ID,
		Text:    q.Text,
		Options: options,
	}
}

// NewModuleResponse создает DTO модуля
func NewModuleResponse(m *entity.Module, includeQuestions bool) ModuleResponse {
	resp := ModuleResponse{
		ID:      m.ID,
		Title:   m.Title,
		Content: m.Content,
	}
	if includeQuestions {
		resp.Questions = make([]QuestionResponse, 0, len(m.Questions))
		for i := range m.Questions {
			resp.Questions = append(resp.Questions, NewQuestionResponse(&m.Questions[i]))
		}
	}
	return resp
}

// NewQuizResponse создает DTO викторины
func NewQuizResponse(quiz *entity.Quiz, includeModules bool) *QuizResponse {
	resp := &QuizResponse{
		ID:            quiz.ID,
		CourseName:    quiz.CourseName,
		Status:        string(quiz.Status),
		QuestionCount: quiz.QuestionCount,
		CreatedAt:     quiz.CreatedAt,
	}
	if includeModules {
		resp.Modules = make([]ModuleResponse, 0, len(quiz.Modules))
		for i := range quiz.Modules {
			resp.Modules = append(resp.Modules, NewModuleResponse(&quiz.Modules[i], true))
		}
	}
	return resp
}

// NewListQuizResponse создает список DTO викторин без модулей
func NewListQuizResponse(quizzes []entity.Quiz) []*QuizResponse {
	responses := make([]*QuizResponse, 0, len(quizzes))
	for i := range quizzes {
		responses = append(responses, NewQuizResponse(&quizzes[i], false))
	}
	return responses
}

// SubmissionResponse представляет сохранённый результат попытки
type SubmissionResponse struct {
	ID               uint      `json:"id"`
	UserName         string    `json:"user_name"`
	TotalQuestions   int       `json:"total_questions"`
	CorrectAnswers   int       `json:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers"`
	Percentage       float64   `json:"percentage"`
	CompletedAt      time.Time `json:"completed_at"`
}

// PaginatedResultsResponse представляет страницу результатов викторины
type PaginatedResultsResponse struct {
	Results           []SubmissionResponse `json:"results"`
	Total             int64                `json:"total"`
	Page              int                  `json:"page"`
	PerPage           int                  `json:"per_page"`
	AveragePercentage float64              `json:"average_percentage"`
}

// NewSubmissionResponse создает DTO результата
func NewSubmissionResponse(s *entity.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:               s.ID,
		UserName:         s.UserName,
		TotalQuestions:   s.TotalQuestions,
		CorrectAnswers:   s.CorrectAnswers,
		IncorrectAnswers: s.IncorrectAnswers,
		Percentage:       s.Percentage(),
		CompletedAt:      s.CompletedAt,
	}
}

// NewPaginatedResultsResponse создает DTO страницы результатов
func NewPaginatedResultsResponse(page *service.QuizResultsPage, pageNum, perPage int) *PaginatedResultsResponse {
	results := make([]SubmissionResponse, 0, len(page.Submissions))
	for i := range page.Submissions {
		results = append(results, NewSubmissionResponse(&page.Submissions[i]))
	}
	return &PaginatedResultsResponse{
		Results:           results,
		Total:             page.Total,
		Page:              pageNum,
		PerPage:           perPage,
		AveragePercentage: page.AveragePercentage,
	}
}
