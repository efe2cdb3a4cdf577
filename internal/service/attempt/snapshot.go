package attempt

import (
	"github.com/yourusername/quizgen-api/internal/domain/entity"
)

// OptionView — вариант ответа в порядке показа. Правильность варианта
// клиенту не раскрывается.
type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionView — текущий вопрос в снимке попытки
type QuestionView struct {
	Number  int          `json:"number"` // 1-based позиция в сквозной последовательности
	Total   int          `json:"total"`
	Module  string       `json:"module"`
	Text    string       `json:"text"`
	Options []OptionView `json:"options"`
}

// ResultView — итог по одному модулю в снимке завершённой попытки
type ResultView struct {
	ModuleID         uint    `json:"module_id"`
	ModuleTitle      string  `json:"module_title"`
	TotalQuestions   int     `json:"total_questions"`
	CorrectAnswers   int     `json:"correct_answers"`
	IncorrectAnswers int     `json:"incorrect_answers"`
	Percentage       float64 `json:"percentage"`
}

// Snapshot — полный снимок состояния попытки. Клиент может восстановить
// свой интерфейс из снимка в любой момент (например, после перезагрузки
// страницы): снимок содержит всё видимое состояние, включая оставшееся
// время и порядок показа вариантов.
type Snapshot struct {
	AttemptID  string `json:"attempt_id"`
	QuizID     uint   `json:"quiz_id"`
	CourseName string `json:"course_name"`
	UserName   string `json:"user_name,omitempty"`
	State      State  `json:"state"`

	// Контент текущего модуля — только в состоянии ReadingContent
	ModuleTitle   string `json:"module_title,omitempty"`
	ModuleContent string `json:"module_content,omitempty"`

	// Текущий вопрос — в состояниях Answering и Submitted
	Question     *QuestionView `json:"question,omitempty"`
	RemainingSec int           `json:"remaining_sec"`
	Tentative    string        `json:"tentative,omitempty"`
	Feedback     Feedback      `json:"feedback,omitempty"`
	// CorrectOptionID раскрывается только после фиксации ответа
	CorrectOptionID string `json:"correct_option_id,omitempty"`

	// Итоги — только в состоянии Complete
	Results           []ResultView `json:"results,omitempty"`
	OverallPercentage float64      `json:"overall_percentage,omitempty"`
	IsSubmitting      bool         `json:"is_submitting"`
	IsSubmitted       bool         `json:"is_submitted"`
	SubmitError       string       `json:"submit_error,omitempty"`
}

// Snapshot возвращает снимок текущего состояния попытки
func (a *Attempt) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		AttemptID:    a.ID,
		QuizID:       a.QuizID,
		CourseName:   a.CourseName,
		UserName:     a.userName,
		State:        a.state,
		IsSubmitting: a.submitting,
		IsSubmitted:  a.submitted,
	}

	switch a.state {
	case StateReadingContent:
		// Пользователь читает контент первого модуля
		if len(a.quiz.Modules) > 0 {
			snap.ModuleTitle = a.quiz.Modules[0].Title
			snap.ModuleContent = a.quiz.Modules[0].Content
		}

	case StateAnswering, StateSubmitted:
		ref := a.sequence[a.index]
		snap.Question = &QuestionView{
			Number:  a.index + 1,
			Total:   len(a.sequence),
			Module:  ref.module.Title,
			Text:    ref.question.Text,
			Options: a.viewOptions(ref.question),
		}
		snap.RemainingSec = a.remainingSec
		snap.Tentative = a.tentative
		if a.state == StateSubmitted {
			snap.Feedback = a.feedback
			snap.CorrectOptionID = ref.question.CorrectOptionID
		}

	case StateComplete:
		snap.Results = a.viewResults()
		snap.OverallPercentage = entity.OverallPercentage(a.results)
		if a.submitError != nil {
			snap.SubmitError = a.submitError.Error()
		}
	}

	return snap
}

// viewOptions возвращает варианты в перемешанном порядке показа. Вызывается под мьютексом.
func (a *Attempt) viewOptions(q *entity.Question) []OptionView {
	views := make([]OptionView, 0, len(a.optionOrder))
	for _, id := range a.optionOrder {
		text, _ := q.OptionText(id)
		views = append(views, OptionView{ID: id, Text: text})
	}
	return views
}

// viewResults возвращает итоги по модулям в порядке модулей викторины. Вызывается под мьютексом.
func (a *Attempt) viewResults() []ResultView {
	views := make([]ResultView, 0, len(a.quiz.Modules))
	for mi := range a.quiz.Modules {
		module := &a.quiz.Modules[mi]
		r, ok := a.results[module.ID]
		if !ok {
			continue
		}
		views = append(views, ResultView{
			ModuleID:         module.ID,
			ModuleTitle:      module.Title,
			TotalQuestions:   r.TotalQuestions,
			CorrectAnswers:   r.CorrectAnswers,
			IncorrectAnswers: r.IncorrectAnswers,
			Percentage:       r.Percentage(),
		})
	}
	return views
}
