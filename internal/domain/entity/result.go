package entity

// ModuleResult представляет итог прохождения одного модуля викторины.
// Вычисляется ровно один раз из финального набора ответов попытки
// и далее не изменяется.
// Инварианты: CorrectAnswers + IncorrectAnswers == TotalQuestions,
// CorrectAnswers == количеству ответов с IsCorrect == true.
type ModuleResult struct {
	ModuleID         uint           `json:"module_id"`
	TotalQuestions   int            `json:"total_questions"`
	CorrectAnswers   int            `json:"correct_answers"`
	IncorrectAnswers int            `json:"incorrect_answers"`
	Answers          []AnswerRecord `json:"answers"`
}

// Percentage возвращает долю правильных ответов в процентах
func (r *ModuleResult) Percentage() float64 {
	if r.TotalQuestions == 0 {
		return 0
	}
	return float64(r.CorrectAnswers) / float64(r.TotalQuestions) * 100
}

// ComputeModuleResult подсчитывает итог модуля из финального набора ответов.
// Функция чистая и идемпотентная: повторный вызов на тех же ответах
// возвращает идентичный результат.
func ComputeModuleResult(moduleID uint, answers []AnswerRecord) ModuleResult {
	result := ModuleResult{
		ModuleID: moduleID,
		Answers:  make([]AnswerRecord, 0, len(answers)),
	}

	for _, ans := range answers {
		if ans.ModuleID != moduleID {
			continue
		}
		result.Answers = append(result.Answers, ans)
		result.TotalQuestions++
		if ans.IsCorrect {
			result.CorrectAnswers++
		} else {
			result.IncorrectAnswers++
		}
	}

	return result
}

// OverallPercentage возвращает общий процент как среднее процентов модулей
func OverallPercentage(results map[uint]ModuleResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Percentage()
	}
	return sum / float64(len(results))
}
