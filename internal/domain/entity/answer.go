package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// AnswerTimeout - зарезервированное значение ответа, означающее,
// что таймер вопроса истёк без выбранного варианта
const AnswerTimeout = "timeout"

// AnswerRecord представляет зафиксированный ответ на один вопрос попытки.
// SelectedOptionID пуст, пока ответ не дан; содержит идентификатор варианта
// после выбора; принудительно становится AnswerTimeout, если таймер истёк
// без выбора.
type AnswerRecord struct {
	QuestionID       uint   `json:"question_id"`
	ModuleID         uint   `json:"module_id"`
	SelectedOptionID string `json:"selected_option_id"`
	IsCorrect        bool   `json:"is_correct"`
	TimedOut         bool   `json:"timed_out"` // Истёк ли таймер на этом вопросе
}

// IsTimeout проверяет, является ли ответ сентинелом таймаута
func (a *AnswerRecord) IsTimeout() bool {
	return a.SelectedOptionID == AnswerTimeout
}

// IsAnswered проверяет, зафиксирован ли какой-либо ответ
func (a *AnswerRecord) IsAnswered() bool {
	return a.SelectedOptionID != ""
}

// AnswerRecordArray - пользовательский тип для хранения ответов попытки в JSONB
type AnswerRecordArray []AnswerRecord

// Scan реализует интерфейс sql.Scanner для AnswerRecordArray
func (a *AnswerRecordArray) Scan(value interface{}) error {
	if value == nil {
		*a = AnswerRecordArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*a = AnswerRecordArray{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Value реализует интерфейс driver.Valuer для AnswerRecordArray
func (a AnswerRecordArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}
