package report

import (
	"encoding/json"
	"strings"
	"unicode"
)

// ExtractDisplayText возвращает отображаемый текст из значения, которое
// может оказаться сырым JSON-объектом (артефакт генерации). Строка,
// начинающаяся с '{', разбирается как JSON и из неё извлекается поле "text";
// любая неудача возвращает исходную строку. Функция никогда не паникует.
func ExtractDisplayText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return raw
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return raw
	}

	if text, ok := parsed["text"].(string); ok && text != "" {
		return text
	}
	return raw
}

// SanitizeFileName приводит имя пользователя к безопасному фрагменту
// имени файла: остаются только буквы и цифры, всё в нижнем регистре
func SanitizeFileName(userName string) string {
	var b strings.Builder
	for _, r := range userName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// FileName возвращает имя файла отчета для пользователя
func FileName(userName string) string {
	sanitized := SanitizeFileName(userName)
	if sanitized == "" {
		sanitized = "user"
	}
	return sanitized + "_quiz_results.pdf"
}
