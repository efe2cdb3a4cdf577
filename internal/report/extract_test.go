package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDisplayText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "обычная строка возвращается как есть",
			input:    "What is a goroutine?",
			expected: "What is a goroutine?",
		},
		{
			name:     "JSON с полем text",
			input:    `{"text": "What is a channel?", "difficulty": 2}`,
			expected: "What is a channel?",
		},
		{
			name:     "JSON с пробелами в начале",
			input:    `   {"text": "Trimmed"}`,
			expected: "Trimmed",
		},
		{
			name:     "невалидный JSON возвращается как есть",
			input:    `{broken json`,
			expected: `{broken json`,
		},
		{
			name:     "JSON без поля text возвращается как есть",
			input:    `{"title": "no text field"}`,
			expected: `{"title": "no text field"}`,
		},
		{
			name:     "JSON с пустым text возвращается как есть",
			input:    `{"text": ""}`,
			expected: `{"text": ""}`,
		},
		{
			name:     "пустая строка",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractDisplayText(tt.input))
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "ivanpetrov", SanitizeFileName("Ivan Petrov"))
	assert.Equal(t, "user123", SanitizeFileName("User_123!"))
	assert.Equal(t, "иван", SanitizeFileName("Иван"))
	assert.Equal(t, "", SanitizeFileName("!@#$%"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "ivanpetrov_quiz_results.pdf", FileName("Ivan Petrov"))
	// Имя без букв и цифр получает fallback
	assert.Equal(t, "user_quiz_results.pdf", FileName("..."))
}
