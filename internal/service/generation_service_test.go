package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizgen-api/internal/config"
	apperrors "github.com/yourusername/quizgen-api/internal/pkg/errors"
)

// completionServer возвращает httptest-сервер, отдающий заданные тексты
// ответов модели по очереди
func completionServer(t *testing.T, contents ...string) *httptest.Server {
	t.Helper()
	call := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		content := contents[len(contents)-1]
		if call < len(contents) {
			content = contents[call]
		}
		call++

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func generationConfig(baseURL string) *config.GeneratorConfig {
	return &config.GeneratorConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "test-model",
		TimeoutSec:  5,
		MaxAttempts: 2,
	}
}

// wellFormedPayload строит корректный JSON-ответ модели с count вопросами
func wellFormedPayload(count int) string {
	questions := make([]string, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, fmt.Sprintf(
			`{"text":"Question %d","options":["a","b","c","d"],"correct_index":%d}`, i+1, i%4))
	}
	return fmt.Sprintf(`{"module_title":"Networking Basics","questions":[%s]}`, strings.Join(questions, ","))
}

func TestGenerateQuiz_WellFormed(t *testing.T) {
	srv := completionServer(t, wellFormedPayload(3))
	defer srv.Close()

	svc := NewGenerationService(generationConfig(srv.URL))
	modules, err := svc.GenerateQuiz(context.Background(), "study material", 3)
	require.NoError(t, err)

	require.Len(t, modules, 1)
	m := modules[0]
	assert.Equal(t, "Networking Basics", m.Title)
	assert.Equal(t, "study material", m.Content)
	require.Len(t, m.Questions, 3)

	q := m.Questions[0]
	assert.Equal(t, "Question 1", q.Text)
	require.Len(t, q.Options, 4)
	assert.Equal(t, "A", q.Options[0].ID)
	assert.Equal(t, "D", q.Options[3].ID)
	assert.Equal(t, "A", q.CorrectOptionID)
	require.NoError(t, q.Validate())
}

func TestGenerateQuiz_MarkdownFencedJSON(t *testing.T) {
	srv := completionServer(t, "```json\n"+wellFormedPayload(2)+"\n```")
	defer srv.Close()

	svc := NewGenerationService(generationConfig(srv.URL))
	modules, err := svc.GenerateQuiz(context.Background(), "material", 2)
	require.NoError(t, err)
	require.Len(t, modules[0].Questions, 2)
}

func TestGenerateQuiz_RepairPadsMissingQuestions(t *testing.T) {
	// Модель оба раза возвращает 2 вопроса вместо 5 — ремонт добирает
	// недостающие помеченными дубликатами
	short := wellFormedPayload(2)
	srv := completionServer(t, short, short)
	defer srv.Close()

	svc := NewGenerationService(generationConfig(srv.URL))
	modules, err := svc.GenerateQuiz(context.Background(), "material", 5)
	require.NoError(t, err)

	questions := modules[0].Questions
	require.Len(t, questions, 5)
	assert.Equal(t, "Question 1", questions[0].Text)
	assert.Equal(t, "Question 2", questions[1].Text)
	// Дубликаты помечены и идут по кругу от начала
	assert.Equal(t, "Question 1 (review)", questions[2].Text)
	assert.Equal(t, "Question 2 (review)", questions[3].Text)
	assert.Equal(t, "Question 1 (review)", questions[4].Text)

	for _, q := range questions {
		require.NoError(t, q.Validate())
	}
}

func TestGenerateQuiz_RepairTrimsExtraQuestions(t *testing.T) {
	long := wellFormedPayload(7)
	srv := completionServer(t, long, long)
	defer srv.Close()

	svc := NewGenerationService(generationConfig(srv.URL))
	modules, err := svc.GenerateQuiz(context.Background(), "material", 4)
	require.NoError(t, err)
	require.Len(t, modules[0].Questions, 4)
}

func TestGenerateQuiz_RepairNormalizesOptions(t *testing.T) {
	// 3 варианта и невалидный correct_index — ремонт добирает до 4
	// и принудительно указывает на первый вариант
	payload := `{"module_title":"T","questions":[
		{"text":"Q1","options":["x","y","z"],"correct_index":9},
		{"text":"Q2","options":["a","b","c","d","e"],"correct_index":1}
	]}`
	srv := completionServer(t, payload, payload)
	defer srv.Close()

	svc := NewGenerationService(generationConfig(srv.URL))
	modules, err := svc.GenerateQuiz(context.Background(), "material", 2)
	require.NoError(t, err)

	q1 := modules[0].Questions[0]
	require.Len(t, q1.Options, 4)
	assert.Equal(t, "Option D", q1.Options[3].Text)
	assert.Equal(t, "A", q1.CorrectOptionID)

	q2 := modules[0].Questions[1]
	require.Len(t, q2.Options, 4)
	assert.Equal(t, "B", q2.CorrectOptionID)

	require.NoError(t, q1.Validate())
	require.NoError(t, q2.Validate())
}

func TestGenerateQuiz_NoUsableQuestions(t *testing.T) {
	srv := completionServer(t, "this is not json at all", `{"module_title":"T","questions":[]}`)
	defer srv.Close()

	svc := NewGenerationService(generationConfig(srv.URL))
	_, err := svc.GenerateQuiz(context.Background(), "material", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrGeneration))
}

func TestGenerateQuiz_EmptySourceText(t *testing.T) {
	svc := NewGenerationService(generationConfig("http://unused"))
	_, err := svc.GenerateQuiz(context.Background(), "   ", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}
