package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/quizgen-api/internal/config"
	"github.com/yourusername/quizgen-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizgen-api/internal/pkg/errors"
)

// chatCompletionRequest — запрос к OpenAI-совместимому chat/completions API
type chatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	Stream      bool                    `json:"stream"`
	Temperature *float64                `json:"temperature,omitempty"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

// generatedQuiz — ожидаемая JSON-структура ответа модели
type generatedQuiz struct {
	ModuleTitle string              `json:"module_title"`
	Questions   []generatedQuestion `json:"questions"`
}

type generatedQuestion struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

const generationSystemPrompt = `You are a quiz generator. Given study material, produce a JSON object with this exact shape and nothing else (no markdown, no commentary):
{"module_title": "<short title for the material>", "questions": [{"text": "<question>", "options": ["<option 1>", "<option 2>", "<option 3>", "<option 4>"], "correct_index": 0}]}
Rules: produce exactly the requested number of questions; every question has exactly 4 options; correct_index is the 0-based index of the correct option; questions must be answerable from the material alone.`

// GenerationService генерирует викторины через внешний AI-сервис,
// совместимый с OpenAI chat/completions API
type GenerationService struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	maxAttempts int
}

// NewGenerationService создает новый сервис генерации
func NewGenerationService(cfg *config.GeneratorConfig) *GenerationService {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 2
	}

	return &GenerationService{
		client:      &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxAttempts: maxAttempts,
	}
}

// GenerateQuiz генерирует модуль с questionCount вопросами из учебного текста.
// Модель опрашивается не более maxAttempts раз; если идеальной структуры
// добиться не удалось, лучший из полученных ответов приводится к нужной
// форме детерминированным ремонтом. Ремонт невозможен (ни одного пригодного
// вопроса) — возвращается ErrGeneration.
func (s *GenerationService) GenerateQuiz(ctx context.Context, sourceText string, questionCount int) ([]entity.Module, error) {
	sourceText = strings.TrimSpace(sourceText)
	if sourceText == "" {
		return nil, fmt.Errorf("%w: source text must not be empty", apperrors.ErrValidation)
	}
	if questionCount <= 0 {
		return nil, fmt.Errorf("%w: question count must be positive", apperrors.ErrValidation)
	}

	userPrompt := fmt.Sprintf("Generate exactly %d questions from the following material:\n\n%s", questionCount, sourceText)

	// Лучший ответ среди всех попыток — кандидат для ремонта
	var best *generatedQuiz

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		content, err := s.sendChatRequest(ctx, userPrompt)
		if err != nil {
			log.Printf("[Generation] Попытка %d/%d: ошибка запроса: %v", attempt, s.maxAttempts, err)
			continue
		}

		parsed, err := parseGeneratedQuiz(content)
		if err != nil {
			log.Printf("[Generation] Попытка %d/%d: невалидный JSON: %v", attempt, s.maxAttempts, err)
			continue
		}

		if isWellFormed(parsed, questionCount) {
			log.Printf("[Generation] Попытка %d/%d: получена корректная структура (%d вопросов)", attempt, s.maxAttempts, len(parsed.Questions))
			return buildModule(parsed, sourceText, questionCount), nil
		}

		log.Printf("[Generation] Попытка %d/%d: структура не соответствует (%d вопросов вместо %d)",
			attempt, s.maxAttempts, len(parsed.Questions), questionCount)

		if best == nil || usableQuestions(parsed) > usableQuestions(best) {
			best = parsed
		}
	}

	// Все попытки исчерпаны — детерминированный ремонт лучшего ответа
	if best == nil || usableQuestions(best) == 0 {
		return nil, fmt.Errorf("%w: generator returned no usable questions after %d attempts", apperrors.ErrGeneration, s.maxAttempts)
	}

	log.Printf("[Generation] Ремонт структуры: %d пригодных вопросов, требуется %d", usableQuestions(best), questionCount)
	return buildModule(best, sourceText, questionCount), nil
}

// sendChatRequest выполняет один запрос к chat/completions и возвращает
// текст ответа модели
func (s *GenerationService) sendChatRequest(ctx context.Context, userPrompt string) (string, error) {
	request := chatCompletionRequest{
		Model: s.model,
		Messages: []chatCompletionMessage{
			{Role: "system", Content: generationSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: false,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" && s.apiKey != "none" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %.200s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("failed to unmarshal completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion has no choices")
	}

	return completion.Choices[0].Message.Content, nil
}

// parseGeneratedQuiz извлекает JSON из текста ответа модели.
// Модели иногда оборачивают JSON в markdown-блок — срезаем обёртку.
func parseGeneratedQuiz(content string) (*generatedQuiz, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Отрезаем возможный текст до и после JSON-объекта
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in content")
	}

	var parsed generatedQuiz
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// isWellFormed проверяет, что ответ модели соответствует структуре без ремонта
func isWellFormed(g *generatedQuiz, questionCount int) bool {
	if len(g.Questions) != questionCount {
		return false
	}
	for _, q := range g.Questions {
		if !isUsable(q) {
			return false
		}
		if len(q.Options) != entity.OptionsPerQuestion {
			return false
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return false
		}
	}
	return true
}

// isUsable — вопрос пригоден как материал для ремонта: есть текст
// и хотя бы два варианта
func isUsable(q generatedQuestion) bool {
	return strings.TrimSpace(q.Text) != "" && len(q.Options) >= 2
}

func usableQuestions(g *generatedQuiz) int {
	count := 0
	for _, q := range g.Questions {
		if isUsable(q) {
			count++
		}
	}
	return count
}

// buildModule приводит ответ модели к доменной структуре, выполняя
// при необходимости детерминированный ремонт:
//   - лишние вопросы отбрасываются;
//   - недостающие добираются помеченными дубликатами имеющихся;
//   - варианты обрезаются/добираются до 4 с идентификаторами "A".."D";
//   - невалидный индекс правильного ответа принудительно указывает
//     на первый вариант.
func buildModule(g *generatedQuiz, sourceText string, questionCount int) []entity.Module {
	usable := make([]generatedQuestion, 0, len(g.Questions))
	for _, q := range g.Questions {
		if isUsable(q) {
			usable = append(usable, q)
		}
	}

	// Обрезаем лишнее
	if len(usable) > questionCount {
		usable = usable[:questionCount]
	}

	// Добираем недостающее помеченными дубликатами оригинальных вопросов по кругу
	original := len(usable)
	for i := 0; len(usable) < questionCount; i++ {
		dup := usable[i%original]
		dup.Text = dup.Text + " (review)"
		usable = append(usable, dup)
	}

	title := strings.TrimSpace(g.ModuleTitle)
	if title == "" {
		title = "Module 1"
	}

	questions := make([]entity.Question, 0, questionCount)
	for _, q := range usable {
		questions = append(questions, buildQuestion(q))
	}

	return []entity.Module{{
		Title:     title,
		Content:   sourceText,
		Questions: questions,
	}}
}

// buildQuestion нормализует один вопрос до ровно 4 вариантов "A".."D"
func buildQuestion(q generatedQuestion) entity.Question {
	opts := q.Options
	if len(opts) > entity.OptionsPerQuestion {
		opts = opts[:entity.OptionsPerQuestion]
	}

	ids := entity.OptionIDs()
	options := make(entity.OptionArray, 0, entity.OptionsPerQuestion)
	for i := 0; i < entity.OptionsPerQuestion; i++ {
		text := ""
		if i < len(opts) {
			text = strings.TrimSpace(opts[i])
		}
		if text == "" {
			text = fmt.Sprintf("Option %s", ids[i])
		}
		options = append(options, entity.Option{ID: ids[i], Text: text})
	}

	correct := q.CorrectIndex
	if correct < 0 || correct >= entity.OptionsPerQuestion {
		correct = 0
	}

	return entity.Question{
		Text:            strings.TrimSpace(q.Text),
		Options:         options,
		CorrectOptionID: ids[correct],
	}
}
