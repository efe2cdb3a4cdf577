package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/quizgen-api/internal/pkg/errors"
	"github.com/yourusername/quizgen-api/internal/service"
	"github.com/yourusername/quizgen-api/internal/service/attempt"
)

// AttemptHandler обрабатывает события попыток прохождения викторин.
// Каждое событие возвращает свежий снимок состояния: клиент всегда может
// восстановить интерфейс из ответа последнего запроса.
type AttemptHandler struct {
	attemptManager *service.AttemptManager
}

// NewAttemptHandler создает новый обработчик попыток
func NewAttemptHandler(attemptManager *service.AttemptManager) *AttemptHandler {
	return &AttemptHandler{attemptManager: attemptManager}
}

// StartAttempt создает новую попытку прохождения викторины
// POST /api/quizzes/:id/attempts
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	a, err := h.attemptManager.StartAttempt(quizID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusCreated, a.Snapshot())
}

// GetAttempt возвращает снимок состояния попытки (resync после перезагрузки)
// GET /api/attempts/:aid
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	a, err := h.attemptManager.Get(c.MustGet("attemptID").(string))
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.Snapshot())
}

// SetNameRequest представляет запрос на установку имени пользователя
type SetNameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// SetName фиксирует имя пользователя
// POST /api/attempts/:aid/name
func (h *AttemptHandler) SetName(c *gin.Context) {
	var req SetNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.applyEvent(c, func(a *attempt.Attempt) error {
		return a.SetName(req.Name)
	})
}

// Begin переводит попытку от чтения контента к первому вопросу
// POST /api/attempts/:aid/begin
func (h *AttemptHandler) Begin(c *gin.Context) {
	h.applyEvent(c, func(a *attempt.Attempt) error {
		return a.Begin()
	})
}

// SelectOptionRequest представляет запрос на предварительный выбор варианта
type SelectOptionRequest struct {
	OptionID string `json:"option_id" binding:"required,min=1,max=4"`
}

// SelectOption записывает предварительный выбор варианта
// POST /api/attempts/:aid/select
func (h *AttemptHandler) SelectOption(c *gin.Context) {
	var req SelectOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.applyEvent(c, func(a *attempt.Attempt) error {
		return a.SelectOption(req.OptionID)
	})
}

// Submit фиксирует текущий выбор как окончательный ответ
// POST /api/attempts/:aid/submit
func (h *AttemptHandler) Submit(c *gin.Context) {
	h.applyEvent(c, func(a *attempt.Attempt) error {
		return a.Submit()
	})
}

// Advance переводит попытку к следующему вопросу либо завершает её
// POST /api/attempts/:aid/advance
func (h *AttemptHandler) Advance(c *gin.Context) {
	h.applyEvent(c, func(a *attempt.Attempt) error {
		return a.Advance()
	})
}

// Resubmit повторяет отправку результата после ошибки хранилища
// POST /api/attempts/:aid/resubmit
func (h *AttemptHandler) Resubmit(c *gin.Context) {
	h.applyEvent(c, func(a *attempt.Attempt) error {
		return a.Resubmit()
	})
}

// applyEvent применяет событие к попытке и возвращает свежий снимок
func (h *AttemptHandler) applyEvent(c *gin.Context, event func(*attempt.Attempt) error) {
	a, err := h.attemptManager.Get(c.MustGet("attemptID").(string))
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	if err := event(a); err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, a.Snapshot())
}

// handleAttemptError преобразует доменные ошибки в HTTP-статусы
func (h *AttemptHandler) handleAttemptError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrStore) {
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "retryable": true})
	} else {
		log.Printf("ERROR: Internal server error in AttemptHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
