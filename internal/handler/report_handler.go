package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizgen-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizgen-api/internal/pkg/errors"
	"github.com/yourusername/quizgen-api/internal/report"
	"github.com/yourusername/quizgen-api/internal/service"
)

// ReportHandler отдаёт PDF-отчеты по результатам попыток
type ReportHandler struct {
	attemptManager *service.AttemptManager
	quizService    *service.QuizService
	resultService  *service.ResultService
}

// NewReportHandler создает новый обработчик отчетов
func NewReportHandler(
	attemptManager *service.AttemptManager,
	quizService *service.QuizService,
	resultService *service.ResultService,
) *ReportHandler {
	return &ReportHandler{
		attemptManager: attemptManager,
		quizService:    quizService,
		resultService:  resultService,
	}
}

// AttemptReport отдаёт PDF по локальному результату завершённой попытки.
// Работает даже если отправка результата в хранилище не удалась.
// GET /api/attempts/:aid/report
func (h *ReportHandler) AttemptReport(c *gin.Context) {
	a, err := h.attemptManager.Get(c.MustGet("attemptID").(string))
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	userName, courseName, modules, results, err := a.ReportData()
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	h.renderPDF(c, report.Data{
		UserName:   userName,
		CourseName: courseName,
		Modules:    modules,
		Results:    results,
	})
}

// SubmissionReport отдаёт PDF по сохранённому результату (админский просмотр)
// GET /api/quizzes/:id/submissions/:sid/report
func (h *ReportHandler) SubmissionReport(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	submissionID := c.MustGet("submissionID").(uint)

	submission, err := h.resultService.GetSubmission(submissionID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	if submission.QuizID != quizID {
		h.handleReportError(c, fmt.Errorf("%w: submission %d does not belong to quiz %d", apperrors.ErrNotFound, submissionID, quizID))
		return
	}

	quiz, err := h.quizService.GetQuizWithModules(quizID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	// Восстанавливаем результаты по модулям из сохранённых записей ответов
	results := make(map[uint]entity.ModuleResult, len(quiz.Modules))
	for i := range quiz.Modules {
		moduleID := quiz.Modules[i].ID
		results[moduleID] = entity.ComputeModuleResult(moduleID, submission.Answers)
	}

	h.renderPDF(c, report.Data{
		UserName:   submission.UserName,
		CourseName: quiz.CourseName,
		Modules:    quiz.Modules,
		Results:    results,
	})
}

// renderPDF генерирует документ и отдаёт его как attachment
func (h *ReportHandler) renderPDF(c *gin.Context, data report.Data) {
	pdfBytes, err := report.Render(data)
	if err != nil {
		log.Printf("[ReportHandler] Ошибка генерации PDF для '%s': %v", data.UserName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render report"})
		return
	}

	filename := report.FileName(data.UserName)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// handleReportError преобразует доменные ошибки в HTTP-статусы
func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in ReportHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
