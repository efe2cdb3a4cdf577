package report

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/yourusername/quizgen-api/internal/domain/entity"
)

// Data — входные данные рендерера отчета. Рендерер — чистая функция этих
// данных: никакого доступа к БД или сети.
type Data struct {
	UserName   string
	CourseName string
	Modules    []entity.Module
	Results    map[uint]entity.ModuleResult
}

// Геометрия страницы A4 в миллиметрах
const (
	pageLeft     = 15.0
	pageRight    = 195.0
	pageBottom   = 277.0
	contentW     = pageRight - pageLeft
	lineH        = 5.0
	optionIndent = 8.0
	markerR      = 1.8

	// Минимальный зазор до низа страницы перед началом нового модуля
	moduleBreakThreshold = 40.0
)

// marker — вид значка напротив варианта ответа
type marker int

const (
	markerNeutral marker = iota
	markerCorrectSelected
	markerIncorrectSelected
	markerCorrectUnselected
	markerTimeout
)

// markerFor выбирает значок для варианта ответа.
// Приоритет: ответ-сентинел таймаута помечает только правильный вариант
// значком таймаута, остальные варианты нейтральны. Иначе выбранный вариант
// получает значок правильно/неправильно, а невыбранный правильный —
// отдельный значок.
func markerFor(answer entity.AnswerRecord, optionID, correctOptionID string) marker {
	if answer.SelectedOptionID == entity.AnswerTimeout {
		if optionID == correctOptionID {
			return markerTimeout
		}
		return markerNeutral
	}

	if optionID == answer.SelectedOptionID {
		if optionID == correctOptionID {
			return markerCorrectSelected
		}
		return markerIncorrectSelected
	}
	if optionID == correctOptionID {
		return markerCorrectUnselected
	}
	return markerNeutral
}

// legendEntries — пять пунктов легенды в порядке отображения
var legendEntries = []struct {
	m     marker
	label string
}{
	{markerCorrectSelected, "Your answer (correct)"},
	{markerIncorrectSelected, "Your answer (incorrect)"},
	{markerCorrectUnselected, "Correct answer (not selected)"},
	{markerTimeout, "Time expired (correct answer shown)"},
	{markerNeutral, "Not selected"},
}

// Render генерирует PDF-отчет по результатам попытки.
// Структурно пустой вход (нет модулей) дает минимальный документ-заглушку,
// а не ошибку: пользователь в любом случае получает файл.
func Render(data Data) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(pageLeft, 15, pageLeft)
	pdf.SetAutoPageBreak(false, 20)

	generatedAt := time.Now()
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		footer := fmt.Sprintf("Generated on %s", generatedAt.Format("2006-01-02 15:04"))
		pdf.CellFormat(contentW/2, 5, tr(footer), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW/2, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()

	if len(data.Modules) == 0 {
		log.Printf("[Report] Пустые данные отчета для '%s' — выдаём документ-заглушку", data.UserName)
		renderEmptyDocument(pdf, tr, data)
		return output(pdf)
	}

	renderHeader(pdf, tr, data)
	renderLegend(pdf, tr)

	for mi := range data.Modules {
		module := &data.Modules[mi]
		result, ok := data.Results[module.ID]
		if !ok {
			continue
		}
		renderModule(pdf, tr, module, result)
	}

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// renderEmptyDocument — минимальный документ для структурно пустого отчета
func renderEmptyDocument(pdf *gofpdf.Fpdf, tr func(string) string, data Data) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(contentW, 10, tr("Quiz Results"), "", 1, "C", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	name := data.UserName
	if name == "" {
		name = "Unknown user"
	}
	pdf.CellFormat(contentW, lineH, tr(name), "", 1, "C", false, 0, "")
	pdf.Ln(10)
	pdf.SetTextColor(160, 40, 40)
	pdf.MultiCell(contentW, lineH, tr("No quiz data is available for this report."), "", "C", false)
}

// renderHeader рисует титульную полосу, общий процент и качественную оценку
func renderHeader(pdf *gofpdf.Fpdf, tr func(string) string, data Data) {
	pdf.SetFillColor(41, 70, 122)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 12, tr(fmt.Sprintf("Quiz Results: %s", ExtractDisplayText(data.CourseName))), "", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(contentW, 9, tr(data.UserName), "", 1, "C", true, 0, "")
	pdf.Ln(4)

	overall := entity.OverallPercentage(data.Results)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(contentW, 12, fmt.Sprintf("%.1f%%", overall), "", 1, "C", false, 0, "")

	// Качественная оценка по порогам итогового процента
	banner, r, g, b := qualitativeBanner(overall)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(r, g, b)
	pdf.CellFormat(contentW, 8, tr(banner), "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(3)
}

func qualitativeBanner(overall float64) (string, int, int, int) {
	switch {
	case overall >= 90:
		return "Outstanding work!", 34, 139, 34
	case overall >= 70:
		return "Good job!", 184, 134, 11
	default:
		return "Keep practicing!", 178, 34, 34
	}
}

// renderLegend рисует легенду из пяти значков
func renderLegend(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, tr("Legend"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)

	for _, entry := range legendEntries {
		y := pdf.GetY()
		drawMarker(pdf, pageLeft+3, y+lineH/2, entry.m)
		pdf.SetX(pageLeft + optionIndent)
		pdf.CellFormat(contentW-optionIndent, lineH, tr(entry.label), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

// drawMarker рисует значок как векторную фигуру: заливка и контур различают
// виды ответов без использования шрифтовых символов
func drawMarker(pdf *gofpdf.Fpdf, x, y float64, m marker) {
	switch m {
	case markerCorrectSelected:
		pdf.SetFillColor(34, 139, 34)
		pdf.SetDrawColor(34, 139, 34)
		pdf.Circle(x, y, markerR, "FD")
	case markerIncorrectSelected:
		pdf.SetFillColor(178, 34, 34)
		pdf.SetDrawColor(178, 34, 34)
		pdf.Circle(x, y, markerR, "FD")
	case markerCorrectUnselected:
		pdf.SetDrawColor(34, 139, 34)
		pdf.SetLineWidth(0.5)
		pdf.Circle(x, y, markerR, "D")
		pdf.SetLineWidth(0.2)
	case markerTimeout:
		pdf.SetFillColor(230, 145, 20)
		pdf.SetDrawColor(230, 145, 20)
		pdf.Circle(x, y, markerR, "FD")
	default:
		pdf.SetDrawColor(170, 170, 170)
		pdf.Circle(x, y, markerR, "D")
	}
	pdf.SetDrawColor(0, 0, 0)
}

// renderModule рисует заголовок модуля и все его вопросы
func renderModule(pdf *gofpdf.Fpdf, tr func(string) string, module *entity.Module, result entity.ModuleResult) {
	// Заголовок модуля не должен оказаться у самого низа страницы
	if pageBottom-pdf.GetY() < moduleBreakThreshold {
		pdf.AddPage()
	}

	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetFillColor(235, 238, 245)
	title := fmt.Sprintf("%s  -  %d/%d (%.1f%%)",
		ExtractDisplayText(module.Title), result.CorrectAnswers, result.TotalQuestions, result.Percentage())
	pdf.CellFormat(contentW, 9, tr(title), "", 1, "L", true, 0, "")
	pdf.Ln(2)

	answerByQuestion := make(map[uint]entity.AnswerRecord, len(result.Answers))
	for _, a := range result.Answers {
		answerByQuestion[a.QuestionID] = a
	}

	for qi := range module.Questions {
		question := &module.Questions[qi]
		answer, ok := answerByQuestion[question.ID]
		if !ok {
			continue
		}
		renderQuestion(pdf, tr, qi+1, question, answer)
	}
	pdf.Ln(3)
}

// renderQuestion рисует один вопрос с вариантами. Блок вопроса измеряется
// целиком до вывода: вопрос никогда не разрывается между страницами.
func renderQuestion(pdf *gofpdf.Fpdf, tr func(string) string, number int, question *entity.Question, answer entity.AnswerRecord) {
	questionText := tr(fmt.Sprintf("%d. %s", number, ExtractDisplayText(question.Text)))

	blockH := measureQuestionBlock(pdf, questionText, question, tr)
	if pdf.GetY()+blockH > pageBottom {
		pdf.AddPage()
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.MultiCell(contentW, lineH, questionText, "", "L", false)

	pdf.SetFont("Helvetica", "", 9)
	for _, opt := range question.Options {
		optText := tr(fmt.Sprintf("%s. %s", opt.ID, ExtractDisplayText(opt.Text)))
		y := pdf.GetY()
		drawMarker(pdf, pageLeft+3, y+lineH/2, markerFor(answer, opt.ID, question.CorrectOptionID))
		pdf.SetX(pageLeft + optionIndent)
		pdf.MultiCell(contentW-optionIndent, lineH, optText, "", "L", false)
	}

	// Аннотация таймаута только для ответа-сентинела
	if answer.SelectedOptionID == entity.AnswerTimeout {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(230, 145, 20)
		pdf.SetX(pageLeft + optionIndent)
		pdf.CellFormat(contentW-optionIndent, 4, tr("Time expired - no answer was given"), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.Ln(3)
}

// measureQuestionBlock вычисляет высоту блока вопроса с учётом переносов строк
func measureQuestionBlock(pdf *gofpdf.Fpdf, questionText string, question *entity.Question, tr func(string) string) float64 {
	pdf.SetFont("Helvetica", "B", 10)
	h := float64(len(pdf.SplitLines([]byte(questionText), contentW))) * lineH

	pdf.SetFont("Helvetica", "", 9)
	for _, opt := range question.Options {
		optText := tr(fmt.Sprintf("%s. %s", opt.ID, ExtractDisplayText(opt.Text)))
		h += float64(len(pdf.SplitLines([]byte(optText), contentW-optionIndent))) * lineH
	}

	if question.CorrectOptionID != "" {
		// Возможная аннотация таймаута
		h += 4
	}
	// Отступ после блока
	return h + 3
}
