package attempt

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/quizgen-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizgen-api/internal/pkg/errors"
)

// Attempt представляет одно прохождение викторины одним пользователем.
// Все состояние попытки локально: параллельные попытки разных пользователей
// не разделяют никаких изменяемых данных.
//
// Переходы состояний:
//
//	AwaitingName → ReadingContent → Answering(i) → Submitted(i) → Answering(i+1) → … → Complete
//
// Answering(i) → Submitted(i) происходит по явному Submit или по истечению таймера.
type Attempt struct {
	ID         string
	QuizID     uint
	CourseName string

	config *Config
	deps   *Dependencies

	mu       sync.Mutex
	quiz     *entity.Quiz
	sequence []questionRef // Сквозная последовательность вопросов по всем модулям
	userName string

	state State
	index int // Индекс текущего вопроса в sequence

	// epoch инкрементируется при каждом входе в вопрос.
	// Тик таймера с несовпадающим epoch отбрасывается — это защита
	// от устаревших тиков предыдущего вопроса.
	epoch        int
	remainingSec int
	tentative    string   // Предварительный выбор (может меняться до фиксации)
	optionOrder  []string // Перемешанный порядок показа вариантов текущего вопроса
	feedback     Feedback

	answers []entity.AnswerRecord
	results map[uint]entity.ModuleResult

	// Отправка результата: ровно один исходящий вызов одновременно
	submitting  bool
	submitted   bool
	submitError error

	lastActivity time.Time
	rng          *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc
}

// New создает новую попытку для опубликованной викторины.
// Викторина должна быть предварительно провалидирована вызывающей стороной.
func New(id string, quiz *entity.Quiz, config *Config, deps *Dependencies) *Attempt {
	ctx, cancel := context.WithCancel(context.Background())

	a := &Attempt{
		ID:           id,
		QuizID:       quiz.ID,
		CourseName:   quiz.CourseName,
		config:       config,
		deps:         deps,
		quiz:         quiz,
		state:        StateAwaitingName,
		index:        -1,
		lastActivity: time.Now(),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:          ctx,
		cancel:       cancel,
	}

	// Строим сквозную последовательность вопросов
	for mi := range quiz.Modules {
		module := &quiz.Modules[mi]
		for qi := range module.Questions {
			a.sequence = append(a.sequence, questionRef{
				module:   module,
				question: &module.Questions[qi],
			})
		}
	}

	// Заготовки записей ответов: SelectedOptionID пуст, пока ответ не зафиксирован
	a.answers = make([]entity.AnswerRecord, len(a.sequence))
	for i, ref := range a.sequence {
		a.answers[i] = entity.AnswerRecord{
			QuestionID: ref.question.ID,
			ModuleID:   ref.module.ID,
		}
	}

	return a
}

// SetName фиксирует имя пользователя и переводит попытку к чтению контента
func (a *Attempt) SetName(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touch()

	if a.state != StateAwaitingName {
		return fmt.Errorf("%w: name already set", apperrors.ErrConflict)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", apperrors.ErrValidation)
	}

	a.userName = name
	a.state = StateReadingContent
	log.Printf("[Attempt %s] Пользователь '%s' начал попытку по викторине #%d", a.ID, name, a.QuizID)
	return nil
}

// Begin переводит попытку от чтения контента к первому вопросу
func (a *Attempt) Begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touch()

	if a.state != StateReadingContent {
		return fmt.Errorf("%w: attempt is not in reading state", apperrors.ErrConflict)
	}
	if len(a.sequence) == 0 {
		return fmt.Errorf("%w: quiz has no questions", apperrors.ErrValidation)
	}

	a.enterQuestion(0)
	return nil
}

// SelectOption записывает предварительный выбор варианта.
// Выбор можно менять сколько угодно раз до фиксации ответа.
// После фиксации (Submitted) вызов молча игнорируется — это не ошибка.
func (a *Attempt) SelectOption(optionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touch()

	if a.state == StateSubmitted {
		// Ответ уже зафиксирован — поглощаем как no-op
		return nil
	}
	if a.state != StateAnswering {
		return fmt.Errorf("%w: no active question", apperrors.ErrConflict)
	}

	question := a.sequence[a.index].question
	if !question.HasOption(optionID) {
		return fmt.Errorf("%w: unknown option id %q", apperrors.ErrValidation, optionID)
	}

	a.tentative = optionID
	return nil
}

// Submit фиксирует текущий предварительный выбор как окончательный ответ.
// Требует наличия предварительного выбора.
func (a *Attempt) Submit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touch()

	if a.state != StateAnswering {
		return fmt.Errorf("%w: no active question to submit", apperrors.ErrConflict)
	}
	if a.tentative == "" {
		return fmt.Errorf("%w: an option must be selected before submitting", apperrors.ErrValidation)
	}

	a.recordAnswer(a.tentative, false)
	return nil
}

// Advance переводит попытку к следующему вопросу либо, если текущий вопрос
// был последним, подсчитывает итог и переходит в Complete.
// Вход в Complete запускает ровно один вызов отправки результата в хранилище.
func (a *Attempt) Advance() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touch()

	if a.submitting {
		// Отправка результата уже идёт — повторный вход запрещён
		return fmt.Errorf("%w: result submission is in progress", apperrors.ErrConflict)
	}
	if a.state != StateSubmitted {
		return fmt.Errorf("%w: current question is not submitted", apperrors.ErrConflict)
	}

	if a.index+1 < len(a.sequence) {
		a.enterQuestion(a.index + 1)
		return nil
	}

	a.complete()
	return nil
}

// Resubmit повторяет отправку результата после неудачи.
// Если результат уже отправлен или отправка идёт — no-op/конфликт соответственно.
func (a *Attempt) Resubmit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.touch()

	if a.state != StateComplete {
		return fmt.Errorf("%w: attempt is not complete", apperrors.ErrConflict)
	}
	if a.submitting {
		return fmt.Errorf("%w: result submission is in progress", apperrors.ErrConflict)
	}
	if a.submitted {
		// Уже успешно отправлено — поглощаем как no-op
		return nil
	}

	a.startSubmission()
	return nil
}

// enterQuestion выполняет вход в вопрос index: свежая перетасовка вариантов,
// полный сброс таймера и новый epoch. Вызывается под мьютексом.
func (a *Attempt) enterQuestion(index int) {
	a.index = index
	a.state = StateAnswering
	a.tentative = ""
	a.feedback = FeedbackNone
	a.remainingSec = a.config.QuestionTimeSec
	a.epoch++

	// Свежая равномерная перетасовка при КАЖДОМ входе в вопрос
	question := a.sequence[index].question
	a.optionOrder = make([]string, len(question.Options))
	for i, opt := range question.Options {
		a.optionOrder[i] = opt.ID
	}
	a.rng.Shuffle(len(a.optionOrder), func(i, j int) {
		a.optionOrder[i], a.optionOrder[j] = a.optionOrder[j], a.optionOrder[i]
	})

	// Запускаем обратный отсчет для этого входа в вопрос
	go a.runCountdown(a.epoch)
}

// runCountdown тикает каждую секунду, пока вопрос активен.
// Тик с несовпадающим epoch означает, что вопрос уже сменился — отбрасываем.
func (a *Attempt) runCountdown(epoch int) {
	ticker := time.NewTicker(a.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.mu.Lock()
			// Защита от устаревших тиков: epoch другой — этот отсчет мертв
			if epoch != a.epoch {
				a.mu.Unlock()
				return
			}
			// Ответ зафиксирован — таймер логически приостановлен
			if a.state != StateAnswering {
				a.mu.Unlock()
				return
			}

			a.remainingSec--
			if a.remainingSec <= 0 {
				a.remainingSec = 0
				a.handleTimeout()
				a.mu.Unlock()
				return
			}
			a.mu.Unlock()

		case <-a.ctx.Done():
			return
		}
	}
}

// handleTimeout обрабатывает истечение таймера. Вызывается под мьютексом.
// Если предварительный выбор есть — он сохраняется как окончательный ответ;
// таймаут не стирает сделанный выбор. Без выбора записывается сентинел.
func (a *Attempt) handleTimeout() {
	if a.tentative != "" {
		log.Printf("[Attempt %s] Таймаут вопроса %d, сохранён предварительный выбор %q", a.ID, a.index+1, a.tentative)
		a.recordAnswer(a.tentative, true)
		return
	}
	log.Printf("[Attempt %s] Таймаут вопроса %d без выбора", a.ID, a.index+1)
	a.recordAnswer(entity.AnswerTimeout, true)
}

// recordAnswer фиксирует окончательный ответ на текущий вопрос и переводит
// его в терминальное состояние Submitted. Вызывается под мьютексом.
func (a *Attempt) recordAnswer(selectedOptionID string, timedOut bool) {
	question := a.sequence[a.index].question

	record := &a.answers[a.index]
	record.SelectedOptionID = selectedOptionID
	record.IsCorrect = question.IsCorrect(selectedOptionID)
	record.TimedOut = timedOut

	a.state = StateSubmitted

	switch {
	case timedOut && selectedOptionID == entity.AnswerTimeout:
		a.feedback = FeedbackTimeoutNoSelection
	case timedOut:
		a.feedback = FeedbackTimeoutWithSelection
	case record.IsCorrect:
		a.feedback = FeedbackCorrect
	default:
		a.feedback = FeedbackIncorrect
	}
}

// complete подсчитывает итоговые результаты по всем модулям и запускает
// отправку в хранилище. Вызывается под мьютексом.
func (a *Attempt) complete() {
	a.state = StateComplete
	a.epoch++ // Инвалидируем возможные тики последнего вопроса

	a.results = make(map[uint]entity.ModuleResult, len(a.quiz.Modules))
	for mi := range a.quiz.Modules {
		moduleID := a.quiz.Modules[mi].ID
		a.results[moduleID] = entity.ComputeModuleResult(moduleID, a.answers)
	}

	log.Printf("[Attempt %s] Попытка завершена: %s", a.ID, a.scoreLine())
	a.startSubmission()
}

// startSubmission запускает единственный исходящий вызов отправки результата.
// Неудача отправки НЕ откатывает состояние Complete: локальный результат
// сохраняется, пользователь может повторить отправку или скачать отчет.
// Вызывается под мьютексом.
func (a *Attempt) startSubmission() {
	a.submitting = true
	a.submitError = nil
	submission := a.buildSubmission()

	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, 15*time.Second)
		defer cancel()

		err := a.deps.Submitter.SubmitResult(ctx, submission)

		a.mu.Lock()
		defer a.mu.Unlock()
		a.submitting = false
		if err != nil {
			a.submitError = err
			log.Printf("[Attempt %s] Ошибка отправки результата: %v", a.ID, err)
			return
		}
		a.submitted = true
		a.submitError = nil
		log.Printf("[Attempt %s] Результат успешно отправлен в хранилище", a.ID)
	}()
}

// buildSubmission формирует запись для хранилища результатов. Вызывается под мьютексом.
func (a *Attempt) buildSubmission() *entity.Submission {
	total, correct := 0, 0
	for _, r := range a.results {
		total += r.TotalQuestions
		correct += r.CorrectAnswers
	}

	answers := make(entity.AnswerRecordArray, len(a.answers))
	copy(answers, a.answers)

	return &entity.Submission{
		QuizID:           a.QuizID,
		AttemptID:        a.ID,
		UserName:         a.userName,
		TotalQuestions:   total,
		CorrectAnswers:   correct,
		IncorrectAnswers: total - correct,
		Answers:          answers,
		CompletedAt:      time.Now(),
	}
}

func (a *Attempt) scoreLine() string {
	total, correct := 0, 0
	for _, r := range a.results {
		total += r.TotalQuestions
		correct += r.CorrectAnswers
	}
	return fmt.Sprintf("%d/%d правильных", correct, total)
}

// touch обновляет время последней активности. Вызывается под мьютексом.
func (a *Attempt) touch() {
	a.lastActivity = time.Now()
}

// LastActivity возвращает время последнего события попытки
func (a *Attempt) LastActivity() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastActivity
}

// Close останавливает таймеры и фоновые горутины попытки
func (a *Attempt) Close() {
	a.cancel()
}

// ReportData возвращает данные для генерации отчета по локальному результату.
// Доступно только после завершения попытки — даже если отправка в хранилище
// не удалась, локальный результат остаётся доступным.
func (a *Attempt) ReportData() (userName, courseName string, modules []entity.Module, results map[uint]entity.ModuleResult, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateComplete {
		return "", "", nil, nil, fmt.Errorf("%w: attempt is not complete", apperrors.ErrConflict)
	}

	resultsCopy := make(map[uint]entity.ModuleResult, len(a.results))
	for k, v := range a.results {
		resultsCopy[k] = v
	}
	return a.userName, a.CourseName, a.quiz.Modules, resultsCopy, nil
}
