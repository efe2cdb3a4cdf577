package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных
	// и структуры викторины (неверное количество вопросов/вариантов и т.п.).
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния
	// (например, повторная отправка результата той же попытки).
	ErrConflict = errors.New("resource state conflict")

	// ErrGeneration используется, когда внешний сервис генерации вернул
	// непригодный ответ и структурный ремонт невозможен.
	ErrGeneration = errors.New("quiz generation failed")

	// ErrStore используется для сетевых ошибок хранилища результатов.
	// Такие ошибки ретраябельны и никогда не фатальны для локального состояния.
	ErrStore = errors.New("result store unavailable")
)
