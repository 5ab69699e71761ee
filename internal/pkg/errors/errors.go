package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены
	// (или не видны вызывающему пользователю).
	ErrNotFound = errors.New("record not found")

	// ErrConflict используется для конфликтов состояния: пользователь уже
	// в активной дуэли, уже присоединился, уже отправил ответы.
	ErrConflict = errors.New("resource state conflict")

	// ErrInvalidState используется, когда действие выполняется над дуэлью
	// не в требуемом статусе (например, отправка ответов в не-ONGOING дуэль).
	ErrInvalidState = errors.New("invalid state for requested action")

	// ErrValidation используется для ошибок валидации входных данных:
	// ответ на чужой вопрос, несовпадение темы, недостаточно вопросов.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен).
	ErrUnauthorized = errors.New("unauthorized")
)
