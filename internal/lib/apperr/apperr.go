// Package apperr описывает доменную таксономию ошибок сервиса.
//
// Сервисы возвращают *Error для ожидаемых доменных исходов (валидация, не найдено,
// нет прав, конфликт). Любая другая ошибка считается внутренней: HTTP-слой отвечает
// на неё 500 с общим сообщением, не раскрывая деталей хранилища.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind класс доменной ошибки.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindNotFound     Kind = "NOT_FOUND"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Error доменная ошибка с классом и безопасным для клиента сообщением.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap возвращает исходную ошибку для errors.Is и errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation создаёт ошибку валидации входных данных.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound создаёт ошибку отсутствующего ресурса.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Unauthorized создаёт ошибку неуспешной аутентификации.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Forbidden создаёт ошибку недостаточных прав.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Conflict создаёт ошибку конфликта (дубликат ключа идемпотентности и т.п.).
func Conflict(msg string, err error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

// KindOf возвращает класс ошибки; для ошибок вне таксономии KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is сообщает, относится ли ошибка к классу kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus сопоставляет ошибке HTTP-статус.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage возвращает сообщение, которое можно показать клиенту.
// Для внутренних ошибок детали скрываются.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
