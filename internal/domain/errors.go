package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Базовые (sentinel) ошибки. Конкретные типы ниже сопоставляются с ними через errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrAuthentication   = errors.New("authentication failed")
	ErrFetch            = errors.New("fetch failed")
	ErrUpdate           = errors.New("update failed")
	ErrNetwork          = errors.New("network failure")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ValidationError — ошибки по полям (ответ 422 или локальная проверка ввода),
// собранные в одно сообщение.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError — ошибка с одним полем.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Add — добавить сообщение к полю.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty — true, если ни одной ошибки не добавлено.
func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

// Messages — все сообщения в детерминированном порядке (по имени поля).
func (e *ValidationError) Messages() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, e.Fields[name]...)
	}
	return out
}

func (e *ValidationError) Error() string {
	return "Validation failed: " + strings.Join(e.Messages(), ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// APIError — ответ бэкенда со статусом >= 400.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// NetworkError — сбой транспорта (нет ответа от сервера).
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork || target == ErrFetch
}

// AuthenticationError — неудачный вход/регистрация/сброс пароля.
// Message предназначен для показа пользователю как есть.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string        { return e.Message }
func (e *AuthenticationError) Unwrap() error        { return e.Err }
func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// FetchError — неудачное чтение (пользователь, настройки, справочники).
type FetchError struct {
	Message string
	Err     error
}

func (e *FetchError) Error() string        { return e.Message }
func (e *FetchError) Unwrap() error        { return e.Err }
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// UpdateError — неудачная запись (настройки, логотип, QR-код оплаты).
type UpdateError struct {
	Message string
	Err     error
}

func (e *UpdateError) Error() string        { return e.Message }
func (e *UpdateError) Unwrap() error        { return e.Err }
func (e *UpdateError) Is(target error) bool { return target == ErrUpdate }

// BackendMessage — сообщение бэкенда из цепочки ошибок, если оно есть.
func BackendMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}
