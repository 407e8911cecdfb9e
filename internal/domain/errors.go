package domain

import (
	"errors"
	"fmt"
)

// ProviderErrorKind — класс отказа провайдера.
type ProviderErrorKind string

const (
	ProviderErrTransport ProviderErrorKind = "transport"
	ProviderErrStatus    ProviderErrorKind = "non-success-status"
	ProviderErrParse     ProviderErrorKind = "parse-error"
)

// ProviderError — любой отказ клиента провайдера. Всегда обрабатывается локально
// оркестратором и превращается в stale или unavailable-error.
type ProviderError struct {
	Kind       ProviderErrorKind
	StatusCode int // только для ProviderErrStatus
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Kind == ProviderErrStatus && e.Err != nil:
		return fmt.Sprintf("provider %s %d: %v", e.Kind, e.StatusCode, e.Err)
	case e.Kind == ProviderErrStatus:
		return fmt.Sprintf("provider %s %d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("provider %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("provider %s", e.Kind)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewTransportError — сетевой отказ, отмена контекста или разомкнутый breaker.
func NewTransportError(err error) *ProviderError {
	return &ProviderError{Kind: ProviderErrTransport, Err: err}
}

// NewStatusError — ответ провайдера с не-2xx кодом.
func NewStatusError(code int, err error) *ProviderError {
	return &ProviderError{Kind: ProviderErrStatus, StatusCode: code, Err: err}
}

// NewParseError — тело ответа не удалось разобрать.
func NewParseError(err error) *ProviderError {
	return &ProviderError{Kind: ProviderErrParse, Err: err}
}

// ProviderErrorKindOf — класс ошибки для метрик и логов; "" если это не ProviderError.
func ProviderErrorKindOf(err error) ProviderErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
