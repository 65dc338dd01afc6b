package xerrors

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindInsufficientData  Kind = "insufficient_data"
	KindContractViolation Kind = "contract_violation"
	KindNotFound          Kind = "not_found"
	KindUnavailable       Kind = "unavailable"
	KindRateLimited       Kind = "rate_limited"
	KindInternal          Kind = "internal"
)

type Error struct {
	Kind       Kind
	Message    string
	Cause      error
	Validation *ValidationInfo
}

type ValidationInfo struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so callers can test
// errors.Is(err, xerrors.ErrContractViolation).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrContractViolation = &Error{Kind: KindContractViolation}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

func InvalidInput(opts ...Option) *Error      { return newErr(KindInvalidInput, opts) }
func InsufficientData(opts ...Option) *Error  { return newErr(KindInsufficientData, opts) }
func ContractViolation(opts ...Option) *Error { return newErr(KindContractViolation, opts) }
func NotFound(opts ...Option) *Error          { return newErr(KindNotFound, opts) }
func Unavailable(opts ...Option) *Error       { return newErr(KindUnavailable, opts) }
func Internal(opts ...Option) *Error          { return newErr(KindInternal, opts) }
func RateLimited(opts ...Option) *Error       { return newErr(KindRateLimited, opts) }

func Validation(fields map[string]string, opts ...Option) *Error {
	e := newErr(KindInvalidInput, opts)
	e.Validation = &ValidationInfo{Fields: fields}
	return e
}

func newErr(kind Kind, opts []Option) *Error {
	e := &Error{Kind: kind, Message: strings.ReplaceAll(string(kind), "_", " ")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type Option func(*Error)

func WithMessage(msg string) Option { return func(e *Error) { e.Message = msg } }
func WithCause(err error) Option    { return func(e *Error) { e.Cause = err } }

func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func IsKind(err error, kind Kind) bool {
	e := As(err)
	return e != nil && e.Kind == kind
}
