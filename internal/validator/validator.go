package validator

import (
	"fmt"

	"github.com/du-phan/resilio/internal/xerrors"
)

type Validator interface {
	// Validate validates the fields of the struct and returns a map of errors.
	// returns nil if no errors are found
	Validate() map[string]string
}

func Validate(v Validator) *xerrors.Error {
	if err := v.Validate(); err != nil {
		return xerrors.Validation(err, xerrors.WithMessage(fmt.Sprintf("invalid %s", name(v))))
	}
	return nil
}

// Fields accumulates field errors, keeping the first message per field.
type Fields map[string]string

func (f Fields) Check(ok bool, field string, message string) {
	if ok {
		return
	}
	if _, exists := f[field]; exists {
		return
	}
	f[field] = message
}

// Result returns nil when no field failed so it can be returned from Validate directly.
func (f Fields) Result() map[string]string {
	if len(f) == 0 {
		return nil
	}
	return f
}

type named interface {
	ValidationName() string
}

func name(v Validator) string {
	if n, ok := v.(named); ok {
		return n.ValidationName()
	}
	return "input"
}
