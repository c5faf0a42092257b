package filter

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies why a search request could not be turned into a query.
type ErrorKind string

const (
	ErrInvalidFieldReference      ErrorKind = "InvalidFieldReference"
	ErrUnsupportedOperatorForType ErrorKind = "UnsupportedOperatorForType"
	ErrMissingRequiredValue       ErrorKind = "MissingRequiredValue"
	ErrCoercionFailure            ErrorKind = "CoercionFailure"
	ErrComplexityExceeded         ErrorKind = "ComplexityExceeded"
	ErrInvalidRequest             ErrorKind = "InvalidRequest"
)

// FilterError aborts the construction of a search specification.
// It is always the caller's fault and maps to a client error.
type FilterError struct {
	Kind ErrorKind
	// Key is the filter or sort key being processed, if any.
	Key string
	Err error
}

func (e *FilterError) Error() string {
	msg := string(e.Kind)
	if e.Key != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Key)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

// Errorf creates a FilterError of the given kind.
func Errorf(kind ErrorKind, key string, format string, args ...any) *FilterError {
	return &FilterError{Kind: kind, Key: key, Err: errors.Errorf(format, args...)}
}

// WithKey attaches key to err if it is a FilterError without one.
func WithKey(err error, key string) error {
	var fe *FilterError
	if errors.As(err, &fe) && fe.Key == "" {
		return &FilterError{Kind: fe.Kind, Key: key, Err: fe.Err}
	}
	return err
}

// IsFilterError reports whether err is or wraps a FilterError.
func IsFilterError(err error) bool {
	var fe *FilterError
	return errors.As(err, &fe)
}

// KindOf returns the kind of the FilterError wrapped by err.
func KindOf(err error) (ErrorKind, bool) {
	var fe *FilterError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}
