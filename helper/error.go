package helper

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration marks errors caused by invalid configuration or misuse of
// the pipeline. They are fatal for a run and never retried.
var ErrConfiguration = errors.New("configuration error")

// Error wraps an error with a trace of the operations it passed through.
type Error struct {
	Original error
	Trace    []string
}

// NewError wraps err with the name of the failing operation. Wrapping an
// *Error directly extends its trace instead of nesting. Other wrappers are
// kept as the original so their messages survive.
func NewError(trace string, err error) *Error {
	if err == nil {
		err = errors.New("unknown error")
	}
	if e, ok := err.(*Error); ok {
		return &Error{
			Original: e.Original,
			Trace:    append([]string{trace}, e.Trace...),
		}
	}
	return &Error{
		Original: err,
		Trace:    []string{trace},
	}
}

// NewConfigurationError returns an *Error wrapping ErrConfiguration.
func NewConfigurationError(trace string, format string, args ...interface{}) *Error {
	return NewError(trace, fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...)))
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", strings.Join(e.Trace, ": "), e.Original)
}

func (e *Error) Unwrap() error {
	return e.Original
}

// IsConfigurationError reports whether err is (or wraps) ErrConfiguration.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
