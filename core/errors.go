package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConfigurationError indicates that required settings are absent. It is fatal:
// the web entry point renders a blocking diagnostic screen instead of serving
// the application.
type ConfigurationError struct {
	Missing []string
}

func (err ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(err.Missing, ", "))
}

func IsConfigurationError(err error) bool {
	_, ok := errors.Cause(err).(*ConfigurationError)
	return ok
}

// AsConfigurationError returns the *ConfigurationError in err's cause chain, or
// nil when there is none.
func AsConfigurationError(err error) *ConfigurationError {
	if cErr, ok := errors.Cause(err).(*ConfigurationError); ok {
		return cErr
	}
	return nil
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
