package recurrence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRule is wrapped by every ParseError.
	ErrInvalidRule = errors.New("invalid recurrence rule")

	// ErrGenerationLimit is wrapped by GenerationLimitError.
	ErrGenerationLimit = errors.New("occurrence generation limit exceeded")
)

// ParseError reports a malformed or inconsistent rule string. Field names the
// rule key at fault (e.g. "BYDAY").
type ParseError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRule.Error(), e.Field, e.Message)
}

// Unwrap returns ErrInvalidRule so callers can use errors.Is.
func (e *ParseError) Unwrap() error {
	return ErrInvalidRule
}

func newParseError(field, format string, args ...any) *ParseError {
	return &ParseError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// GenerationLimitError is returned when a sequence examines more base periods
// than its configured cap without terminating.
type GenerationLimitError struct {
	Limit int
}

// Error implements the error interface.
func (e *GenerationLimitError) Error() string {
	return fmt.Sprintf("%s: examined %d periods", ErrGenerationLimit.Error(), e.Limit)
}

// Unwrap returns ErrGenerationLimit.
func (e *GenerationLimitError) Unwrap() error {
	return ErrGenerationLimit
}
