package recurrence

import (
	"errors"
	"time"
)

// Preview sizes used by Validate.
const (
	DefaultPreviewCount = 10
	MaxPreviewCount     = 50
)

// FieldError identifies the part of a rule that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of Validate. When Valid is true,
// NextOccurrences holds up to the requested number of upcoming occurrences.
type ValidationResult struct {
	Valid           bool        `json:"valid"`
	Rule            string      `json:"rule,omitempty"`
	NextOccurrences []time.Time `json:"next_occurrences"`
	Error           *FieldError `json:"error,omitempty"`
}

// Validate parses rule and previews its first n occurrences from start.
// n <= 0 selects DefaultPreviewCount and values above MaxPreviewCount are
// clamped.
func Validate(rule string, start time.Time, n int) ValidationResult {
	if n <= 0 {
		n = DefaultPreviewCount
	}
	if n > MaxPreviewCount {
		n = MaxPreviewCount
	}

	r, err := Parse(rule)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return ValidationResult{
				NextOccurrences: []time.Time{},
				Error:           &FieldError{Field: pe.Field, Message: pe.Message},
			}
		}
		return ValidationResult{
			NextOccurrences: []time.Time{},
			Error:           &FieldError{Field: "rule", Message: err.Error()},
		}
	}

	occurrences, err := r.Occurrences(Query{Start: start, MaxCount: n}).Collect()
	if err != nil && len(occurrences) == 0 {
		return ValidationResult{
			Rule:            r.String(),
			NextOccurrences: []time.Time{},
			Error:           &FieldError{Field: keyFreq, Message: "rule produces no occurrences within the search limit"},
		}
	}
	if occurrences == nil {
		occurrences = []time.Time{}
	}
	return ValidationResult{Valid: true, Rule: r.String(), NextOccurrences: occurrences}
}
