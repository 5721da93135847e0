package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/api/shared"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain/recurrence"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/service"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/service/auth"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrInstanceNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrTemplateInactive),
		errors.Is(err, domain.ErrTemplateInactive),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// The rule parses but cannot be expanded within the generation bound.
	case errors.Is(err, recurrence.ErrGenerationLimit):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case isBadRequest(err):
		return http.StatusBadRequest

	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

func isBadRequest(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve) ||
		errors.Is(err, recurrence.ErrInvalidRule) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrTaskTitleEmpty) ||
		errors.Is(err, domain.ErrTaskTitleTooLong) ||
		errors.Is(err, domain.ErrTemplateStartEmpty) ||
		errors.Is(err, domain.ErrTemplateEndBeforeStart) ||
		errors.Is(err, store.ErrInvalidEntity)
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var pe *recurrence.ParseError
	var fe *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "User ID not found or invalid"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this resource"

	case errors.Is(err, service.ErrTemplateNotFound):
		return "Recurring task not found"
	case errors.Is(err, service.ErrInstanceNotFound):
		return "Task instance not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, service.ErrTemplateInactive),
		errors.Is(err, domain.ErrTemplateInactive):
		return "Recurring task is inactive"

	case errors.As(err, &pe):
		return fmt.Sprintf("Invalid recurrence rule: %s %s", pe.Field, pe.Message)
	case errors.Is(err, recurrence.ErrGenerationLimit):
		return "Recurrence rule produces no occurrences within the search limit"

	case errors.As(err, &fe):
		return fmt.Sprintf("Invalid %s: %s", fe.Field, fe.Message)
	case errors.Is(err, domain.ErrTaskTitleEmpty):
		return "Title is required"
	case errors.Is(err, domain.ErrTaskTitleTooLong):
		return fmt.Sprintf("Title must be at most %d characters", domain.MaxTitleLength)
	case errors.Is(err, domain.ErrTemplateStartEmpty):
		return "Start date is required"
	case errors.Is(err, domain.ErrTemplateEndBeforeStart):
		return "End date cannot be before start date"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	case errors.Is(err, store.ErrUnavailable):
		return "Service temporarily unavailable"

	default:
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return SanitizeValidationError(err)
		}
		return "An unexpected error occurred"
	}
}

// ErrorField names the request field an error refers to, or "".
func ErrorField(err error) string {
	var pe *recurrence.ParseError
	var fe *domain.ValidationError
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &pe):
		return pe.Field
	case errors.As(err, &fe):
		return fe.Field
	case errors.As(err, &ve) && len(ve) > 0:
		return strings.ToLower(ve[0].Field())
	case errors.Is(err, domain.ErrTaskTitleEmpty), errors.Is(err, domain.ErrTaskTitleTooLong):
		return "title"
	case errors.Is(err, domain.ErrTemplateStartEmpty):
		return "start_date"
	case errors.Is(err, domain.ErrTemplateEndBeforeStart):
		return "end_date"
	default:
		return ""
	}
}

// SanitizeValidationError turns validator errors into a short message
// naming the first failing field.
func SanitizeValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "Validation error"
	}
	fe := ve[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte", "gt":
		return "too small"
	case "max", "lte", "lt":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err. A non-empty message replaces
// the safe message derived from err.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
		shared.RespondWithFieldError(w, r, status, ErrorField(err), message)
		return
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
