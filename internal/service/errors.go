package service

import (
	"errors"
	"fmt"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrTemplateNotFound indicates that the recurring template does not exist.
	ErrTemplateNotFound = errors.New("recurring template not found")

	// ErrInstanceNotFound indicates that the task instance does not exist.
	ErrInstanceNotFound = errors.New("task instance not found")

	// ErrTemplateInactive indicates an operation on a deactivated template.
	// API layer should map this to HTTP 409 Conflict.
	ErrTemplateInactive = errors.New("recurring template is inactive")
)

// ServiceError wraps an unexpected failure with the operation that hit it.
type ServiceError struct {
	// Service is the name of the service that failed (e.g., "recurring", "maintenance")
	Service string
	// Operation is the operation that failed (e.g., "create_template")
	Operation string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Operation, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Operation)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err. Store not-found errors are translated to the
// service sentinels and returned unwrapped; nil stays nil.
func NewServiceError(service, operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTemplateNotFound), errors.Is(err, store.ErrTemplateNotFound):
		return ErrTemplateNotFound
	case errors.Is(err, ErrInstanceNotFound), errors.Is(err, store.ErrInstanceNotFound):
		return ErrInstanceNotFound
	case errors.Is(err, ErrNotOwned):
		return ErrNotOwned
	case errors.Is(err, ErrTemplateInactive), errors.Is(err, domain.ErrTemplateInactive):
		return ErrTemplateInactive
	}
	return &ServiceError{Service: service, Operation: operation, Err: err}
}
