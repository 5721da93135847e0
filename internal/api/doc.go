// Package api provides the HTTP handlers for recurrence validation,
// recurring task templates and their materialized instances.
//
// Handlers translate JSON requests into service calls and map service and
// domain errors to status codes in one place (MapErrorToStatusCode,
// GetSafeErrorMessage) so internal details never reach clients.
package api
