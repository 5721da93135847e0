// Package service contains the recurring-task use cases.
//
// The Materializer turns a template's occurrences within a window into
// stored instances, skipping those that already exist. The Pruner deletes
// old instances the user never touched. RecurringTaskService exposes the
// owner-scoped operations behind the HTTP API and emits template events so
// that new and changed templates are materialized in the background.
//
// Services depend on store interfaces only; the SQL adapters live under
// internal/platform.
package service
