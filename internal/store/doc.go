// Package store defines the persistence boundary for recurring templates and
// task instances. The interfaces here keep the scheduling logic independent of
// the database; adapters live under internal/platform.
package store
