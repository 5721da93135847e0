// Package postgres provides the PostgreSQL implementation of store.TaskStore.
// It handles query execution, driver error mapping and the translation between
// the shared tasks table and domain templates and instances.
package postgres
