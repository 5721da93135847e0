// Package sqlite provides the SQLite implementation of store.TaskStore for
// single-node deployments and tests, using the mattn/go-sqlite3 driver.
package sqlite
