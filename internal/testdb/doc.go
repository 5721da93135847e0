// Package testdb opens migrated databases for store tests.
//
// SQLite databases are in-memory and always available. PostgreSQL tests run
// only when DATABASE_URL is set and are skipped otherwise, except in CI
// where a missing URL fails the test. Each PostgreSQL
// test runs inside a transaction that is rolled back when the test ends.
package testdb
