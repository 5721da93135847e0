// Package mocks provides shared test doubles.
//
// MockTaskStore is an in-memory store.TaskStore with the same idempotency
// and ownership-free semantics as the SQL stores, plus hooks for injecting
// failures. MockJWTService stubs token generation and validation.
//
//	ts := mocks.NewMockTaskStore()
//	ts.UpsertErrFn = func(inst *domain.TaskInstance) error {
//	    return store.ErrUnavailable
//	}
package mocks
