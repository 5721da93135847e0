package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/api/shared"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/clock"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/events"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/mocks"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/service"
)

var (
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	testNow    = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
)

type testEnv struct {
	store  *mocks.MockTaskStore
	router chi.Router
}

// newTestEnv wires the handlers over the in-memory store. Requests carry
// their user in the X-Test-User header.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ts := mocks.NewMockTaskStore()
	materializer := service.NewMaterializer(ts, service.MaterializerConfig{MaxInstances: 100}, testLogger)
	svc, err := service.NewRecurringTaskService(
		ts,
		materializer,
		events.NewInMemoryEventEmitter(testLogger),
		clock.NewFixed(testNow),
		service.RecurringServiceConfig{Lookahead: 7 * 24 * time.Hour},
		testLogger,
	)
	require.NoError(t, err)

	rh := NewRecurrenceHandler(clock.NewFixed(testNow), testLogger)
	th := NewRecurringTaskHandler(svc, testLogger)

	r := chi.NewRouter()
	r.Post("/api/recurrence/validate", rh.Validate)
	r.Get("/api/recurrence/examples", rh.Examples)
	r.Group(func(r chi.Router) {
		r.Use(testAuth)
		r.Route("/api/recurring-tasks", func(r chi.Router) {
			r.Post("/", th.CreateRecurringTask)
			r.Get("/", th.ListRecurringTasks)
			r.Get("/{id}", th.GetRecurringTask)
			r.Put("/{id}", th.UpdateRecurringTask)
			r.Delete("/{id}", th.DeleteRecurringTask)
			r.Get("/{id}/instances", th.ListInstances)
			r.Get("/{id}/occurrences", th.PreviewOccurrences)
			r.Post("/{id}/materialize", th.MaterializeRecurringTask)
		})
		r.Patch("/api/instances/{id}", th.UpdateInstance)
		r.Delete("/api/instances/{id}", th.DeleteInstance)
	})

	return &testEnv{store: ts, router: r}
}

func testAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := uuid.Parse(r.Header.Get("X-Test-User")); err == nil {
			r = r.WithContext(shared.WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// do sends a request as user (uuid.Nil for anonymous) with body marshaled
// as JSON unless it is a string.
func (e *testEnv) do(t *testing.T, user uuid.UUID, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != uuid.Nil {
		req.Header.Set("X-Test-User", user.String())
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

// createTask posts a daily template starting 2024-03-11 09:00 UTC.
func (e *testEnv) createTask(t *testing.T, user uuid.UUID, title string) RecurringTaskResponse {
	t.Helper()
	w := e.do(t, user, http.MethodPost, "/api/recurring-tasks", map[string]interface{}{
		"title":      title,
		"rrule":      "FREQ=DAILY",
		"start_date": "2024-03-11T09:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[RecurringTaskResponse](t, w)
}
