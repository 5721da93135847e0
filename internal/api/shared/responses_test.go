package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithJSON(w, r, http.StatusCreated, map[string]int{"created": 3})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"created": 3}`, w.Body.String())
}

func TestRespondWithJSON_NilBody(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	RespondWithJSON(w, httptest.NewRequest(http.MethodDelete, "/", nil), http.StatusNoContent, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), TraceIDKey, "trace-123"))

	RespondWithError(w, r, http.StatusNotFound, "Recurring task not found")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Recurring task not found", resp.Error)
	assert.Equal(t, "trace-123", resp.TraceID)
	assert.Empty(t, resp.Field)
}

func TestRespondWithFieldError(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	RespondWithFieldError(w, httptest.NewRequest(http.MethodPost, "/", nil), http.StatusBadRequest, "BYDAY", "invalid weekday")

	assert.JSONEq(t, `{"error": "invalid weekday", "field": "BYDAY"}`, w.Body.String())
}

func TestRespondWithErrorAndLog_HidesInternalError(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "An unexpected error occurred",
		errors.New("dial tcp postgres://app:secret@db:5432 refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
	assert.Contains(t, w.Body.String(), "An unexpected error occurred")
}
