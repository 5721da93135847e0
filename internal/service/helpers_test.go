package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/events"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/mocks"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func date(y int, m time.Month, d, h, minute int) time.Time {
	return time.Date(y, m, d, h, minute, 0, 0, time.UTC)
}

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.TemplateEvent
	err    error
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.TemplateEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

func (e *recordingEmitter) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

// storedTemplate creates a template and saves it in s.
func storedTemplate(t *testing.T, s *mocks.MockTaskStore, userID uuid.UUID, rule string, start time.Time) *domain.TaskTemplate {
	t.Helper()
	tmpl, err := domain.NewTaskTemplate(userID, domain.Payload{Title: "Water plants"}, rule, start, nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateTemplate(context.Background(), tmpl))
	return tmpl
}

func dueDates(instances []*domain.TaskInstance) []time.Time {
	out := make([]time.Time, 0, len(instances))
	for _, inst := range instances {
		out = append(out, inst.OccurrenceDate.UTC())
	}
	return out
}
