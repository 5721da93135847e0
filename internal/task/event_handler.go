package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/events"
)

// TaskFactory creates the task for a template.
type TaskFactory interface {
	CreateTask(templateID uuid.UUID) Task
}

// TemplateEventHandler implements events.EventHandler. It turns template
// events into tasks and enqueues them for the worker pool.
type TemplateEventHandler struct {
	factory TaskFactory
	queue   TaskQueueWriter
	logger  *slog.Logger
}

// NewTemplateEventHandler creates a handler submitting tasks to queue.
func NewTemplateEventHandler(factory TaskFactory, queue TaskQueueWriter, logger *slog.Logger) *TemplateEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateEventHandler{
		factory: factory,
		queue:   queue,
		logger:  logger.With(slog.String("component", "template_event_handler")),
	}
}

// HandleEvent enqueues a materialization for created or changed templates.
// Other event types are ignored.
func (h *TemplateEventHandler) HandleEvent(_ context.Context, event *events.TemplateEvent) error {
	log := h.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("template_id", event.TemplateID.String()),
	)

	switch event.Type {
	case events.TypeTemplateCreated, events.TypeTemplateChanged:
	default:
		log.Debug("ignoring event with unsupported type")
		return nil
	}

	task := h.factory.CreateTask(event.TemplateID)
	if err := h.queue.Enqueue(task); err != nil {
		log.Error("failed to enqueue task", slog.String("error", err.Error()))
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Debug("task enqueued", slog.String("task_id", task.ID().String()))
	return nil
}

var _ events.EventHandler = (*TemplateEventHandler)(nil)
