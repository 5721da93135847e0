package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/clock"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/logger"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/service"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// MaterializeTask materializes one template's instances up to the
// lookahead horizon. It is submitted when a template is created or its
// schedule changes so users see instances before the next maintenance run.
type MaterializeTask struct {
	id           uuid.UUID
	templateID   uuid.UUID
	store        store.TaskStore
	materializer *service.Materializer
	clock        clock.Clock
	lookahead    time.Duration
	logger       *slog.Logger
}

// ID implements Task.
func (t *MaterializeTask) ID() uuid.UUID {
	return t.id
}

// Type implements Task.
func (t *MaterializeTask) Type() string {
	return TaskTypeMaterialize
}

// TemplateID returns the template this task materializes.
func (t *MaterializeTask) TemplateID() uuid.UUID {
	return t.templateID
}

// Execute loads the template and materializes its window. Inactive or
// deleted templates are skipped.
func (t *MaterializeTask) Execute(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, t.logger).With(
		slog.String("template_id", t.templateID.String()),
	)

	tmpl, err := t.store.GetTemplate(ctx, t.templateID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("template no longer exists, skipping materialization")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}
	if !tmpl.Active {
		log.Debug("template inactive, skipping materialization")
		return nil
	}

	window := service.NewMaintenanceWindow(t.clock.Now(), t.lookahead, 0)
	from, to, ok := window.For(tmpl)
	if !ok {
		log.Debug("template has no occurrences in window")
		return nil
	}

	result, err := t.materializer.Materialize(logger.WithLogger(ctx, log), tmpl, from, to)
	if err != nil {
		return fmt.Errorf("failed to materialize template: %w", err)
	}
	log.Info("template materialized on demand",
		slog.Int("created", len(result.Created)),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed))
	return nil
}

// MaterializeTaskFactory creates MaterializeTasks sharing one set of
// dependencies.
type MaterializeTaskFactory struct {
	store        store.TaskStore
	materializer *service.Materializer
	clock        clock.Clock
	lookahead    time.Duration
	logger       *slog.Logger
}

// NewMaterializeTaskFactory creates a factory. If logger is nil, a default
// logger will be used.
func NewMaterializeTaskFactory(
	s store.TaskStore,
	materializer *service.Materializer,
	clk clock.Clock,
	lookahead time.Duration,
	log *slog.Logger,
) *MaterializeTaskFactory {
	if log == nil {
		log = slog.Default()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &MaterializeTaskFactory{
		store:        s,
		materializer: materializer,
		clock:        clk,
		lookahead:    lookahead,
		logger:       log.With(slog.String("component", "materialize_task")),
	}
}

// CreateTask returns a task materializing templateID.
func (f *MaterializeTaskFactory) CreateTask(templateID uuid.UUID) Task {
	return &MaterializeTask{
		id:           uuid.New(),
		templateID:   templateID,
		store:        f.store,
		materializer: f.materializer,
		clock:        f.clock,
		lookahead:    f.lookahead,
		logger:       f.logger,
	}
}
