package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/clock"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/logger"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/service"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// MaintenanceConfig configures a MaintenanceRunner.
type MaintenanceConfig struct {
	// Lookahead is how far ahead of now instances are generated.
	Lookahead time.Duration
	// Retention is how long past instances are kept.
	Retention time.Duration
	// Concurrency bounds how many templates are materialized at once.
	// Values below 1 mean 1.
	Concurrency int
	// TemplateTimeout bounds one template's materialization when > 0.
	TemplateTimeout time.Duration
}

// RunReport summarizes one maintenance run.
type RunReport struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Window     service.MaintenanceWindow

	// Templates is the number of templates processed.
	Templates int
	Created   int
	Skipped   int
	Failed    int
	// Superseded counts templates edited while the run was materializing
	// them. Their edits trigger a fresh materialization.
	Superseded int

	// TemplateErrors maps each template that failed to its error message.
	TemplateErrors map[uuid.UUID]string

	// Prune is nil when the run stopped before pruning.
	Prune *service.PruneResult

	// Aborted is set when the store became unavailable or the run was
	// cancelled. Work completed before that point is kept.
	Aborted bool
}

// MaintenanceRunner performs the periodic materialize-then-prune pass.
type MaintenanceRunner struct {
	store        store.TaskStore
	materializer *service.Materializer
	pruner       *service.Pruner
	clock        clock.Clock
	config       MaintenanceConfig
	logger       *slog.Logger
}

// NewMaintenanceRunner creates a MaintenanceRunner.
func NewMaintenanceRunner(
	s store.TaskStore,
	materializer *service.Materializer,
	pruner *service.Pruner,
	clk clock.Clock,
	config MaintenanceConfig,
	log *slog.Logger,
) (*MaintenanceRunner, error) {
	if s == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if materializer == nil {
		return nil, fmt.Errorf("materializer cannot be nil")
	}
	if pruner == nil {
		return nil, fmt.Errorf("pruner cannot be nil")
	}
	if clk == nil {
		clk = clock.System{}
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &MaintenanceRunner{
		store:        s,
		materializer: materializer,
		pruner:       pruner,
		clock:        clk,
		config:       config,
		logger:       log.With(slog.String("component", "maintenance")),
	}, nil
}

// RunOnce materializes every active template over the current window and
// then prunes old instances. A failing template is logged and counted
// without affecting the others. The run stops early, returning the partial
// report and an error, when the store is unavailable or ctx is done.
func (r *MaintenanceRunner) RunOnce(ctx context.Context) (*RunReport, error) {
	now := r.clock.Now()
	report := &RunReport{
		RunID:          uuid.New(),
		StartedAt:      now,
		Window:         service.NewMaintenanceWindow(now, r.config.Lookahead, r.config.Retention),
		TemplateErrors: make(map[uuid.UUID]string),
	}
	log := logger.FromContextOrDefault(ctx, r.logger).With(slog.String("run_id", report.RunID.String()))
	ctx = logger.WithLogger(ctx, log)

	log.Info("maintenance run started",
		slog.Time("from", report.Window.From),
		slog.Time("to", report.Window.To),
		slog.Time("prune_before", report.Window.PruneBefore))

	finish := func(err error) (*RunReport, error) {
		report.FinishedAt = r.clock.Now()
		if err != nil {
			report.Aborted = true
			log.Error("maintenance run aborted",
				slog.String("error", err.Error()),
				slog.Int("templates", report.Templates),
				slog.Int("created", report.Created))
			return report, err
		}
		log.Info("maintenance run finished",
			slog.Int("templates", report.Templates),
			slog.Int("created", report.Created),
			slog.Int("skipped", report.Skipped),
			slog.Int("failed", report.Failed),
			slog.Int("superseded", report.Superseded),
			slog.Int("template_errors", len(report.TemplateErrors)),
			slog.Int("pruned", report.Prune.Deleted))
		return report, nil
	}

	templates, err := r.store.FindActiveTemplates(ctx)
	if err != nil {
		return finish(fmt.Errorf("failed to load active templates: %w", err))
	}

	if err := r.materializeAll(ctx, templates, report); err != nil {
		return finish(err)
	}

	prune, err := r.pruner.PruneBefore(ctx, report.Window.PruneBefore)
	report.Prune = prune
	if err != nil {
		return finish(fmt.Errorf("failed to prune instances: %w", err))
	}
	return finish(nil)
}

func (r *MaintenanceRunner) materializeAll(ctx context.Context, templates []*domain.TaskTemplate, report *RunReport) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)

	for _, tmpl := range templates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result, err := r.materializeOne(gctx, tmpl, report.Window)

			mu.Lock()
			defer mu.Unlock()
			report.Templates++
			if result != nil {
				report.Created += len(result.Created)
				report.Skipped += result.Skipped
				report.Failed += result.Failed
				if result.Superseded {
					report.Superseded++
				}
			}
			if err == nil {
				return nil
			}
			if errors.Is(err, store.ErrUnavailable) || gctx.Err() != nil {
				return err
			}
			report.TemplateErrors[tmpl.ID] = err.Error()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// The loop may have stopped on cancellation with every started
	// template succeeding.
	return ctx.Err()
}

func (r *MaintenanceRunner) materializeOne(
	ctx context.Context,
	tmpl *domain.TaskTemplate,
	window service.MaintenanceWindow,
) (*service.MaterializeResult, error) {
	from, to, ok := window.For(tmpl)
	if !ok {
		return nil, nil
	}

	if r.config.TemplateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.TemplateTimeout)
		defer cancel()
	}

	result, err := r.materializer.Materialize(ctx, tmpl, from, to)
	if err != nil {
		logger.FromContextOrDefault(ctx, r.logger).Error("template maintenance failed",
			slog.String("template_id", tmpl.ID.String()),
			slog.String("error", err.Error()))
	}
	return result, err
}
