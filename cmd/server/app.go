package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/clock"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/config"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/events"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/service"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/service/auth"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB
	clock  clock.Clock

	taskStore store.TaskStore

	// Service interfaces
	jwtService       auth.JWTService
	materializer     *service.Materializer
	pruner           *service.Pruner
	recurringService service.RecurringTaskService

	// Event system
	eventEmitter *events.InMemoryEventEmitter

	// Task handling
	taskQueue   *task.TaskQueue
	workerPool  *task.WorkerPool
	maintenance *task.MaintenanceRunner
	scheduler   *task.Scheduler
}

// newApplication creates a new application instance with all dependencies initialized.
// Background components are created but not started; see start.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB, clk clock.Clock) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		clock:  clk,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.taskStore, err = newTaskStore(cfg.Database.Driver, db, logger)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Maintenance.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid maintenance timezone: %w", err)
	}
	lookahead := cfg.Maintenance.Lookahead()

	app.materializer = service.NewMaterializer(app.taskStore, service.MaterializerConfig{
		Location:     loc,
		MaxInstances: cfg.Recurrence.MaxInstancesPerTemplate,
		MaxPeriods:   cfg.Recurrence.MaxPeriods,
	}, logger)
	app.pruner = service.NewPruner(app.taskStore, cfg.Maintenance.Retention(), logger)

	// On-demand materialization: template events become queued tasks.
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.taskQueue = task.NewTaskQueue(cfg.Task.QueueSize, logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, task.WorkerPoolConfig{
		WorkerCount: cfg.Task.WorkerCount,
		TaskTimeout: cfg.Maintenance.TemplateTimeout,
	}, logger)
	app.workerPool.SetErrorHandler(func(t task.Task, err error) {
		logger.Error("background task failed",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
	})
	factory := task.NewMaterializeTaskFactory(app.taskStore, app.materializer, clk, lookahead, logger)
	app.eventEmitter.RegisterHandler(task.NewTemplateEventHandler(factory, app.taskQueue, logger))

	app.recurringService, err = service.NewRecurringTaskService(
		app.taskStore,
		app.materializer,
		app.eventEmitter,
		clk,
		service.RecurringServiceConfig{
			Lookahead:       lookahead,
			PreviewCount:    cfg.Recurrence.PreviewCount,
			MaxPreviewCount: cfg.Recurrence.MaxPreviewCount,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create recurring task service: %w", err)
	}

	app.maintenance, err = task.NewMaintenanceRunner(
		app.taskStore,
		app.materializer,
		app.pruner,
		clk,
		task.MaintenanceConfig{
			Lookahead:       lookahead,
			Retention:       cfg.Maintenance.Retention(),
			Concurrency:     cfg.Maintenance.Concurrency,
			TemplateTimeout: cfg.Maintenance.TemplateTimeout,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create maintenance runner: %w", err)
	}

	if cfg.Maintenance.Enabled {
		app.scheduler, err = task.NewScheduler(app.maintenance, task.SchedulerConfig{
			Spec:     cfg.Maintenance.Schedule,
			Location: loc,
		}, logger)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("application initialized",
		slog.Int("lookahead_days", cfg.Maintenance.LookaheadDays),
		slog.Int("retention_days", cfg.Maintenance.RetentionDays))
	return app, nil
}

// start launches the worker pool and, when enabled, the maintenance
// scheduler.
func (app *application) start() {
	app.workerPool.Start()
	if app.scheduler == nil {
		app.logger.Info("maintenance scheduler disabled")
		return
	}
	app.scheduler.Start()
	if app.config.Maintenance.RunOnStart {
		app.scheduler.RunNow()
	}
}

// Run starts the background components and serves HTTP until ctx is done.
func (app *application) Run(ctx context.Context) error {
	app.start()
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup(ctx context.Context) {
	if app.scheduler != nil {
		if err := app.scheduler.Stop(ctx); err != nil {
			app.logger.Error("error stopping maintenance scheduler", slog.String("error", err.Error()))
		}
	}

	app.taskQueue.Close()
	app.workerPool.Stop()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}

// printReport writes a short summary of a maintenance run.
func printReport(cmd *cobra.Command, r *task.RunReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d templates, %d created, %d skipped, %d failed\n",
		r.RunID, r.Templates, r.Created, r.Skipped, r.Failed)
	if r.Prune != nil {
		fmt.Fprintf(out, "prune before %s: %d deleted, %d kept, %d failed\n",
			r.Prune.Cutoff.Format("2006-01-02T15:04:05Z07:00"), r.Prune.Deleted, r.Prune.Kept, r.Prune.Failed)
	}
	ids := make([]uuid.UUID, 0, len(r.TemplateErrors))
	for id := range r.TemplateErrors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		fmt.Fprintf(out, "template %s: %s\n", id, r.TemplateErrors[id])
	}
	if r.Aborted {
		fmt.Fprintln(out, "run aborted")
	}
}
