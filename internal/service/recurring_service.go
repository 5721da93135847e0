package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/clock"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain/recurrence"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/events"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/logger"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

const recurringServiceName = "recurring"

// CreateTemplateParams describes a new recurring task.
type CreateTemplateParams struct {
	Payload   domain.Payload
	Rule      string
	StartDate time.Time
	EndDate   *time.Time
}

// UpdateTemplateParams is a partial template update. Nil fields are left
// unchanged; ClearEndDate removes the end date.
type UpdateTemplateParams struct {
	Payload      *domain.Payload
	Rule         *string
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
}

// MaterializeParams tunes an on-demand materialization.
type MaterializeParams struct {
	// Until replaces the configured lookahead when set.
	Until *time.Time
	// MaxInstances caps created instances when > 0.
	MaxInstances int
}

// RecurringTaskService manages recurring templates and their instances on
// behalf of a user. Every method checks that userID owns the resource.
type RecurringTaskService interface {
	CreateTemplate(ctx context.Context, userID uuid.UUID, params CreateTemplateParams) (*domain.TaskTemplate, error)
	GetTemplate(ctx context.Context, userID, templateID uuid.UUID) (*domain.TaskTemplate, error)
	ListTemplates(ctx context.Context, userID uuid.UUID) ([]*domain.TaskTemplate, error)
	UpdateTemplate(ctx context.Context, userID, templateID uuid.UUID, params UpdateTemplateParams) (*domain.TaskTemplate, error)
	// DeactivateTemplate stops materialization. With cascade the template's
	// instances are deleted too; the number deleted is returned.
	DeactivateTemplate(ctx context.Context, userID, templateID uuid.UUID, cascade bool) (int64, error)
	ListInstances(ctx context.Context, userID, templateID uuid.UUID, limit, offset int) ([]*domain.TaskInstance, error)
	// PreviewOccurrences returns the next count occurrences from now.
	PreviewOccurrences(ctx context.Context, userID, templateID uuid.UUID, count int) ([]time.Time, error)
	MaterializeTemplate(ctx context.Context, userID, templateID uuid.UUID, params MaterializeParams) (*MaterializeResult, error)
	UpdateInstance(ctx context.Context, userID, instanceID uuid.UUID, edit domain.InstanceEdit) (*domain.TaskInstance, error)
	DeleteInstance(ctx context.Context, userID, instanceID uuid.UUID) error
}

// RecurringServiceConfig holds the windows used by on-demand operations.
type RecurringServiceConfig struct {
	Lookahead       time.Duration
	PreviewCount    int
	MaxPreviewCount int
}

type recurringService struct {
	store        store.TaskStore
	materializer *Materializer
	emitter      events.EventEmitter
	clock        clock.Clock
	config       RecurringServiceConfig
	logger       *slog.Logger
}

// NewRecurringTaskService creates a RecurringTaskService. It returns an
// error if any required dependency is nil.
func NewRecurringTaskService(
	s store.TaskStore,
	materializer *Materializer,
	emitter events.EventEmitter,
	clk clock.Clock,
	config RecurringServiceConfig,
	logger *slog.Logger,
) (RecurringTaskService, error) {
	switch {
	case s == nil:
		return nil, &ServiceError{Service: recurringServiceName, Operation: "create_service", Err: errors.New("store cannot be nil")}
	case materializer == nil:
		return nil, &ServiceError{Service: recurringServiceName, Operation: "create_service", Err: errors.New("materializer cannot be nil")}
	case emitter == nil:
		return nil, &ServiceError{Service: recurringServiceName, Operation: "create_service", Err: errors.New("emitter cannot be nil")}
	}
	if clk == nil {
		clk = clock.System{}
	}
	if config.PreviewCount <= 0 {
		config.PreviewCount = recurrence.DefaultPreviewCount
	}
	if config.MaxPreviewCount <= 0 {
		config.MaxPreviewCount = recurrence.MaxPreviewCount
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &recurringService{
		store:        s,
		materializer: materializer,
		emitter:      emitter,
		clock:        clk,
		config:       config,
		logger:       logger.With(slog.String("component", "recurring_service")),
	}, nil
}

func (s *recurringService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// CreateTemplate validates and stores a template, then asks for its first
// instances to be materialized.
func (s *recurringService) CreateTemplate(
	ctx context.Context,
	userID uuid.UUID,
	params CreateTemplateParams,
) (*domain.TaskTemplate, error) {
	tmpl, err := domain.NewTaskTemplate(userID, params.Payload, params.Rule, params.StartDate, params.EndDate)
	if err != nil {
		s.log(ctx).Debug("rejected template", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.store.CreateTemplate(ctx, tmpl); err != nil {
		return nil, NewServiceError(recurringServiceName, "create_template", err)
	}

	s.log(ctx).Info("template created",
		slog.String("template_id", tmpl.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("rrule", tmpl.RuleString))
	s.emit(ctx, events.TypeTemplateCreated, tmpl)
	return tmpl, nil
}

// emit requests materialization. Failures are logged only: the next
// maintenance run materializes the template anyway.
func (s *recurringService) emit(ctx context.Context, eventType string, tmpl *domain.TaskTemplate) {
	event := events.NewTemplateEvent(eventType, tmpl.ID, tmpl.UserID)
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.log(ctx).Warn("failed to emit template event",
			slog.String("event_type", eventType),
			slog.String("template_id", tmpl.ID.String()),
			slog.String("error", err.Error()))
	}
}

func (s *recurringService) ownedTemplate(ctx context.Context, ts store.TaskStore, userID, templateID uuid.UUID) (*domain.TaskTemplate, error) {
	tmpl, err := ts.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tmpl.UserID != userID {
		s.log(ctx).Warn("template access denied",
			slog.String("template_id", templateID.String()),
			slog.String("user_id", userID.String()))
		return nil, ErrNotOwned
	}
	return tmpl, nil
}

func (s *recurringService) GetTemplate(ctx context.Context, userID, templateID uuid.UUID) (*domain.TaskTemplate, error) {
	tmpl, err := s.ownedTemplate(ctx, s.store, userID, templateID)
	if err != nil {
		return nil, NewServiceError(recurringServiceName, "get_template", err)
	}
	return tmpl, nil
}

func (s *recurringService) ListTemplates(ctx context.Context, userID uuid.UUID) ([]*domain.TaskTemplate, error) {
	templates, err := s.store.ListTemplatesByUser(ctx, userID)
	if err != nil {
		return nil, NewServiceError(recurringServiceName, "list_templates", err)
	}
	return templates, nil
}

// UpdateTemplate applies params in one transaction. When anything changed,
// future instances the user has not touched are deleted so they can be
// materialized again from the new definition. Past and current instances
// are left alone.
func (s *recurringService) UpdateTemplate(
	ctx context.Context,
	userID, templateID uuid.UUID,
	params UpdateTemplateParams,
) (*domain.TaskTemplate, error) {
	now := s.clock.Now()
	var (
		updated *domain.TaskTemplate
		removed int64
		changed bool
	)

	err := s.store.InTransaction(ctx, func(ctx context.Context, ts store.TaskStore) error {
		tmpl, err := s.ownedTemplate(ctx, ts, userID, templateID)
		if err != nil {
			return err
		}
		if !tmpl.Active {
			return ErrTemplateInactive
		}

		if params.Payload != nil && !params.Payload.Equal(tmpl.Payload) {
			if err := tmpl.UpdatePayload(*params.Payload); err != nil {
				return err
			}
			changed = true
		}

		rule, start, end := tmpl.RuleString, tmpl.StartDate, tmpl.EndDate
		if params.Rule != nil {
			rule = *params.Rule
		}
		if params.StartDate != nil {
			start = *params.StartDate
		}
		if params.EndDate != nil {
			end = params.EndDate
		}
		if params.ClearEndDate {
			end = nil
		}
		if !tmpl.ScheduleEquals(rule, start, end) {
			if err := tmpl.Reschedule(rule, start, end); err != nil {
				return err
			}
			changed = true
		}

		if !changed {
			updated = tmpl
			return nil
		}
		if err := ts.UpdateTemplate(ctx, tmpl); err != nil {
			return err
		}
		removed, err = ts.DeleteFutureInstances(ctx, tmpl.ID, now)
		if err != nil {
			return err
		}
		updated = tmpl
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, NewServiceError(recurringServiceName, "update_template", err)
	}

	if changed {
		s.log(ctx).Info("template updated",
			slog.String("template_id", templateID.String()),
			slog.String("rrule", updated.RuleString),
			slog.Int64("future_instances_removed", removed))
		s.emit(ctx, events.TypeTemplateChanged, updated)
	}
	return updated, nil
}

// isDomainError reports whether err describes invalid input rather than a
// failure.
func isDomainError(err error) bool {
	return errors.Is(err, recurrence.ErrInvalidRule) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrTaskTitleEmpty) ||
		errors.Is(err, domain.ErrTaskTitleTooLong) ||
		errors.Is(err, domain.ErrTemplateStartEmpty) ||
		errors.Is(err, domain.ErrTemplateEndBeforeStart)
}

func (s *recurringService) DeactivateTemplate(ctx context.Context, userID, templateID uuid.UUID, cascade bool) (int64, error) {
	var deleted int64
	err := s.store.InTransaction(ctx, func(ctx context.Context, ts store.TaskStore) error {
		tmpl, err := s.ownedTemplate(ctx, ts, userID, templateID)
		if err != nil {
			return err
		}
		if tmpl.Active {
			tmpl.Deactivate()
			if err := ts.UpdateTemplate(ctx, tmpl); err != nil {
				return err
			}
		}
		if cascade {
			deleted, err = ts.DeleteInstancesByTemplate(ctx, tmpl.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, NewServiceError(recurringServiceName, "deactivate_template", err)
	}

	s.log(ctx).Info("template deactivated",
		slog.String("template_id", templateID.String()),
		slog.Bool("cascade", cascade),
		slog.Int64("instances_deleted", deleted))
	return deleted, nil
}

func (s *recurringService) ListInstances(
	ctx context.Context,
	userID, templateID uuid.UUID,
	limit, offset int,
) ([]*domain.TaskInstance, error) {
	if _, err := s.ownedTemplate(ctx, s.store, userID, templateID); err != nil {
		return nil, NewServiceError(recurringServiceName, "list_instances", err)
	}
	instances, err := s.store.ListInstancesByTemplate(ctx, templateID, limit, offset)
	if err != nil {
		return nil, NewServiceError(recurringServiceName, "list_instances", err)
	}
	return instances, nil
}

func (s *recurringService) PreviewOccurrences(ctx context.Context, userID, templateID uuid.UUID, count int) ([]time.Time, error) {
	tmpl, err := s.ownedTemplate(ctx, s.store, userID, templateID)
	if err != nil {
		return nil, NewServiceError(recurringServiceName, "preview_occurrences", err)
	}
	if count <= 0 {
		count = s.config.PreviewCount
	}
	count = min(count, s.config.MaxPreviewCount)

	occurrences, err := s.materializer.Occurrences(tmpl, s.clock.Now(), time.Time{}, count)
	if err != nil && len(occurrences) == 0 {
		return nil, NewServiceError(recurringServiceName, "preview_occurrences", err)
	}
	if occurrences == nil {
		occurrences = []time.Time{}
	}
	return occurrences, nil
}

// MaterializeTemplate runs the materializer for one template right away,
// over the same window a maintenance run would use unless params say
// otherwise.
func (s *recurringService) MaterializeTemplate(
	ctx context.Context,
	userID, templateID uuid.UUID,
	params MaterializeParams,
) (*MaterializeResult, error) {
	tmpl, err := s.ownedTemplate(ctx, s.store, userID, templateID)
	if err != nil {
		return nil, NewServiceError(recurringServiceName, "materialize_template", err)
	}
	if !tmpl.Active {
		return nil, ErrTemplateInactive
	}

	window := NewMaintenanceWindow(s.clock.Now(), s.config.Lookahead, 0)
	if params.Until != nil {
		window.To = *params.Until
	}
	from, to, ok := window.For(tmpl)
	if !ok {
		return &MaterializeResult{Created: []*domain.TaskInstance{}}, nil
	}

	result, err := s.materializer.WithMaxInstances(params.MaxInstances).Materialize(ctx, tmpl, from, to)
	if err != nil {
		if errors.Is(err, recurrence.ErrInvalidRule) || errors.Is(err, recurrence.ErrGenerationLimit) {
			return nil, err
		}
		return nil, NewServiceError(recurringServiceName, "materialize_template", err)
	}
	return result, nil
}

func (s *recurringService) ownedInstance(ctx context.Context, userID, instanceID uuid.UUID) (*domain.TaskInstance, error) {
	inst, err := s.store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.UserID != userID {
		s.log(ctx).Warn("instance access denied",
			slog.String("instance_id", instanceID.String()),
			slog.String("user_id", userID.String()))
		return nil, ErrNotOwned
	}
	return inst, nil
}

// UpdateInstance applies a user edit. The instance becomes user-modified,
// which protects it from template changes and pruning.
func (s *recurringService) UpdateInstance(
	ctx context.Context,
	userID, instanceID uuid.UUID,
	edit domain.InstanceEdit,
) (*domain.TaskInstance, error) {
	inst, err := s.ownedInstance(ctx, userID, instanceID)
	if err != nil {
		return nil, NewServiceError(recurringServiceName, "update_instance", err)
	}
	if err := inst.Apply(edit, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.store.UpdateInstance(ctx, inst); err != nil {
		return nil, NewServiceError(recurringServiceName, "update_instance", err)
	}
	return inst, nil
}

func (s *recurringService) DeleteInstance(ctx context.Context, userID, instanceID uuid.UUID) error {
	if _, err := s.ownedInstance(ctx, userID, instanceID); err != nil {
		return NewServiceError(recurringServiceName, "delete_instance", err)
	}
	if err := s.store.DeleteInstance(ctx, instanceID); err != nil {
		return NewServiceError(recurringServiceName, "delete_instance", err)
	}
	s.log(ctx).Info("instance deleted", slog.String("instance_id", instanceID.String()))
	return nil
}
