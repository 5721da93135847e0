package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain/recurrence"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/logger"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// MaterializerConfig bounds a single materialization.
type MaterializerConfig struct {
	// Location is the zone occurrences are computed in. Nil means UTC.
	Location *time.Location
	// MaxInstances caps instances generated per call when > 0.
	MaxInstances int
	// MaxPeriods caps rule periods examined per call when > 0.
	MaxPeriods int
}

// MaterializeResult reports one materialization.
type MaterializeResult struct {
	Created []*domain.TaskInstance
	Skipped int
	Failed  int
	// Superseded is set when the template was edited or deactivated while
	// materializing. The remaining occurrences were not written; the edit
	// schedules its own materialization.
	Superseded bool
}

// Materializer turns a template's occurrences into stored instances.
type Materializer struct {
	store  store.TaskStore
	config MaterializerConfig
	logger *slog.Logger
}

// NewMaterializer creates a Materializer. If logger is nil, a default
// logger will be used.
func NewMaterializer(s store.TaskStore, config MaterializerConfig, logger *slog.Logger) *Materializer {
	if s == nil {
		panic("store cannot be nil")
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		store:  s,
		config: config,
		logger: logger.With(slog.String("component", "materializer")),
	}
}

// WithMaxInstances returns a copy of m generating at most n instances per
// call. n <= 0 keeps the current limit.
func (m *Materializer) WithMaxInstances(n int) *Materializer {
	if n <= 0 {
		return m
	}
	c := *m
	c.config.MaxInstances = n
	return &c
}

// WithStore returns a copy of m that writes through s.
func (m *Materializer) WithStore(s store.TaskStore) *Materializer {
	c := *m
	c.store = s
	return &c
}

// Occurrences returns the template's occurrences in [from, to) in
// ascending order, computed in the configured location.
func (m *Materializer) Occurrences(tmpl *domain.TaskTemplate, from, to time.Time, limit int) ([]time.Time, error) {
	rule, err := tmpl.Rule()
	if err != nil {
		return nil, err
	}
	return rule.Occurrences(recurrence.Query{
		Start:      tmpl.StartDate.In(m.config.Location),
		End:        tmpl.EndDate,
		From:       from,
		To:         to,
		MaxCount:   limit,
		MaxPeriods: m.config.MaxPeriods,
	}).Collect()
}

// Materialize creates the missing instances of tmpl for occurrences in
// [from, to). Existing instances are skipped, never modified. A failed
// insert is logged and counted, and the remaining occurrences are still
// processed, unless the store is unavailable or ctx is done; then the
// partial result is returned together with the error. When tmpl is stale
// the store refuses the insert and Materialize stops with Superseded set.
func (m *Materializer) Materialize(ctx context.Context, tmpl *domain.TaskTemplate, from, to time.Time) (*MaterializeResult, error) {
	log := logger.FromContextOrDefault(ctx, m.logger).With(
		slog.String("template_id", tmpl.ID.String()),
	)
	result := &MaterializeResult{Created: make([]*domain.TaskInstance, 0)}

	occurrences, err := m.Occurrences(tmpl, from, to, m.config.MaxInstances)
	if err != nil {
		log.Error("failed to generate occurrences",
			slog.String("rrule", tmpl.RuleString),
			slog.String("error", err.Error()))
		return result, fmt.Errorf("failed to generate occurrences: %w", err)
	}

	for _, occ := range occurrences {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		inst := tmpl.NewInstance(occ)
		created, err := m.store.UpsertInstanceIfAbsent(ctx, inst)
		switch {
		case err == nil && created:
			result.Created = append(result.Created, inst)
		case err == nil:
			result.Skipped++
		case errors.Is(err, store.ErrTemplateChanged):
			result.Superseded = true
			log.Info("template changed during materialization, stopping",
				slog.Time("occurrence", occ),
				slog.Int64("revision", tmpl.Revision))
			return result, nil
		case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			log.Error("materialization aborted",
				slog.Time("occurrence", occ),
				slog.String("error", err.Error()))
			return result, err
		default:
			result.Failed++
			log.Error("failed to materialize occurrence",
				slog.Time("occurrence", occ),
				slog.String("error", err.Error()))
		}
	}

	log.Debug("template materialized",
		slog.Time("from", from),
		slog.Time("to", to),
		slog.Int("created", len(result.Created)),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed))
	return result, nil
}
