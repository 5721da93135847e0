package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/logger"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// PruneResult reports one pruning pass.
type PruneResult struct {
	Cutoff  time.Time `json:"cutoff"`
	Deleted int       `json:"deleted"`
	Kept    int       `json:"kept"`
	Failed  int       `json:"failed"`
}

// Pruner retires materialized instances that fell out of the retention
// window.
type Pruner struct {
	store     store.TaskStore
	retention time.Duration
	logger    *slog.Logger
}

// NewPruner creates a Pruner. If logger is nil, a default logger will be used.
func NewPruner(s store.TaskStore, retention time.Duration, logger *slog.Logger) *Pruner {
	if s == nil {
		panic("store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:     s,
		retention: retention,
		logger:    logger.With(slog.String("component", "pruner")),
	}
}

// Prune deletes instances dated strictly before now minus the retention
// period. User-modified instances are kept. An instance dated exactly at
// the cutoff is kept.
func (p *Pruner) Prune(ctx context.Context, now time.Time) (*PruneResult, error) {
	return p.PruneBefore(ctx, now.Add(-p.retention))
}

// PruneBefore is Prune with an explicit cutoff.
func (p *Pruner) PruneBefore(ctx context.Context, cutoff time.Time) (*PruneResult, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)
	result := &PruneResult{Cutoff: cutoff}

	candidates, err := p.store.FindInstancesOlderThan(ctx, cutoff)
	if err != nil {
		log.Error("failed to find instances to prune", slog.String("error", err.Error()))
		return result, err
	}

	for _, inst := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if inst.UserModified {
			result.Kept++
			continue
		}

		err := p.store.DeleteInstance(ctx, inst.ID)
		switch {
		case err == nil, errors.Is(err, store.ErrNotFound):
			result.Deleted++
		case errors.Is(err, store.ErrUnavailable):
			log.Error("pruning aborted", slog.String("error", err.Error()))
			return result, err
		default:
			result.Failed++
			log.Error("failed to prune instance",
				slog.String("instance_id", inst.ID.String()),
				slog.String("template_id", inst.TemplateID.String()),
				slog.String("error", err.Error()))
		}
	}

	log.Info("instances pruned",
		slog.Time("cutoff", cutoff),
		slog.Int("deleted", result.Deleted),
		slog.Int("kept", result.Kept),
		slog.Int("failed", result.Failed))
	return result, nil
}
