package service

import (
	"time"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
)

// MaintenanceWindow is computed once per maintenance run. Instances are
// generated in [From, To) and pruned when strictly older than PruneBefore.
type MaintenanceWindow struct {
	From        time.Time
	To          time.Time
	PruneBefore time.Time
}

// NewMaintenanceWindow returns the window for a run at now.
func NewMaintenanceWindow(now time.Time, lookahead, retention time.Duration) MaintenanceWindow {
	return MaintenanceWindow{
		From:        now,
		To:          now.Add(lookahead),
		PruneBefore: now.Add(-retention),
	}
}

// For narrows the generation window to tmpl: it starts at the later of From
// and the template's start date. ok is false when nothing can fall inside.
func (w MaintenanceWindow) For(tmpl *domain.TaskTemplate) (from, to time.Time, ok bool) {
	from, to = w.From, w.To
	if tmpl.StartDate.After(from) {
		from = tmpl.StartDate
	}
	if tmpl.EndDate != nil && tmpl.EndDate.Before(from) {
		return from, to, false
	}
	return from, to, from.Before(to)
}
