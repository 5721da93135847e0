package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
)

// MaxInstancePageSize bounds ListInstancesByTemplate.
const MaxInstancePageSize = 100

// TaskStore persists recurring templates and their materialized instances.
// Implementations must treat (template ID, occurrence date) as a unique key
// for instances and must never surface rows that are neither.
//
// Connection-level failures are reported as ErrUnavailable.
type TaskStore interface {
	// CreateTemplate saves a new recurring template.
	CreateTemplate(ctx context.Context, tmpl *domain.TaskTemplate) error

	// GetTemplate returns a template by ID or ErrTemplateNotFound.
	GetTemplate(ctx context.Context, id uuid.UUID) (*domain.TaskTemplate, error)

	// ListTemplatesByUser returns the templates owned by userID, newest first.
	ListTemplatesByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskTemplate, error)

	// FindActiveTemplates returns every active template.
	FindActiveTemplates(ctx context.Context) ([]*domain.TaskTemplate, error)

	// UpdateTemplate overwrites the template's payload, schedule and active
	// flag, and advances its revision. tmpl.Revision is set to the stored value.
	UpdateTemplate(ctx context.Context, tmpl *domain.TaskTemplate) error

	// UpsertInstanceIfAbsent inserts inst unless an instance with the same
	// template and occurrence date exists. created is false in that case and
	// the existing row is left untouched.
	//
	// The insert only happens while the parent template is active and still
	// at inst.TemplateRevision; otherwise ErrTemplateChanged is returned. The
	// check and the insert are atomic with respect to UpdateTemplate.
	UpsertInstanceIfAbsent(ctx context.Context, inst *domain.TaskInstance) (created bool, err error)

	// GetInstance returns an instance by ID or ErrInstanceNotFound.
	GetInstance(ctx context.Context, id uuid.UUID) (*domain.TaskInstance, error)

	// ListInstancesByTemplate pages through a template's instances by due date.
	ListInstancesByTemplate(ctx context.Context, templateID uuid.UUID, limit, offset int) ([]*domain.TaskInstance, error)

	// FindInstancesOlderThan returns instances due strictly before cutoff.
	FindInstancesOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.TaskInstance, error)

	// UpdateInstance saves a user edit to an instance.
	UpdateInstance(ctx context.Context, inst *domain.TaskInstance) error

	// DeleteInstance removes an instance or returns ErrInstanceNotFound.
	DeleteInstance(ctx context.Context, id uuid.UUID) error

	// DeleteFutureInstances removes the template's instances due at or after
	// from that are neither completed nor user-modified.
	DeleteFutureInstances(ctx context.Context, templateID uuid.UUID, from time.Time) (int64, error)

	// DeleteInstancesByTemplate removes all of the template's instances.
	DeleteInstancesByTemplate(ctx context.Context, templateID uuid.UUID) (int64, error)

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sql.Tx) TaskStore

	// InTransaction runs fn against a store bound to a single transaction,
	// committing when fn returns nil. A store already bound to a
	// transaction runs fn directly.
	InTransaction(ctx context.Context, fn func(ctx context.Context, s TaskStore) error) error
}
