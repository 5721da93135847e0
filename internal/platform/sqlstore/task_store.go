// Package sqlstore implements store.TaskStore over database/sql. The postgres
// and sqlite packages configure it with their placeholder style and driver
// error mapping.
//
// Templates and instances share one tasks table: templates have
// is_recurring_template set, instances have parent_template_id set. Rows that
// are neither belong to ordinary tasks and are never returned.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/logger"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// Dialect adapts the shared queries to one database.
type Dialect struct {
	// Name identifies the database in logs.
	Name string
	// Rebind rewrites the $n placeholders used by the queries. Nil keeps them.
	Rebind func(query string) string
	// MapError translates driver errors into store errors.
	MapError func(err error) error
	// ShareLock is appended to the parent template lookup of an instance
	// insert so the insert waits for a concurrent template update. Empty
	// where writers are already serialized.
	ShareLock string
}

// TaskStore implements store.TaskStore on a *sql.DB or *sql.Tx.
type TaskStore struct {
	db      store.DBTX
	conn    *sql.DB // nil when bound to a transaction
	dialect Dialect
	logger  *slog.Logger
}

// New creates a TaskStore. db is usually a *sql.DB; a *sql.Tx yields a store
// bound to that transaction. If logger is nil, a default logger will be used.
func New(db store.DBTX, dialect Dialect, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if dialect.MapError == nil {
		dialect.MapError = func(err error) error { return err }
	}
	conn, _ := db.(*sql.DB)

	return &TaskStore{
		db:      db,
		conn:    conn,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "task_store"), slog.String("dialect", dialect.Name)),
	}
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) q(query string) string {
	if s.dialect.Rebind == nil {
		return query
	}
	return s.dialect.Rebind(query)
}

// CreateTemplate implements store.TaskStore.CreateTemplate.
func (s *TaskStore) CreateTemplate(ctx context.Context, tmpl *domain.TaskTemplate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := tmpl.Validate(); err != nil {
		log.Warn("template validation failed during create",
			slog.String("error", err.Error()),
			slog.String("template_id", tmpl.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, category_id, room_id, priority,
			is_recurring_template, rrule_string, rrule_start_date, rrule_end_date, active,
			revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, s.q(query),
		tmpl.ID,
		tmpl.UserID,
		tmpl.Title,
		tmpl.Description,
		nullableUUID(tmpl.CategoryID),
		nullableUUID(tmpl.RoomID),
		string(tmpl.Priority.OrDefault()),
		tmpl.RuleString,
		tmpl.StartDate.UTC(),
		nullableUTC(tmpl.EndDate),
		tmpl.Active,
		max(tmpl.Revision, 1),
		tmpl.CreatedAt.UTC(),
		tmpl.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to create template",
			slog.String("error", err.Error()),
			slog.String("template_id", tmpl.ID.String()),
			slog.String("user_id", tmpl.UserID.String()))
		return store.NewStoreError("template", "create", "insert failed", s.dialect.MapError(err))
	}
	tmpl.Revision = max(tmpl.Revision, 1)

	log.Info("template created",
		slog.String("template_id", tmpl.ID.String()),
		slog.String("user_id", tmpl.UserID.String()),
		slog.String("rrule", tmpl.RuleString))
	return nil
}

// GetTemplate implements store.TaskStore.GetTemplate.
func (s *TaskStore) GetTemplate(ctx context.Context, id uuid.UUID) (*domain.TaskTemplate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + templateColumns + `
		FROM tasks
		WHERE id = $1 AND is_recurring_template`

	tmpl, err := scanTemplate(s.db.QueryRowContext(ctx, s.q(query), id))
	if err != nil {
		mapped := s.dialect.MapError(err)
		if store.IsNotFoundError(mapped) {
			log.Debug("template not found", slog.String("template_id", id.String()))
			return nil, store.ErrTemplateNotFound
		}
		log.Error("failed to get template",
			slog.String("error", err.Error()),
			slog.String("template_id", id.String()))
		return nil, fmt.Errorf("failed to get template: %w", mapped)
	}
	return tmpl, nil
}

// ListTemplatesByUser implements store.TaskStore.ListTemplatesByUser.
func (s *TaskStore) ListTemplatesByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TaskTemplate, error) {
	query := `SELECT ` + templateColumns + `
		FROM tasks
		WHERE user_id = $1 AND is_recurring_template
		ORDER BY created_at DESC, id`
	return s.queryTemplates(ctx, "list templates by user", query, userID)
}

// FindActiveTemplates implements store.TaskStore.FindActiveTemplates.
func (s *TaskStore) FindActiveTemplates(ctx context.Context) ([]*domain.TaskTemplate, error) {
	query := `SELECT ` + templateColumns + `
		FROM tasks
		WHERE is_recurring_template AND active
		ORDER BY created_at, id`
	return s.queryTemplates(ctx, "find active templates", query)
}

func (s *TaskStore) queryTemplates(ctx context.Context, op, query string, args ...any) ([]*domain.TaskTemplate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		log.Error("failed to "+op, slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to %s: %w", op, s.dialect.MapError(err))
	}
	templates, err := scanTemplates(rows)
	if err != nil {
		log.Error("failed to scan templates", slog.String("operation", op), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to %s: %w", op, s.dialect.MapError(err))
	}

	log.Debug("templates loaded", slog.String("operation", op), slog.Int("count", len(templates)))
	return templates, nil
}

// UpdateTemplate implements store.TaskStore.UpdateTemplate.
func (s *TaskStore) UpdateTemplate(ctx context.Context, tmpl *domain.TaskTemplate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := tmpl.Validate(); err != nil {
		log.Warn("template validation failed during update",
			slog.String("error", err.Error()),
			slog.String("template_id", tmpl.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET title = $2, description = $3, category_id = $4, room_id = $5, priority = $6,
			rrule_string = $7, rrule_start_date = $8, rrule_end_date = $9,
			active = $10, updated_at = $11, revision = revision + 1
		WHERE id = $1 AND is_recurring_template
		RETURNING revision
	`
	var revision int64
	err := s.db.QueryRowContext(ctx, s.q(query),
		tmpl.ID,
		tmpl.Title,
		tmpl.Description,
		nullableUUID(tmpl.CategoryID),
		nullableUUID(tmpl.RoomID),
		string(tmpl.Priority.OrDefault()),
		tmpl.RuleString,
		tmpl.StartDate.UTC(),
		nullableUTC(tmpl.EndDate),
		tmpl.Active,
		tmpl.UpdatedAt.UTC(),
	).Scan(&revision)
	if err != nil {
		mapped := s.dialect.MapError(err)
		if store.IsNotFoundError(mapped) {
			return store.ErrTemplateNotFound
		}
		log.Error("failed to update template",
			slog.String("error", err.Error()),
			slog.String("template_id", tmpl.ID.String()))
		return store.NewStoreError("template", "update", "update failed", mapped)
	}
	tmpl.Revision = revision

	log.Debug("template updated",
		slog.String("template_id", tmpl.ID.String()),
		slog.Int64("revision", revision),
		slog.Bool("active", tmpl.Active))
	return nil
}

// UpsertInstanceIfAbsent implements store.TaskStore.UpsertInstanceIfAbsent.
// The unique index on (parent_template_id, due_date) decides; an existing
// row is never modified. The row is selected only while the parent template
// is active at inst.TemplateRevision, so an insert racing a template update
// either lands before it (and is removed by the update's cleanup) or is
// dropped.
func (s *TaskStore) UpsertInstanceIfAbsent(ctx context.Context, inst *domain.TaskInstance) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := inst.Validate(); err != nil {
		return false, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, category_id, room_id, priority,
			parent_template_id, due_date, completed, completed_at, user_modified,
			created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		WHERE EXISTS (
			SELECT 1 FROM tasks
			WHERE id = $15 AND is_recurring_template AND active AND revision = $16` + s.dialect.ShareLock + `
		)
		ON CONFLICT DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, s.q(query),
		inst.ID,
		inst.UserID,
		inst.Title,
		inst.Description,
		nullableUUID(inst.CategoryID),
		nullableUUID(inst.RoomID),
		string(inst.Priority.OrDefault()),
		inst.TemplateID,
		inst.OccurrenceDate.UTC(),
		inst.Completed,
		nullableUTC(inst.CompletedAt),
		inst.UserModified,
		inst.CreatedAt.UTC(),
		inst.UpdatedAt.UTC(),
		inst.TemplateID,
		inst.TemplateRevision,
	)
	if err != nil {
		log.Error("failed to insert instance",
			slog.String("error", err.Error()),
			slog.String("template_id", inst.TemplateID.String()),
			slog.Time("due_date", inst.OccurrenceDate))
		return false, store.NewStoreError("instance", "create", "insert failed", s.dialect.MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", s.dialect.MapError(err))
	}
	if n > 0 {
		return true, nil
	}
	return false, s.checkParentTemplate(ctx, inst)
}

// checkParentTemplate explains an instance insert that wrote nothing: nil
// when the occurrence already existed, ErrTemplateChanged when the parent
// template moved on.
func (s *TaskStore) checkParentTemplate(ctx context.Context, inst *domain.TaskInstance) error {
	query := `SELECT active, revision FROM tasks WHERE id = $1 AND is_recurring_template`

	var (
		active   bool
		revision int64
	)
	err := s.db.QueryRowContext(ctx, s.q(query), inst.TemplateID).Scan(&active, &revision)
	if err != nil {
		mapped := s.dialect.MapError(err)
		if store.IsNotFoundError(mapped) {
			return fmt.Errorf("%w: parent template %s does not exist", store.ErrInvalidEntity, inst.TemplateID)
		}
		return fmt.Errorf("failed to check parent template: %w", mapped)
	}
	if !active || revision != inst.TemplateRevision {
		logger.FromContextOrDefault(ctx, s.logger).Debug("instance dropped for changed template",
			slog.String("template_id", inst.TemplateID.String()),
			slog.Int64("instance_revision", inst.TemplateRevision),
			slog.Int64("template_revision", revision),
			slog.Bool("active", active))
		return store.ErrTemplateChanged
	}
	return nil
}

// GetInstance implements store.TaskStore.GetInstance.
func (s *TaskStore) GetInstance(ctx context.Context, id uuid.UUID) (*domain.TaskInstance, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + instanceColumns + `
		FROM tasks
		WHERE id = $1 AND parent_template_id IS NOT NULL`

	inst, err := scanInstance(s.db.QueryRowContext(ctx, s.q(query), id))
	if err != nil {
		mapped := s.dialect.MapError(err)
		if store.IsNotFoundError(mapped) {
			log.Debug("instance not found", slog.String("instance_id", id.String()))
			return nil, store.ErrInstanceNotFound
		}
		log.Error("failed to get instance",
			slog.String("error", err.Error()),
			slog.String("instance_id", id.String()))
		return nil, fmt.Errorf("failed to get instance: %w", mapped)
	}
	return inst, nil
}

// ListInstancesByTemplate implements store.TaskStore.ListInstancesByTemplate.
func (s *TaskStore) ListInstancesByTemplate(
	ctx context.Context,
	templateID uuid.UUID,
	limit, offset int,
) ([]*domain.TaskInstance, error) {
	if limit <= 0 || limit > store.MaxInstancePageSize {
		limit = store.MaxInstancePageSize
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + instanceColumns + `
		FROM tasks
		WHERE parent_template_id = $1
		ORDER BY due_date
		LIMIT $2 OFFSET $3`
	return s.queryInstances(ctx, "list instances by template", query, templateID, limit, offset)
}

// FindInstancesOlderThan implements store.TaskStore.FindInstancesOlderThan.
func (s *TaskStore) FindInstancesOlderThan(ctx context.Context, cutoff time.Time) ([]*domain.TaskInstance, error) {
	query := `SELECT ` + instanceColumns + `
		FROM tasks
		WHERE parent_template_id IS NOT NULL AND due_date < $1
		ORDER BY due_date`
	return s.queryInstances(ctx, "find instances older than cutoff", query, cutoff.UTC())
}

func (s *TaskStore) queryInstances(ctx context.Context, op, query string, args ...any) ([]*domain.TaskInstance, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		log.Error("failed to "+op, slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to %s: %w", op, s.dialect.MapError(err))
	}
	instances, err := scanInstances(rows)
	if err != nil {
		log.Error("failed to scan instances", slog.String("operation", op), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to %s: %w", op, s.dialect.MapError(err))
	}
	return instances, nil
}

// UpdateInstance implements store.TaskStore.UpdateInstance.
func (s *TaskStore) UpdateInstance(ctx context.Context, inst *domain.TaskInstance) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := inst.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET title = $2, description = $3, priority = $4, completed = $5, completed_at = $6,
			user_modified = $7, updated_at = $8
		WHERE id = $1 AND parent_template_id IS NOT NULL
	`
	result, err := s.db.ExecContext(ctx, s.q(query),
		inst.ID,
		inst.Title,
		inst.Description,
		string(inst.Priority.OrDefault()),
		inst.Completed,
		nullableUTC(inst.CompletedAt),
		inst.UserModified,
		inst.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to update instance",
			slog.String("error", err.Error()),
			slog.String("instance_id", inst.ID.String()))
		return store.NewStoreError("instance", "update", "update failed", s.dialect.MapError(err))
	}
	return checkRowsAffected(result, store.ErrInstanceNotFound)
}

// DeleteInstance implements store.TaskStore.DeleteInstance.
func (s *TaskStore) DeleteInstance(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM tasks WHERE id = $1 AND parent_template_id IS NOT NULL`
	result, err := s.db.ExecContext(ctx, s.q(query), id)
	if err != nil {
		log.Error("failed to delete instance",
			slog.String("error", err.Error()),
			slog.String("instance_id", id.String()))
		return store.NewStoreError("instance", "delete", "delete failed", s.dialect.MapError(err))
	}
	return checkRowsAffected(result, store.ErrInstanceNotFound)
}

// DeleteFutureInstances implements store.TaskStore.DeleteFutureInstances.
func (s *TaskStore) DeleteFutureInstances(ctx context.Context, templateID uuid.UUID, from time.Time) (int64, error) {
	query := `
		DELETE FROM tasks
		WHERE parent_template_id = $1 AND due_date >= $2
			AND NOT completed AND NOT user_modified
	`
	return s.deleteMany(ctx, "delete future instances", query, templateID, from.UTC())
}

// DeleteInstancesByTemplate implements store.TaskStore.DeleteInstancesByTemplate.
func (s *TaskStore) DeleteInstancesByTemplate(ctx context.Context, templateID uuid.UUID) (int64, error) {
	query := `DELETE FROM tasks WHERE parent_template_id = $1`
	return s.deleteMany(ctx, "delete instances by template", query, templateID)
}

func (s *TaskStore) deleteMany(ctx context.Context, op, query string, args ...any) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		log.Error("failed to "+op, slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to %s: %w", op, s.dialect.MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", s.dialect.MapError(err))
	}

	log.Debug("instances deleted", slog.String("operation", op), slog.Int64("count", n))
	return n, nil
}

// WithTx implements store.TaskStore.WithTx.
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{
		db:      tx,
		dialect: s.dialect,
		logger:  s.logger,
	}
}

// InTransaction implements store.TaskStore.InTransaction.
func (s *TaskStore) InTransaction(ctx context.Context, fn func(ctx context.Context, ts store.TaskStore) error) error {
	if s.conn == nil {
		return fn(ctx, s)
	}
	err := store.RunInTransaction(ctx, s.conn, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.WithTx(tx))
	})
	return s.dialect.MapError(err)
}

// checkRowsAffected returns notFound when result touched no rows.
func checkRowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
