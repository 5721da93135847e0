package sqlstore

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
)

// templateColumns is the select list matching scanTemplate.
const templateColumns = `id, user_id, title, description, category_id, room_id, priority,
	rrule_string, rrule_start_date, rrule_end_date, active, revision, created_at, updated_at`

// instanceColumns is the select list matching scanInstance.
const instanceColumns = `id, parent_template_id, user_id, title, description, category_id, room_id, priority,
	due_date, completed, completed_at, user_modified, created_at, updated_at`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTemplate reads one row selected with TemplateColumns.
func scanTemplate(row scanner) (*domain.TaskTemplate, error) {
	var (
		t        domain.TaskTemplate
		category uuid.NullUUID
		room     uuid.NullUUID
		end      sql.NullTime
	)
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&category,
		&room,
		&t.Priority,
		&t.RuleString,
		&t.StartDate,
		&end,
		&t.Active,
		&t.Revision,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.CategoryID = uuidPtr(category)
	t.RoomID = uuidPtr(room)
	if end.Valid {
		e := end.Time.UTC()
		t.EndDate = &e
	}
	t.StartDate = t.StartDate.UTC()
	return &t, nil
}

// scanInstance reads one row selected with InstanceColumns.
func scanInstance(row scanner) (*domain.TaskInstance, error) {
	var (
		i           domain.TaskInstance
		category    uuid.NullUUID
		room        uuid.NullUUID
		completedAt sql.NullTime
	)
	err := row.Scan(
		&i.ID,
		&i.TemplateID,
		&i.UserID,
		&i.Title,
		&i.Description,
		&category,
		&room,
		&i.Priority,
		&i.OccurrenceDate,
		&i.Completed,
		&completedAt,
		&i.UserModified,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	i.CategoryID = uuidPtr(category)
	i.RoomID = uuidPtr(room)
	i.OccurrenceDate = i.OccurrenceDate.UTC()
	if completedAt.Valid {
		c := completedAt.Time.UTC()
		i.CompletedAt = &c
	}
	return &i, nil
}

// scanTemplates drains rows into templates and closes them.
func scanTemplates(rows *sql.Rows) ([]*domain.TaskTemplate, error) {
	defer func() { _ = rows.Close() }()

	var out []*domain.TaskTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// scanInstances drains rows into instances and closes them.
func scanInstances(rows *sql.Rows) ([]*domain.TaskInstance, error) {
	defer func() { _ = rows.Close() }()

	var out []*domain.TaskInstance
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// nullableUTC converts an optional timestamp for storage.
func nullableUTC(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// nullableUUID converts an optional ID for storage.
func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}
