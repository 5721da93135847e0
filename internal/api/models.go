package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain/recurrence"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/service"
)

// ValidateRuleRequest is the body of POST /api/recurrence/validate.
type ValidateRuleRequest struct {
	RRule string `json:"rrule" validate:"required"`
	// StartDate anchors the preview. It defaults to now.
	StartDate *time.Time `json:"start_date"`
	// Count is the number of occurrences to preview; 0 selects the default.
	Count int `json:"count" validate:"gte=0,lte=50"`
}

// ExamplesResponse lists ready-made rules.
type ExamplesResponse struct {
	Examples []recurrence.Example `json:"examples"`
}

// CreateRecurringTaskRequest is the body of POST /api/recurring-tasks.
type CreateRecurringTaskRequest struct {
	Title       string     `json:"title"       validate:"required"`
	Description string     `json:"description" validate:"max=2000"`
	CategoryID  *uuid.UUID `json:"category_id"`
	RoomID      *uuid.UUID `json:"room_id"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	RRule       string     `json:"rrule"       validate:"required"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

// UpdateRecurringTaskRequest is the body of PUT /api/recurring-tasks/{id}.
// Omitted fields keep their current value.
type UpdateRecurringTaskRequest struct {
	Title        *string    `json:"title"       validate:"omitempty,min=1"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
	CategoryID   *uuid.UUID `json:"category_id"`
	RoomID       *uuid.UUID `json:"room_id"`
	Priority     *string    `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	RRule        *string    `json:"rrule"       validate:"omitempty,min=1"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	ClearEndDate bool       `json:"clear_end_date"`
}

func (r UpdateRecurringTaskRequest) touchesPayload() bool {
	return r.Title != nil || r.Description != nil || r.CategoryID != nil || r.RoomID != nil || r.Priority != nil
}

// payload merges the request's payload fields over current.
func (r UpdateRecurringTaskRequest) payload(current domain.Payload) domain.Payload {
	p := current
	if r.Title != nil {
		p.Title = *r.Title
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.CategoryID != nil {
		p.CategoryID = r.CategoryID
	}
	if r.RoomID != nil {
		p.RoomID = r.RoomID
	}
	if r.Priority != nil {
		p.Priority = domain.Priority(*r.Priority)
	}
	return p
}

// RecurringTaskResponse represents a recurring task template.
type RecurringTaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	RoomID      *uuid.UUID `json:"room_id,omitempty"`
	Priority    string     `json:"priority"`
	RRule       string     `json:"rrule"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RecurringTaskListResponse wraps a list of templates.
type RecurringTaskListResponse struct {
	RecurringTasks []RecurringTaskResponse `json:"recurring_tasks"`
}

// DeactivateResponse reports a deactivation.
type DeactivateResponse struct {
	ID               uuid.UUID `json:"id"`
	Active           bool      `json:"active"`
	InstancesDeleted int64     `json:"instances_deleted"`
}

// TaskInstanceResponse represents a materialized task.
type TaskInstanceResponse struct {
	ID           uuid.UUID  `json:"id"`
	TemplateID   uuid.UUID  `json:"template_id"`
	UserID       uuid.UUID  `json:"user_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	RoomID       *uuid.UUID `json:"room_id,omitempty"`
	Priority     string     `json:"priority"`
	DueDate      time.Time  `json:"due_date"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	UserModified bool       `json:"user_modified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// InstanceListResponse is one page of a template's instances.
type InstanceListResponse struct {
	Instances []TaskInstanceResponse `json:"instances"`
	Limit     int                    `json:"limit"`
	Offset    int                    `json:"offset"`
}

// OccurrencesResponse lists upcoming occurrence dates.
type OccurrencesResponse struct {
	Occurrences []time.Time `json:"occurrences"`
}

// MaterializeRequest is the optional body of
// POST /api/recurring-tasks/{id}/materialize.
type MaterializeRequest struct {
	Until        *time.Time `json:"until"`
	MaxInstances int        `json:"max_instances" validate:"gte=0,lte=500"`
}

// MaterializeResponse reports an on-demand materialization.
type MaterializeResponse struct {
	Created    int                    `json:"created"`
	Skipped    int                    `json:"skipped"`
	Failed     int                    `json:"failed"`
	Superseded bool                   `json:"superseded,omitempty"`
	Instances  []TaskInstanceResponse `json:"instances"`
}

// UpdateInstanceRequest is the body of PATCH /api/instances/{id}.
type UpdateInstanceRequest struct {
	Title       *string `json:"title"       validate:"omitempty,min=1"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Priority    *string `json:"priority"    validate:"omitempty,oneof=low medium high urgent"`
	Completed   *bool   `json:"completed"`
}

func (r UpdateInstanceRequest) priority() *domain.Priority {
	if r.Priority == nil {
		return nil
	}
	p := domain.Priority(*r.Priority)
	return &p
}

func templateToResponse(t *domain.TaskTemplate) RecurringTaskResponse {
	return RecurringTaskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		CategoryID:  t.CategoryID,
		RoomID:      t.RoomID,
		Priority:    string(t.Priority.OrDefault()),
		RRule:       t.RuleString,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Active:      t.Active,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func instanceToResponse(i *domain.TaskInstance) TaskInstanceResponse {
	return TaskInstanceResponse{
		ID:           i.ID,
		TemplateID:   i.TemplateID,
		UserID:       i.UserID,
		Title:        i.Title,
		Description:  i.Description,
		CategoryID:   i.CategoryID,
		RoomID:       i.RoomID,
		Priority:     string(i.Priority.OrDefault()),
		DueDate:      i.OccurrenceDate,
		Completed:    i.Completed,
		CompletedAt:  i.CompletedAt,
		UserModified: i.UserModified,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func instancesToResponse(instances []*domain.TaskInstance) []TaskInstanceResponse {
	out := make([]TaskInstanceResponse, 0, len(instances))
	for _, inst := range instances {
		out = append(out, instanceToResponse(inst))
	}
	return out
}

func materializeToResponse(r *service.MaterializeResult) MaterializeResponse {
	return MaterializeResponse{
		Created:    len(r.Created),
		Skipped:    r.Skipped,
		Failed:     r.Failed,
		Superseded: r.Superseded,
		Instances:  instancesToResponse(r.Created),
	}
}
