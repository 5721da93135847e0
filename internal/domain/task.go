package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain/recurrence"
)

// MaxTitleLength is the longest title a task may carry.
const MaxTitleLength = 120

// Task-specific validation errors
var (
	// ErrTaskTitleEmpty is returned when a task title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskTitleTooLong is returned when a task title exceeds MaxTitleLength.
	ErrTaskTitleTooLong = errors.New("task title is too long")

	// ErrTaskUserIDEmpty is returned when a task has no owner.
	ErrTaskUserIDEmpty = errors.New("task user ID cannot be empty")

	// ErrTemplateStartEmpty is returned when a template has no start date.
	ErrTemplateStartEmpty = errors.New("template start date cannot be empty")

	// ErrTemplateEndBeforeStart is returned when a template ends before it starts.
	ErrTemplateEndBeforeStart = errors.New("template end date cannot be before its start date")

	// ErrTemplateInactive is returned when modifying a deactivated template.
	ErrTemplateInactive = errors.New("template is inactive")

	// ErrInstanceTemplateEmpty is returned when an instance has no parent template.
	ErrInstanceTemplateEmpty = errors.New("instance template ID cannot be empty")

	// ErrInvalidPriority is returned for a priority outside the known levels.
	ErrInvalidPriority = errors.New("invalid task priority")
)

// Priority ranks a task. The zero value reads as PriorityMedium.
type Priority string

// Known priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// DefaultPriority is assigned when none is given.
const DefaultPriority = PriorityMedium

// Valid reports whether p is one of the known levels. The empty value is
// not valid; use OrDefault first.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// OrDefault returns p, or DefaultPriority when p is empty.
func (p Priority) OrDefault() Priority {
	if p == "" {
		return DefaultPriority
	}
	return p
}

// Payload is the user-facing content shared by templates and instances.
type Payload struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	RoomID      *uuid.UUID `json:"room_id,omitempty"`
	Priority    Priority   `json:"priority"`
}

// Validate checks the payload fields.
func (p Payload) Validate() error {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return ErrTaskTitleEmpty
	}
	if len([]rune(title)) > MaxTitleLength {
		return ErrTaskTitleTooLong
	}
	if !p.Priority.OrDefault().Valid() {
		return NewValidationError("priority", "must be one of low, medium, high, urgent", ErrInvalidPriority)
	}
	return nil
}

// withDefaults fills in optional fields left empty.
func (p Payload) withDefaults() Payload {
	p.Priority = p.Priority.OrDefault()
	return p
}

// Equal reports whether p and o carry the same values.
func (p Payload) Equal(o Payload) bool {
	return p.Title == o.Title &&
		p.Description == o.Description &&
		equalID(p.CategoryID, o.CategoryID) &&
		equalID(p.RoomID, o.RoomID) &&
		p.Priority.OrDefault() == o.Priority.OrDefault()
}

func equalID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// PayloadCarrier is implemented by both task variants.
type PayloadCarrier interface {
	TaskPayload() Payload
}

// TaskTemplate is a recurring task definition. It is never shown as an
// actionable task itself; instances are materialized from it.
type TaskTemplate struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Payload

	// RuleString is the rule as persisted. Templates built by
	// NewTaskTemplate store the canonical form.
	RuleString string     `json:"rrule"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Active     bool       `json:"active"`

	// Revision is advanced by the store on every update. Instances record
	// the revision they were built from.
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	rule       *recurrence.Rule
	ruleSource string
}

// NewTaskTemplate validates the rule and payload and returns an active
// template with a fresh ID.
func NewTaskTemplate(
	userID uuid.UUID,
	payload Payload,
	rule string,
	start time.Time,
	end *time.Time,
) (*TaskTemplate, error) {
	now := time.Now().UTC()
	t := &TaskTemplate{
		ID:        uuid.New(),
		UserID:    userID,
		Payload:   payload.withDefaults(),
		Active:    true,
		Revision:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.setSchedule(rule, start, end); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Rule returns the parsed recurrence rule, parsing RuleString on first use.
// Templates loaded from storage may carry a rule that no longer parses; the
// error is returned to the caller for that template only.
func (t *TaskTemplate) Rule() (*recurrence.Rule, error) {
	if t.rule != nil && t.ruleSource == t.RuleString {
		return t.rule, nil
	}
	r, err := recurrence.Parse(t.RuleString)
	if err != nil {
		return nil, err
	}
	t.rule, t.ruleSource = r, t.RuleString
	return r, nil
}

// TaskPayload implements PayloadCarrier.
func (t *TaskTemplate) TaskPayload() Payload {
	return t.Payload
}

// Validate checks that the template is internally consistent.
func (t *TaskTemplate) Validate() error {
	if t.ID == uuid.Nil {
		return ErrInvalidID
	}
	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}
	if err := t.Payload.Validate(); err != nil {
		return err
	}
	if t.StartDate.IsZero() {
		return ErrTemplateStartEmpty
	}
	if t.EndDate != nil && t.EndDate.Before(t.StartDate) {
		return ErrTemplateEndBeforeStart
	}
	if _, err := t.Rule(); err != nil {
		return err
	}
	return nil
}

// Reschedule replaces the rule and date range. The template is left
// untouched when the new schedule is invalid.
func (t *TaskTemplate) Reschedule(rule string, start time.Time, end *time.Time) error {
	if !t.Active {
		return ErrTemplateInactive
	}
	prev := *t
	if err := t.setSchedule(rule, start, end); err != nil {
		*t = prev
		return err
	}
	if err := t.Validate(); err != nil {
		*t = prev
		return err
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdatePayload replaces the content copied into future instances.
func (t *TaskTemplate) UpdatePayload(p Payload) error {
	if !t.Active {
		return ErrTemplateInactive
	}
	if err := p.Validate(); err != nil {
		return err
	}
	t.Payload = p.withDefaults()
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate stops further materialization. Deactivation is terminal.
func (t *TaskTemplate) Deactivate() {
	t.Active = false
	t.UpdatedAt = time.Now().UTC()
}

// NewInstance creates an instance for the given occurrence, copying the
// template's current payload.
func (t *TaskTemplate) NewInstance(occurrence time.Time) *TaskInstance {
	now := time.Now().UTC()
	return &TaskInstance{
		ID:               uuid.New(),
		TemplateID:       t.ID,
		TemplateRevision: t.Revision,
		UserID:           t.UserID,
		Payload:          t.Payload.withDefaults(),
		OccurrenceDate:   occurrence,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ScheduleEquals reports whether rule, start and end describe the
// template's current schedule.
func (t *TaskTemplate) ScheduleEquals(rule string, start time.Time, end *time.Time) bool {
	current, err := t.Rule()
	if err != nil {
		return false
	}
	next, err := recurrence.Parse(rule)
	if err != nil || !current.Equal(next) {
		return false
	}
	if !t.StartDate.Equal(start) {
		return false
	}
	if (t.EndDate == nil) != (end == nil) {
		return false
	}
	return end == nil || t.EndDate.Equal(*end)
}

func (t *TaskTemplate) setSchedule(rule string, start time.Time, end *time.Time) error {
	r, err := recurrence.Parse(rule)
	if err != nil {
		return err
	}
	t.RuleString = r.String()
	t.rule, t.ruleSource = r, t.RuleString
	t.StartDate = start
	t.EndDate = end
	return nil
}

// TaskInstance is one concrete, actionable task materialized from a
// template for a single occurrence.
type TaskInstance struct {
	ID         uuid.UUID `json:"id"`
	TemplateID uuid.UUID `json:"template_id"`
	UserID     uuid.UUID `json:"user_id"`
	Payload

	// TemplateRevision is the template revision this instance was built
	// from. It is not persisted.
	TemplateRevision int64 `json:"-"`

	// OccurrenceDate is also the instance's due date. Together with
	// TemplateID it identifies the instance.
	OccurrenceDate time.Time  `json:"due_date"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	UserModified   bool       `json:"user_modified"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TaskPayload implements PayloadCarrier.
func (i *TaskInstance) TaskPayload() Payload {
	return i.Payload
}

// Validate checks that the instance is internally consistent.
func (i *TaskInstance) Validate() error {
	if i.ID == uuid.Nil {
		return ErrInvalidID
	}
	if i.TemplateID == uuid.Nil {
		return ErrInstanceTemplateEmpty
	}
	if i.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}
	return i.Payload.Validate()
}

// InstanceEdit carries a partial update made by the user. Nil fields are
// left unchanged.
type InstanceEdit struct {
	Title       *string
	Description *string
	Priority    *Priority
	Completed   *bool
}

// Apply records a user edit. Any edit marks the instance user-modified so
// that template changes and pruning leave it alone.
func (i *TaskInstance) Apply(edit InstanceEdit, now time.Time) error {
	next := i.Payload
	if edit.Title != nil {
		next.Title = *edit.Title
	}
	if edit.Description != nil {
		next.Description = *edit.Description
	}
	if edit.Priority != nil {
		next.Priority = *edit.Priority
	}
	if err := next.Validate(); err != nil {
		return err
	}
	i.Payload = next.withDefaults()

	if edit.Completed != nil && *edit.Completed != i.Completed {
		i.Completed = *edit.Completed
		if i.Completed {
			at := now.UTC()
			i.CompletedAt = &at
		} else {
			i.CompletedAt = nil
		}
	}
	i.UserModified = true
	i.UpdatedAt = now.UTC()
	return nil
}
