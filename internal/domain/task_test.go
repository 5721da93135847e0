package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain/recurrence"
)

func TestNewTaskTemplate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)

	tests := []struct {
		name    string
		userID  uuid.UUID
		payload Payload
		rule    string
		start   time.Time
		end     *time.Time
		wantErr error
	}{
		{
			name:    "valid",
			userID:  userID,
			payload: Payload{Title: "Water plants"},
			rule:    "rrule:freq=weekly;byday=mo",
			start:   start,
		},
		{
			name:    "empty title",
			userID:  userID,
			payload: Payload{Title: "   "},
			rule:    "FREQ=DAILY",
			start:   start,
			wantErr: ErrTaskTitleEmpty,
		},
		{
			name:    "title too long",
			userID:  userID,
			payload: Payload{Title: strings.Repeat("x", MaxTitleLength+1)},
			rule:    "FREQ=DAILY",
			start:   start,
			wantErr: ErrTaskTitleTooLong,
		},
		{
			name:    "missing owner",
			payload: Payload{Title: "Vacuum"},
			rule:    "FREQ=DAILY",
			start:   start,
			wantErr: ErrTaskUserIDEmpty,
		},
		{
			name:    "invalid rule",
			userID:  userID,
			payload: Payload{Title: "Vacuum"},
			rule:    "FREQ=HOURLY",
			start:   start,
			wantErr: recurrence.ErrInvalidRule,
		},
		{
			name:    "end before start",
			userID:  userID,
			payload: Payload{Title: "Vacuum"},
			rule:    "FREQ=DAILY",
			start:   start,
			end:     &before,
			wantErr: ErrTemplateEndBeforeStart,
		},
		{
			name:    "unknown priority",
			userID:  userID,
			payload: Payload{Title: "Vacuum", Priority: "someday"},
			rule:    "FREQ=DAILY",
			start:   start,
			wantErr: ErrInvalidPriority,
		},
		{
			name:    "zero start",
			userID:  userID,
			payload: Payload{Title: "Vacuum"},
			rule:    "FREQ=DAILY",
			wantErr: ErrTemplateStartEmpty,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tmpl, err := NewTaskTemplate(tc.userID, tc.payload, tc.rule, tc.start, tc.end)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
				assert.Nil(t, tmpl)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, tmpl.ID)
			assert.True(t, tmpl.Active)
			assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO", tmpl.RuleString)

			r, err := tmpl.Rule()
			require.NoError(t, err)
			assert.Equal(t, recurrence.Weekly, r.Frequency())
		})
	}
}

func TestTaskTemplate_RuleFromStorage(t *testing.T) {
	t.Parallel()

	tmpl := &TaskTemplate{RuleString: "FREQ=DAILY;INTERVAL=bogus"}
	_, err := tmpl.Rule()
	assert.True(t, errors.Is(err, recurrence.ErrInvalidRule))

	tmpl.RuleString = "FREQ=MONTHLY"
	r, err := tmpl.Rule()
	require.NoError(t, err)
	assert.Equal(t, recurrence.Monthly, r.Frequency())
}

func TestTaskTemplate_Reschedule(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tmpl, err := NewTaskTemplate(uuid.New(), Payload{Title: "Laundry"}, "FREQ=DAILY", start, nil)
	require.NoError(t, err)

	err = tmpl.Reschedule("FREQ=WEEKLY;BYDAY=XX", start, nil)
	require.Error(t, err)
	assert.Equal(t, "FREQ=DAILY", tmpl.RuleString, "failed reschedule must not change the template")

	require.NoError(t, tmpl.Reschedule("FREQ=WEEKLY;BYDAY=SA", start, nil))
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=SA", tmpl.RuleString)
	assert.True(t, tmpl.ScheduleEquals("freq=weekly;byday=sa", start, nil))
	assert.False(t, tmpl.ScheduleEquals("FREQ=WEEKLY;BYDAY=SA", start.Add(time.Hour), nil))

	tmpl.Deactivate()
	assert.ErrorIs(t, tmpl.Reschedule("FREQ=DAILY", start, nil), ErrTemplateInactive)
	assert.ErrorIs(t, tmpl.UpdatePayload(Payload{Title: "x"}), ErrTemplateInactive)
}

func TestTaskTemplate_NewInstanceCopiesPayload(t *testing.T) {
	t.Parallel()

	room := uuid.New()
	tmpl, err := NewTaskTemplate(uuid.New(), Payload{Title: "Dust shelves", RoomID: &room},
		"FREQ=DAILY", time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)

	occ := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	inst := tmpl.NewInstance(occ)
	require.NoError(t, inst.Validate())

	assert.Equal(t, tmpl.ID, inst.TemplateID)
	assert.Equal(t, tmpl.UserID, inst.UserID)
	assert.Equal(t, occ, inst.OccurrenceDate)
	assert.False(t, inst.UserModified)

	require.NoError(t, tmpl.UpdatePayload(Payload{Title: "Dust all shelves"}))
	assert.Equal(t, "Dust shelves", inst.Title, "existing instances keep their payload")

	var carriers []PayloadCarrier = []PayloadCarrier{tmpl, inst}
	assert.Equal(t, "Dust all shelves", carriers[0].TaskPayload().Title)
	assert.Equal(t, "Dust shelves", carriers[1].TaskPayload().Title)
}

func TestTaskInstance_Apply(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	inst := &TaskInstance{
		ID:         uuid.New(),
		TemplateID: uuid.New(),
		UserID:     uuid.New(),
		Payload:    Payload{Title: "Mop floor"},
	}

	done := true
	require.NoError(t, inst.Apply(InstanceEdit{Completed: &done}, now))
	assert.True(t, inst.Completed)
	require.NotNil(t, inst.CompletedAt)
	assert.Equal(t, now, *inst.CompletedAt)
	assert.True(t, inst.UserModified)

	empty := ""
	err := inst.Apply(InstanceEdit{Title: &empty}, now)
	assert.ErrorIs(t, err, ErrTaskTitleEmpty)
	assert.Equal(t, "Mop floor", inst.Title)

	undone := false
	require.NoError(t, inst.Apply(InstanceEdit{Completed: &undone}, now))
	assert.False(t, inst.Completed)
	assert.Nil(t, inst.CompletedAt)

	urgent := PriorityUrgent
	require.NoError(t, inst.Apply(InstanceEdit{Priority: &urgent}, now))
	assert.Equal(t, PriorityUrgent, inst.Priority)

	bogus := Priority("later")
	assert.ErrorIs(t, inst.Apply(InstanceEdit{Priority: &bogus}, now), ErrInvalidPriority)
	assert.Equal(t, PriorityUrgent, inst.Priority)
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := NewValidationError("title", "is required", cause)
	assert.Equal(t, "invalid title: is required", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, cause)
}

func TestPayload_Equal(t *testing.T) {
	room := uuid.New()
	sameRoom := room
	p := Payload{Title: "Dust shelves", RoomID: &room}

	assert.True(t, p.Equal(Payload{Title: "Dust shelves", RoomID: &sameRoom}))
	assert.False(t, p.Equal(Payload{Title: "Dust shelves"}))
	assert.False(t, p.Equal(Payload{Title: "Dust books", RoomID: &room}))

	other := uuid.New()
	assert.False(t, p.Equal(Payload{Title: "Dust shelves", RoomID: &other}))

	assert.True(t, p.Equal(Payload{Title: "Dust shelves", RoomID: &room, Priority: PriorityMedium}))
	assert.False(t, p.Equal(Payload{Title: "Dust shelves", RoomID: &room, Priority: PriorityUrgent}))
}

func TestPriority_Defaults(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tmpl, err := NewTaskTemplate(uuid.New(), Payload{Title: "Laundry"}, "FREQ=DAILY", start, nil)
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, tmpl.Priority)
	assert.Equal(t, PriorityMedium, tmpl.NewInstance(start).Priority)

	require.NoError(t, tmpl.UpdatePayload(Payload{Title: "Laundry", Priority: PriorityLow}))
	assert.Equal(t, PriorityLow, tmpl.NewInstance(start).Priority)

	err = tmpl.UpdatePayload(Payload{Title: "Laundry", Priority: "HIGH"})
	assert.ErrorIs(t, err, ErrInvalidPriority)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, PriorityLow, tmpl.Priority)

	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, Priority("").Valid())
	assert.Equal(t, PriorityMedium, Priority("").OrDefault())
}
