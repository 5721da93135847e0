// Package storetest holds the behavioural test suite every store.TaskStore
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) store.TaskStore

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// NewTemplate builds a valid daily template owned by userID.
func NewTemplate(t *testing.T, userID uuid.UUID, title string) *domain.TaskTemplate {
	t.Helper()
	tmpl, err := domain.NewTaskTemplate(userID, domain.Payload{Title: title}, "FREQ=DAILY", base, nil)
	require.NoError(t, err)
	return tmpl
}

// RunTaskStoreContract runs the suite against stores produced by newStore.
func RunTaskStoreContract(t *testing.T, newStore Factory) {
	t.Run("template round trip", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		userID := uuid.New()
		room := uuid.New()
		end := base.AddDate(0, 6, 0)

		tmpl, err := domain.NewTaskTemplate(userID,
			domain.Payload{Title: "Water plants", Description: "balcony", RoomID: &room, Priority: domain.PriorityHigh},
			"FREQ=WEEKLY;BYDAY=MO,TH", base, &end)
		require.NoError(t, err)
		require.NoError(t, s.CreateTemplate(ctx, tmpl))

		got, err := s.GetTemplate(ctx, tmpl.ID)
		require.NoError(t, err)
		assert.Equal(t, tmpl.ID, got.ID)
		assert.Equal(t, userID, got.UserID)
		assert.Equal(t, "Water plants", got.Title)
		assert.Equal(t, "balcony", got.Description)
		require.NotNil(t, got.RoomID)
		assert.Equal(t, room, *got.RoomID)
		assert.Nil(t, got.CategoryID)
		assert.Equal(t, domain.PriorityHigh, got.Priority)
		assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO,TH", got.RuleString)
		assert.True(t, got.StartDate.Equal(base))
		require.NotNil(t, got.EndDate)
		assert.True(t, got.EndDate.Equal(end))
		assert.True(t, got.Active)

		_, err = s.GetTemplate(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrTemplateNotFound)
	})

	t.Run("active templates and user listing", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		owner := uuid.New()

		active := NewTemplate(t, owner, "Active")
		inactive := NewTemplate(t, owner, "Inactive")
		other := NewTemplate(t, uuid.New(), "Someone else")
		for _, tmpl := range []*domain.TaskTemplate{active, inactive, other} {
			require.NoError(t, s.CreateTemplate(ctx, tmpl))
		}

		inactive.Deactivate()
		require.NoError(t, s.UpdateTemplate(ctx, inactive))

		found, err := s.FindActiveTemplates(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{active.ID, other.ID}, templateIDs(found))

		mine, err := s.ListTemplatesByUser(ctx, owner)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{active.ID, inactive.ID}, templateIDs(mine))

		missing := NewTemplate(t, owner, "Never saved")
		assert.ErrorIs(t, s.UpdateTemplate(ctx, missing), store.ErrTemplateNotFound)
	})

	t.Run("upsert is idempotent per occurrence", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		tmpl := NewTemplate(t, uuid.New(), "Laundry")
		require.NoError(t, s.CreateTemplate(ctx, tmpl))

		occ := base.AddDate(0, 0, 1)
		first := tmpl.NewInstance(occ)
		created, err := s.UpsertInstanceIfAbsent(ctx, first)
		require.NoError(t, err)
		assert.True(t, created)

		second := tmpl.NewInstance(occ.In(time.FixedZone("UTC+2", 2*60*60)))
		second.Title = "Should not overwrite"
		created, err = s.UpsertInstanceIfAbsent(ctx, second)
		require.NoError(t, err)
		assert.False(t, created, "same instant in another zone is the same occurrence")

		got, err := s.GetInstance(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Laundry", got.Title)
		assert.Equal(t, domain.PriorityMedium, got.Priority)
		assert.True(t, got.OccurrenceDate.Equal(occ))

		_, err = s.GetInstance(ctx, second.ID)
		assert.ErrorIs(t, err, store.ErrInstanceNotFound)

		instances, err := s.ListInstancesByTemplate(ctx, tmpl.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, instances, 1)
	})

	t.Run("roles never leak", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		tmpl := NewTemplate(t, uuid.New(), "Dishes")
		require.NoError(t, s.CreateTemplate(ctx, tmpl))
		inst := tmpl.NewInstance(base)
		_, err := s.UpsertInstanceIfAbsent(ctx, inst)
		require.NoError(t, err)

		_, err = s.GetInstance(ctx, tmpl.ID)
		assert.ErrorIs(t, err, store.ErrInstanceNotFound)
		_, err = s.GetTemplate(ctx, inst.ID)
		assert.ErrorIs(t, err, store.ErrTemplateNotFound)
		assert.ErrorIs(t, s.DeleteInstance(ctx, tmpl.ID), store.ErrInstanceNotFound)

		found, err := s.FindActiveTemplates(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{tmpl.ID}, templateIDs(found))
	})

	t.Run("older than is strict", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		tmpl := NewTemplate(t, uuid.New(), "Trash")
		require.NoError(t, s.CreateTemplate(ctx, tmpl))

		cutoff := base.AddDate(0, 0, 2)
		var ids []uuid.UUID
		for d := 0; d < 4; d++ {
			inst := tmpl.NewInstance(base.AddDate(0, 0, d))
			_, err := s.UpsertInstanceIfAbsent(ctx, inst)
			require.NoError(t, err)
			ids = append(ids, inst.ID)
		}

		old, err := s.FindInstancesOlderThan(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, ids[:2], instanceIDs(old))
	})

	t.Run("update and delete instance", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		tmpl := NewTemplate(t, uuid.New(), "Vacuum")
		require.NoError(t, s.CreateTemplate(ctx, tmpl))
		inst := tmpl.NewInstance(base)
		_, err := s.UpsertInstanceIfAbsent(ctx, inst)
		require.NoError(t, err)

		done := true
		low := domain.PriorityLow
		require.NoError(t, inst.Apply(domain.InstanceEdit{Completed: &done, Priority: &low}, base.Add(time.Hour)))
		require.NoError(t, s.UpdateInstance(ctx, inst))

		got, err := s.GetInstance(ctx, inst.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PriorityLow, got.Priority)
		assert.True(t, got.Completed)
		assert.True(t, got.UserModified)
		require.NotNil(t, got.CompletedAt)
		assert.True(t, got.CompletedAt.Equal(base.Add(time.Hour)))

		require.NoError(t, s.DeleteInstance(ctx, inst.ID))
		assert.ErrorIs(t, s.DeleteInstance(ctx, inst.ID), store.ErrInstanceNotFound)
		assert.ErrorIs(t, s.UpdateInstance(ctx, inst), store.ErrInstanceNotFound)
	})

	t.Run("delete future keeps completed and modified", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		tmpl := NewTemplate(t, uuid.New(), "Mop")
		require.NoError(t, s.CreateTemplate(ctx, tmpl))

		var all []*domain.TaskInstance
		for d := 0; d < 5; d++ {
			inst := tmpl.NewInstance(base.AddDate(0, 0, d))
			all = append(all, inst)
		}
		done := true
		require.NoError(t, all[3].Apply(domain.InstanceEdit{Completed: &done}, base))
		title := "Mop the hallway too"
		require.NoError(t, all[4].Apply(domain.InstanceEdit{Title: &title}, base))
		for _, inst := range all {
			_, err := s.UpsertInstanceIfAbsent(ctx, inst)
			require.NoError(t, err)
		}

		n, err := s.DeleteFutureInstances(ctx, tmpl.ID, base.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		left, err := s.ListInstancesByTemplate(ctx, tmpl.ID, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{all[0].ID, all[3].ID, all[4].ID}, instanceIDs(left))

		n, err = s.DeleteInstancesByTemplate(ctx, tmpl.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("instances are paged by due date", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		tmpl := NewTemplate(t, uuid.New(), "Feed cat")
		require.NoError(t, s.CreateTemplate(ctx, tmpl))

		var ids []uuid.UUID
		for d := 4; d >= 0; d-- {
			inst := tmpl.NewInstance(base.AddDate(0, 0, d))
			_, err := s.UpsertInstanceIfAbsent(ctx, inst)
			require.NoError(t, err)
			ids = append([]uuid.UUID{inst.ID}, ids...)
		}

		page, err := s.ListInstancesByTemplate(ctx, tmpl.ID, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, ids[1:3], instanceIDs(page))
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		tmpl := NewTemplate(t, uuid.New(), "Rollback")
		boom := errors.New("boom")

		err := s.InTransaction(ctx, func(ctx context.Context, tx store.TaskStore) error {
			if err := tx.CreateTemplate(ctx, tmpl); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.GetTemplate(ctx, tmpl.ID)
		assert.ErrorIs(t, err, store.ErrTemplateNotFound)

		err = s.InTransaction(ctx, func(ctx context.Context, tx store.TaskStore) error {
			return tx.CreateTemplate(ctx, tmpl)
		})
		require.NoError(t, err)
		_, err = s.GetTemplate(ctx, tmpl.ID)
		assert.NoError(t, err)
	})

	t.Run("invalid entities are rejected", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		bad := NewTemplate(t, uuid.New(), "ok")
		bad.Title = ""
		assert.ErrorIs(t, s.CreateTemplate(ctx, bad), store.ErrInvalidEntity)

		inst := &domain.TaskInstance{ID: uuid.New(), UserID: uuid.New(), Payload: domain.Payload{Title: "orphan"}}
		_, err := s.UpsertInstanceIfAbsent(ctx, inst)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)

		inst.TemplateID = uuid.New()
		inst.TemplateRevision = 1
		inst.OccurrenceDate = base
		_, err = s.UpsertInstanceIfAbsent(ctx, inst)
		assert.ErrorIs(t, err, store.ErrInvalidEntity, "parent template must exist")
	})

	t.Run("upsert refuses instances of a changed template", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		tmpl := NewTemplate(t, uuid.New(), "Sweep")
		require.NoError(t, s.CreateTemplate(ctx, tmpl))
		stale := tmpl.NewInstance(base)

		current, err := s.GetTemplate(ctx, tmpl.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), current.Revision)
		require.NoError(t, current.Reschedule("FREQ=WEEKLY", current.StartDate, nil))
		require.NoError(t, s.UpdateTemplate(ctx, current))
		assert.Equal(t, int64(2), current.Revision)

		created, err := s.UpsertInstanceIfAbsent(ctx, stale)
		assert.ErrorIs(t, err, store.ErrTemplateChanged)
		assert.False(t, created)
		_, err = s.GetInstance(ctx, stale.ID)
		assert.ErrorIs(t, err, store.ErrInstanceNotFound)

		fresh := current.NewInstance(base)
		created, err = s.UpsertInstanceIfAbsent(ctx, fresh)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = s.UpsertInstanceIfAbsent(ctx, current.NewInstance(base))
		require.NoError(t, err, "an existing occurrence of a current template is a plain skip")
		assert.False(t, created)

		current.Deactivate()
		require.NoError(t, s.UpdateTemplate(ctx, current))
		_, err = s.UpsertInstanceIfAbsent(ctx, current.NewInstance(base.AddDate(0, 0, 7)))
		assert.ErrorIs(t, err, store.ErrTemplateChanged)

		stored, err := s.GetTemplate(ctx, tmpl.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stored.Revision)
	})
}

func templateIDs(ts []*domain.TaskTemplate) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func instanceIDs(is []*domain.TaskInstance) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(is))
	for _, i := range is {
		out = append(out, i.ID)
	}
	return out
}
