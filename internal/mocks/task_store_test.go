package mocks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/mocks"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store/storetest"
)

func TestMockTaskStore_Contract(t *testing.T) {
	storetest.RunTaskStoreContract(t, func(t *testing.T) store.TaskStore {
		return mocks.NewMockTaskStore()
	})
}

func TestMockTaskStore_FailureInjection(t *testing.T) {
	ctx := context.Background()
	s := mocks.NewMockTaskStore()
	tmpl := storetest.NewTemplate(t, uuid.New(), "Inject")
	require.NoError(t, s.CreateTemplate(ctx, tmpl))

	second := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	boom := errors.New("boom")
	s.UpsertErrFn = func(inst *domain.TaskInstance) error {
		if inst.OccurrenceDate.Equal(second) {
			return boom
		}
		return nil
	}

	created, err := s.UpsertInstanceIfAbsent(ctx, tmpl.NewInstance(second.AddDate(0, 0, -1)))
	require.NoError(t, err)
	assert.True(t, created)

	_, err = s.UpsertInstanceIfAbsent(ctx, tmpl.NewInstance(second))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, s.UpsertCalls())
	assert.Len(t, s.InstancesFor(tmpl.ID), 1)

	s.Err = store.ErrUnavailable
	_, err = s.FindActiveTemplates(ctx)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestMockTaskStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := mocks.NewMockTaskStore()
	tmpl := storetest.NewTemplate(t, uuid.New(), "Original")
	require.NoError(t, s.CreateTemplate(ctx, tmpl))

	tmpl.Title = "Changed after save"
	got, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)

	got.Title = "Changed after load"
	again, err := s.GetTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Title)
}
