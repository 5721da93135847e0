package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/clock"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/mocks"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

func TestMaterializeTask_Execute(t *testing.T) {
	t.Parallel()
	s := mocks.NewMockTaskStore()
	tmpl := storeTemplate(t, s, "FREQ=DAILY", time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC))
	factory := NewMaterializeTaskFactory(s, newTestMaterializer(s), clock.NewFixed(testNow), 7*24*time.Hour, setupTestLogger())

	task := factory.CreateTask(tmpl.ID)
	assert.Equal(t, TaskTypeMaterialize, task.Type())
	assert.NotEqual(t, uuid.Nil, task.ID())
	require.NoError(t, task.Execute(context.Background()))

	// March 11 through March 17 at 09:00; March 10 09:00 is before now.
	instances := s.InstancesFor(tmpl.ID)
	require.Len(t, instances, 7)
	assert.True(t, instances[0].OccurrenceDate.Equal(time.Date(2024, time.March, 11, 9, 0, 0, 0, time.UTC)))

	// Running again creates nothing new.
	require.NoError(t, factory.CreateTask(tmpl.ID).Execute(context.Background()))
	assert.Len(t, s.InstancesFor(tmpl.ID), 7)
}

func TestMaterializeTask_SkipsInactiveAndMissing(t *testing.T) {
	t.Parallel()
	s := mocks.NewMockTaskStore()
	tmpl := storeTemplate(t, s, "FREQ=DAILY", testNow)
	tmpl.Deactivate()
	require.NoError(t, s.UpdateTemplate(context.Background(), tmpl))

	factory := NewMaterializeTaskFactory(s, newTestMaterializer(s), clock.NewFixed(testNow), 7*24*time.Hour, nil)
	require.NoError(t, factory.CreateTask(tmpl.ID).Execute(context.Background()))
	assert.Empty(t, s.InstancesFor(tmpl.ID))

	require.NoError(t, factory.CreateTask(uuid.New()).Execute(context.Background()))
	assert.Zero(t, s.UpsertCalls())
}

func TestMaterializeTask_StoreUnavailable(t *testing.T) {
	t.Parallel()
	s := mocks.NewMockTaskStore()
	tmpl := storeTemplate(t, s, "FREQ=DAILY", testNow)
	s.UpsertErrFn = func(_ *domain.TaskInstance) error { return store.ErrUnavailable }

	factory := NewMaterializeTaskFactory(s, newTestMaterializer(s), clock.NewFixed(testNow), 7*24*time.Hour, nil)
	err := factory.CreateTask(tmpl.ID).Execute(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)

	s.UpsertErrFn = nil
	s.Err = errors.New("boom")
	err = factory.CreateTask(tmpl.ID).Execute(context.Background())
	assert.ErrorContains(t, err, "failed to load template")
}
