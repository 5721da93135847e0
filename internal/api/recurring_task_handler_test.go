package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/api/shared"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

func TestCreateRecurringTask(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()

	t.Run("success", func(t *testing.T) {
		w := env.do(t, user, http.MethodPost, "/api/recurring-tasks", map[string]interface{}{
			"title":       "Water plants",
			"description": "Balcony and kitchen",
			"priority":    "high",
			"rrule":       "freq=weekly;byday=mo,we",
			"start_date":  "2024-03-11T09:00:00Z",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp := decodeBody[RecurringTaskResponse](t, w)
		assert.NotEqual(t, uuid.Nil, resp.ID)
		assert.Equal(t, user, resp.UserID)
		assert.Equal(t, "Water plants", resp.Title)
		assert.Equal(t, "high", resp.Priority)
		assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO,WE", resp.RRule)
		assert.True(t, resp.Active)
	})

	t.Run("invalid rule names the field", func(t *testing.T) {
		w := env.do(t, user, http.MethodPost, "/api/recurring-tasks", map[string]interface{}{
			"title":      "Bad",
			"rrule":      "FREQ=WEEKLY;INTERVAL=0",
			"start_date": "2024-03-11T09:00:00Z",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeBody[shared.ErrorResponse](t, w)
		assert.Equal(t, "INTERVAL", resp.Field)
		assert.Contains(t, resp.Error, "Invalid recurrence rule")
	})

	t.Run("end before start", func(t *testing.T) {
		w := env.do(t, user, http.MethodPost, "/api/recurring-tasks", map[string]interface{}{
			"title":      "Backwards",
			"rrule":      "FREQ=DAILY",
			"start_date": "2024-03-11T09:00:00Z",
			"end_date":   "2024-03-01T09:00:00Z",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "end_date", decodeBody[shared.ErrorResponse](t, w).Field)
	})

	t.Run("unknown priority", func(t *testing.T) {
		w := env.do(t, user, http.MethodPost, "/api/recurring-tasks", map[string]interface{}{
			"title":      "Sweep",
			"priority":   "whenever",
			"rrule":      "FREQ=DAILY",
			"start_date": "2024-03-11T09:00:00Z",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "priority", decodeBody[shared.ErrorResponse](t, w).Field)
	})

	t.Run("missing title", func(t *testing.T) {
		w := env.do(t, user, http.MethodPost, "/api/recurring-tasks", map[string]interface{}{
			"rrule":      "FREQ=DAILY",
			"start_date": "2024-03-11T09:00:00Z",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "title", decodeBody[shared.ErrorResponse](t, w).Field)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := env.do(t, uuid.Nil, http.MethodPost, "/api/recurring-tasks", map[string]interface{}{
			"title": "x", "rrule": "FREQ=DAILY", "start_date": "2024-03-11T09:00:00Z",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestListAndGetRecurringTasks(t *testing.T) {
	env := newTestEnv(t)
	alice, bob := uuid.New(), uuid.New()

	a1 := env.createTask(t, alice, "Dishes")
	env.createTask(t, alice, "Laundry")
	env.createTask(t, bob, "Vacuum")

	w := env.do(t, alice, http.MethodGet, "/api/recurring-tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[RecurringTaskListResponse](t, w)
	assert.Len(t, list.RecurringTasks, 2)
	for _, rt := range list.RecurringTasks {
		assert.Equal(t, alice, rt.UserID)
	}

	w = env.do(t, alice, http.MethodGet, "/api/recurring-tasks/"+a1.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dishes", decodeBody[RecurringTaskResponse](t, w).Title)

	t.Run("other owner is forbidden", func(t *testing.T) {
		w := env.do(t, bob, http.MethodGet, "/api/recurring-tasks/"+a1.ID.String(), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown template", func(t *testing.T) {
		w := env.do(t, alice, http.MethodGet, "/api/recurring-tasks/"+uuid.NewString(), nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "Recurring task not found")
	})

	t.Run("malformed id", func(t *testing.T) {
		w := env.do(t, alice, http.MethodGet, "/api/recurring-tasks/not-a-uuid", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "id", decodeBody[shared.ErrorResponse](t, w).Field)
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		w := env.do(t, uuid.New(), http.MethodGet, "/api/recurring-tasks", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"recurring_tasks":[]}`, w.Body.String())
	})
}

func TestMaterializeAndListInstances(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	rt := env.createTask(t, user, "Feed cat")
	base := "/api/recurring-tasks/" + rt.ID.String()

	w := env.do(t, user, http.MethodPost, base+"/materialize", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeBody[MaterializeResponse](t, w)
	assert.Equal(t, 7, res.Created)
	require.Len(t, res.Instances, 7)
	assert.True(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC).Equal(res.Instances[0].DueDate))
	assert.Equal(t, "medium", res.Instances[0].Priority)

	t.Run("second run skips existing", func(t *testing.T) {
		w := env.do(t, user, http.MethodPost, base+"/materialize", nil)
		require.Equal(t, http.StatusOK, w.Code)
		res := decodeBody[MaterializeResponse](t, w)
		assert.Equal(t, 0, res.Created)
		assert.Equal(t, 7, res.Skipped)
		assert.NotNil(t, res.Instances)
	})

	t.Run("max_instances caps occurrences considered", func(t *testing.T) {
		w := env.do(t, user, http.MethodPost, base+"/materialize", map[string]interface{}{"max_instances": 2})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := decodeBody[MaterializeResponse](t, w)
		assert.Equal(t, 0, res.Created)
		assert.Equal(t, 2, res.Skipped)
	})

	t.Run("until extends the window", func(t *testing.T) {
		w := env.do(t, user, http.MethodPost, base+"/materialize", map[string]interface{}{
			"until": "2024-03-21T00:00:00Z",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := decodeBody[MaterializeResponse](t, w)
		assert.Equal(t, 3, res.Created)
		assert.Equal(t, 7, res.Skipped)
		assert.Len(t, env.store.InstancesFor(rt.ID), 10)
	})

	t.Run("pages through instances", func(t *testing.T) {
		w := env.do(t, user, http.MethodGet, base+"/instances?limit=5&offset=0", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decodeBody[InstanceListResponse](t, w)
		assert.Len(t, page.Instances, 5)
		assert.Equal(t, 5, page.Limit)
		assert.True(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC).Equal(page.Instances[0].DueDate))

		w = env.do(t, user, http.MethodGet, base+"/instances?limit=5&offset=8", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody[InstanceListResponse](t, w).Instances, 2)

		w = env.do(t, user, http.MethodGet, base+"/instances", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page = decodeBody[InstanceListResponse](t, w)
		assert.Equal(t, DefaultInstancePageSize, page.Limit)
		assert.Len(t, page.Instances, 10)
	})

	t.Run("limit above the page cap", func(t *testing.T) {
		w := env.do(t, user, http.MethodGet, fmt.Sprintf("%s/instances?limit=%d", base, store.MaxInstancePageSize+1), nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "limit", decodeBody[shared.ErrorResponse](t, w).Field)
	})

	t.Run("non-numeric offset", func(t *testing.T) {
		w := env.do(t, user, http.MethodGet, base+"/instances?offset=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid max_instances", func(t *testing.T) {
		w := env.do(t, user, http.MethodPost, base+"/materialize", map[string]interface{}{"max_instances": -1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not the owner", func(t *testing.T) {
		w := env.do(t, uuid.New(), http.MethodPost, base+"/materialize", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestPreviewOccurrences(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	rt := env.createTask(t, user, "Stretch")
	base := "/api/recurring-tasks/" + rt.ID.String() + "/occurrences"

	w := env.do(t, user, http.MethodGet, base+"?count=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[OccurrencesResponse](t, w)
	require.Len(t, resp.Occurrences, 3)
	assert.True(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC).Equal(resp.Occurrences[0]))
	assert.True(t, time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC).Equal(resp.Occurrences[2]))

	w = env.do(t, user, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[OccurrencesResponse](t, w).Occurrences, 10)

	w = env.do(t, user, http.MethodGet, base+"?count=51", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRecurringTask(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	rt := env.createTask(t, user, "Take out trash")
	base := "/api/recurring-tasks/" + rt.ID.String()

	w := env.do(t, user, http.MethodPost, base+"/materialize", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.store.InstancesFor(rt.ID), 7)

	t.Run("title change keeps the schedule", func(t *testing.T) {
		w := env.do(t, user, http.MethodPut, base, map[string]interface{}{"title": "Take out recycling"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeBody[RecurringTaskResponse](t, w)
		assert.Equal(t, "Take out recycling", resp.Title)
		assert.Equal(t, "FREQ=DAILY", resp.RRule)
		assert.Empty(t, env.store.InstancesFor(rt.ID))
	})

	t.Run("rule change", func(t *testing.T) {
		w := env.do(t, user, http.MethodPut, base, map[string]interface{}{"rrule": "FREQ=WEEKLY;BYDAY=TU"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeBody[RecurringTaskResponse](t, w)
		assert.Equal(t, "FREQ=WEEKLY;BYDAY=TU", resp.RRule)
		assert.Equal(t, "Take out recycling", resp.Title)
	})

	t.Run("invalid rule", func(t *testing.T) {
		w := env.do(t, user, http.MethodPut, base, map[string]interface{}{"rrule": "FREQ=SOMETIMES"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "FREQ", decodeBody[shared.ErrorResponse](t, w).Field)
	})

	t.Run("other owner", func(t *testing.T) {
		w := env.do(t, uuid.New(), http.MethodPut, base, map[string]interface{}{"title": "Mine now"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestDeleteRecurringTask(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()

	t.Run("deactivate keeps instances", func(t *testing.T) {
		rt := env.createTask(t, user, "Mop")
		base := "/api/recurring-tasks/" + rt.ID.String()
		require.Equal(t, http.StatusOK, env.do(t, user, http.MethodPost, base+"/materialize", nil).Code)

		w := env.do(t, user, http.MethodDelete, base, nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody[DeactivateResponse](t, w)
		assert.False(t, resp.Active)
		assert.Zero(t, resp.InstancesDeleted)
		assert.Len(t, env.store.InstancesFor(rt.ID), 7)

		w = env.do(t, user, http.MethodPost, base+"/materialize", nil)
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "Recurring task is inactive")
	})

	t.Run("cascade deletes instances", func(t *testing.T) {
		rt := env.createTask(t, user, "Dust")
		base := "/api/recurring-tasks/" + rt.ID.String()
		require.Equal(t, http.StatusOK, env.do(t, user, http.MethodPost, base+"/materialize", nil).Code)

		w := env.do(t, user, http.MethodDelete, base+"?cascade=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(7), decodeBody[DeactivateResponse](t, w).InstancesDeleted)
		assert.Empty(t, env.store.InstancesFor(rt.ID))
	})

	t.Run("bad cascade value", func(t *testing.T) {
		rt := env.createTask(t, user, "Sweep")
		w := env.do(t, user, http.MethodDelete, "/api/recurring-tasks/"+rt.ID.String()+"?cascade=maybe", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNewRecurringTaskHandler_NilDependencies(t *testing.T) {
	assert.Panics(t, func() { NewRecurringTaskHandler(nil, testLogger) })
}
