package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
)

func TestNewMaintenanceWindow(t *testing.T) {
	now := date(2024, 5, 1, 3, 0)
	w := NewMaintenanceWindow(now, 30*24*time.Hour, 30*24*time.Hour)

	assert.Equal(t, now, w.From)
	assert.Equal(t, date(2024, 5, 31, 3, 0), w.To)
	assert.Equal(t, date(2024, 4, 1, 3, 0), w.PruneBefore)
}

func TestMaintenanceWindow_For(t *testing.T) {
	now := date(2024, 5, 1, 3, 0)
	w := NewMaintenanceWindow(now, 30*24*time.Hour, 0)

	tmpl := func(start time.Time, end *time.Time) *domain.TaskTemplate {
		return &domain.TaskTemplate{ID: uuid.New(), StartDate: start, EndDate: end}
	}

	t.Run("started template uses now", func(t *testing.T) {
		from, to, ok := w.For(tmpl(date(2024, 1, 1, 9, 0), nil))
		assert.True(t, ok)
		assert.Equal(t, now, from)
		assert.Equal(t, w.To, to)
	})

	t.Run("future template starts at its start date", func(t *testing.T) {
		start := date(2024, 5, 10, 9, 0)
		from, _, ok := w.For(tmpl(start, nil))
		assert.True(t, ok)
		assert.Equal(t, start, from)
	})

	t.Run("template starting after the window", func(t *testing.T) {
		_, _, ok := w.For(tmpl(date(2024, 7, 1, 9, 0), nil))
		assert.False(t, ok)
	})

	t.Run("ended template", func(t *testing.T) {
		end := date(2024, 4, 1, 0, 0)
		_, _, ok := w.For(tmpl(date(2024, 1, 1, 9, 0), &end))
		assert.False(t, ok)
	})
}
