package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/mocks"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/service"
)

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func storeTemplate(t *testing.T, s *mocks.MockTaskStore, rule string, start time.Time) *domain.TaskTemplate {
	t.Helper()
	tmpl, err := domain.NewTaskTemplate(uuid.New(), domain.Payload{Title: "Take out recycling"}, rule, start, nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateTemplate(context.Background(), tmpl))
	return tmpl
}

func newTestMaterializer(s *mocks.MockTaskStore) *service.Materializer {
	return service.NewMaterializer(s, service.MaterializerConfig{MaxInstances: 500}, setupTestLogger())
}
