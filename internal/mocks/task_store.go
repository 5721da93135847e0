package mocks

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/store"
)

type occurrenceKey struct {
	templateID uuid.UUID
	due        int64
}

func keyOf(inst *domain.TaskInstance) occurrenceKey {
	return occurrenceKey{templateID: inst.TemplateID, due: inst.OccurrenceDate.UTC().UnixNano()}
}

// MockTaskStore is an in-memory store.TaskStore. It enforces the
// (template, occurrence) uniqueness of instances the way the SQL stores do
// and returns copies so callers cannot mutate stored entities.
//
// The exported fields configure failures. Set them before the store is
// shared with other goroutines.
type MockTaskStore struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*domain.TaskTemplate
	instances map[uuid.UUID]*domain.TaskInstance
	keys      map[occurrenceKey]uuid.UUID

	// Err, when set, is returned by every operation.
	Err error

	// UpsertErrFn, when set, is called before each upsert; a non-nil
	// result fails that upsert without storing anything.
	UpsertErrFn func(inst *domain.TaskInstance) error

	// FindActiveTemplatesErr fails FindActiveTemplates only.
	FindActiveTemplatesErr error

	// DeleteInstanceErrFn, when set, is called before each DeleteInstance.
	DeleteInstanceErrFn func(id uuid.UUID) error

	upsertCalls int
}

// NewMockTaskStore creates an empty MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		templates: make(map[uuid.UUID]*domain.TaskTemplate),
		instances: make(map[uuid.UUID]*domain.TaskInstance),
		keys:      make(map[occurrenceKey]uuid.UUID),
	}
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// UpsertCalls returns how many times UpsertInstanceIfAbsent was called.
func (m *MockTaskStore) UpsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertCalls
}

// InstancesFor returns copies of the template's instances ordered by due date.
func (m *MockTaskStore) InstancesFor(templateID uuid.UUID) []*domain.TaskInstance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instancesWhere(func(i *domain.TaskInstance) bool { return i.TemplateID == templateID })
}

// AddInstance stores inst directly, bypassing validation and failure
// injection. It panics if the occurrence already exists.
func (m *MockTaskStore) AddInstance(inst *domain.TaskInstance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := keyOf(inst)
	if _, ok := m.keys[k]; ok {
		panic(fmt.Sprintf("occurrence %s already stored for template %s", inst.OccurrenceDate, inst.TemplateID))
	}
	m.instances[inst.ID] = cloneInstance(inst)
	m.keys[k] = inst.ID
}

// CreateTemplate implements store.TaskStore.CreateTemplate.
func (m *MockTaskStore) CreateTemplate(_ context.Context, tmpl *domain.TaskTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if _, ok := m.templates[tmpl.ID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := m.instances[tmpl.ID]; ok {
		return store.ErrDuplicate
	}
	tmpl.Revision = max(tmpl.Revision, 1)
	m.templates[tmpl.ID] = cloneTemplate(tmpl)
	return nil
}

// GetTemplate implements store.TaskStore.GetTemplate.
func (m *MockTaskStore) GetTemplate(_ context.Context, id uuid.UUID) (*domain.TaskTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	tmpl, ok := m.templates[id]
	if !ok {
		return nil, store.ErrTemplateNotFound
	}
	return cloneTemplate(tmpl), nil
}

// ListTemplatesByUser implements store.TaskStore.ListTemplatesByUser.
func (m *MockTaskStore) ListTemplatesByUser(_ context.Context, userID uuid.UUID) ([]*domain.TaskTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := m.templatesWhere(func(t *domain.TaskTemplate) bool { return t.UserID == userID })
	slices.Reverse(out)
	return out, nil
}

// FindActiveTemplates implements store.TaskStore.FindActiveTemplates.
func (m *MockTaskStore) FindActiveTemplates(_ context.Context) ([]*domain.TaskTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.FindActiveTemplatesErr != nil {
		return nil, m.FindActiveTemplatesErr
	}
	return m.templatesWhere(func(t *domain.TaskTemplate) bool { return t.Active }), nil
}

// UpdateTemplate implements store.TaskStore.UpdateTemplate.
func (m *MockTaskStore) UpdateTemplate(_ context.Context, tmpl *domain.TaskTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	current, ok := m.templates[tmpl.ID]
	if !ok {
		return store.ErrTemplateNotFound
	}
	tmpl.Revision = current.Revision + 1
	m.templates[tmpl.ID] = cloneTemplate(tmpl)
	return nil
}

// UpsertInstanceIfAbsent implements store.TaskStore.UpsertInstanceIfAbsent.
func (m *MockTaskStore) UpsertInstanceIfAbsent(_ context.Context, inst *domain.TaskInstance) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if m.Err != nil {
		return false, m.Err
	}
	if m.UpsertErrFn != nil {
		if err := m.UpsertErrFn(inst); err != nil {
			return false, err
		}
	}
	if err := inst.Validate(); err != nil {
		return false, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	parent, ok := m.templates[inst.TemplateID]
	if !ok {
		return false, fmt.Errorf("%w: parent template %s does not exist", store.ErrInvalidEntity, inst.TemplateID)
	}
	if !parent.Active || parent.Revision != inst.TemplateRevision {
		return false, store.ErrTemplateChanged
	}
	k := keyOf(inst)
	if _, ok := m.keys[k]; ok {
		return false, nil
	}
	if _, ok := m.instances[inst.ID]; ok {
		return false, nil
	}
	m.instances[inst.ID] = cloneInstance(inst)
	m.keys[k] = inst.ID
	return true, nil
}

// GetInstance implements store.TaskStore.GetInstance.
func (m *MockTaskStore) GetInstance(_ context.Context, id uuid.UUID) (*domain.TaskInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	inst, ok := m.instances[id]
	if !ok {
		return nil, store.ErrInstanceNotFound
	}
	return cloneInstance(inst), nil
}

// ListInstancesByTemplate implements store.TaskStore.ListInstancesByTemplate.
func (m *MockTaskStore) ListInstancesByTemplate(
	_ context.Context,
	templateID uuid.UUID,
	limit, offset int,
) ([]*domain.TaskInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if limit <= 0 || limit > store.MaxInstancePageSize {
		limit = store.MaxInstancePageSize
	}
	offset = max(offset, 0)
	all := m.instancesWhere(func(i *domain.TaskInstance) bool { return i.TemplateID == templateID })
	if offset >= len(all) {
		return []*domain.TaskInstance{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

// FindInstancesOlderThan implements store.TaskStore.FindInstancesOlderThan.
func (m *MockTaskStore) FindInstancesOlderThan(_ context.Context, cutoff time.Time) ([]*domain.TaskInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.instancesWhere(func(i *domain.TaskInstance) bool { return i.OccurrenceDate.Before(cutoff) }), nil
}

// UpdateInstance implements store.TaskStore.UpdateInstance.
func (m *MockTaskStore) UpdateInstance(_ context.Context, inst *domain.TaskInstance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := inst.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	current, ok := m.instances[inst.ID]
	if !ok {
		return store.ErrInstanceNotFound
	}
	updated := cloneInstance(current)
	updated.Payload.Title = inst.Title
	updated.Payload.Description = inst.Description
	updated.Completed = inst.Completed
	updated.CompletedAt = cloneTime(inst.CompletedAt)
	updated.UserModified = inst.UserModified
	updated.UpdatedAt = inst.UpdatedAt
	m.instances[inst.ID] = updated
	return nil
}

// DeleteInstance implements store.TaskStore.DeleteInstance.
func (m *MockTaskStore) DeleteInstance(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.DeleteInstanceErrFn != nil {
		if err := m.DeleteInstanceErrFn(id); err != nil {
			return err
		}
	}
	inst, ok := m.instances[id]
	if !ok {
		return store.ErrInstanceNotFound
	}
	m.remove(inst)
	return nil
}

// DeleteFutureInstances implements store.TaskStore.DeleteFutureInstances.
func (m *MockTaskStore) DeleteFutureInstances(_ context.Context, templateID uuid.UUID, from time.Time) (int64, error) {
	return m.deleteWhere(func(i *domain.TaskInstance) bool {
		return i.TemplateID == templateID && !i.OccurrenceDate.Before(from) &&
			!i.Completed && !i.UserModified
	})
}

// DeleteInstancesByTemplate implements store.TaskStore.DeleteInstancesByTemplate.
func (m *MockTaskStore) DeleteInstancesByTemplate(_ context.Context, templateID uuid.UUID) (int64, error) {
	return m.deleteWhere(func(i *domain.TaskInstance) bool { return i.TemplateID == templateID })
}

// WithTx implements store.TaskStore.WithTx. The mock has no transactions
// of its own and returns itself.
func (m *MockTaskStore) WithTx(_ *sql.Tx) store.TaskStore {
	return m
}

// InTransaction implements store.TaskStore.InTransaction. State is
// restored from a snapshot when fn fails. Concurrent writers are not
// isolated from the transaction.
func (m *MockTaskStore) InTransaction(ctx context.Context, fn func(ctx context.Context, ts store.TaskStore) error) error {
	m.mu.Lock()
	if m.Err != nil {
		m.mu.Unlock()
		return m.Err
	}
	templates, instances, keys := m.snapshot()
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.templates, m.instances, m.keys = templates, instances, keys
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MockTaskStore) snapshot() (map[uuid.UUID]*domain.TaskTemplate, map[uuid.UUID]*domain.TaskInstance, map[occurrenceKey]uuid.UUID) {
	templates := make(map[uuid.UUID]*domain.TaskTemplate, len(m.templates))
	for id, t := range m.templates {
		templates[id] = cloneTemplate(t)
	}
	instances := make(map[uuid.UUID]*domain.TaskInstance, len(m.instances))
	for id, i := range m.instances {
		instances[id] = cloneInstance(i)
	}
	keys := make(map[occurrenceKey]uuid.UUID, len(m.keys))
	for k, id := range m.keys {
		keys[k] = id
	}
	return templates, instances, keys
}

func (m *MockTaskStore) deleteWhere(match func(*domain.TaskInstance) bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for _, inst := range m.instances {
		if match(inst) {
			m.remove(inst)
			n++
		}
	}
	return n, nil
}

func (m *MockTaskStore) remove(inst *domain.TaskInstance) {
	delete(m.instances, inst.ID)
	delete(m.keys, keyOf(inst))
}

// templatesWhere returns matching templates ordered by creation time.
func (m *MockTaskStore) templatesWhere(match func(*domain.TaskTemplate) bool) []*domain.TaskTemplate {
	out := make([]*domain.TaskTemplate, 0)
	for _, t := range m.templates {
		if match(t) {
			out = append(out, cloneTemplate(t))
		}
	}
	slices.SortFunc(out, func(a, b *domain.TaskTemplate) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// instancesWhere returns matching instances ordered by due date.
func (m *MockTaskStore) instancesWhere(match func(*domain.TaskInstance) bool) []*domain.TaskInstance {
	out := make([]*domain.TaskInstance, 0)
	for _, i := range m.instances {
		if match(i) {
			out = append(out, cloneInstance(i))
		}
	}
	slices.SortFunc(out, func(a, b *domain.TaskInstance) int {
		if c := a.OccurrenceDate.Compare(b.OccurrenceDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

func cloneTemplate(t *domain.TaskTemplate) *domain.TaskTemplate {
	c := *t
	c.Payload = clonePayload(t.Payload)
	c.EndDate = cloneTime(t.EndDate)
	return &c
}

func cloneInstance(i *domain.TaskInstance) *domain.TaskInstance {
	c := *i
	c.Payload = clonePayload(i.Payload)
	c.CompletedAt = cloneTime(i.CompletedAt)
	return &c
}

func clonePayload(p domain.Payload) domain.Payload {
	c := p
	c.Priority = p.Priority.OrDefault()
	if p.CategoryID != nil {
		id := *p.CategoryID
		c.CategoryID = &id
	}
	if p.RoomID != nil {
		id := *p.RoomID
		c.RoomID = &id
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
