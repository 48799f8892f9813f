package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-directory/internal/errors"
	"github.com/unclebandit/campaign-directory/internal/model"
	"github.com/unclebandit/campaign-directory/internal/repository"
	"github.com/unclebandit/campaign-directory/internal/service"
)

// MockQueue is a mock implementation of queue.Queue
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Publish(topic string, payload any) error {
	args := m.Called(topic, payload)
	return args.Error(0)
}

func (m *MockQueue) Subscribe(topic string, handler func(payload any) error) error {
	args := m.Called(topic, handler)
	return args.Error(0)
}

// trackingStore counts sessions so tests can check every one is released.
type trackingStore struct {
	inner      repository.CampaignStore
	acquireErr error

	mu       sync.Mutex
	acquired int
	released int
}

func (s *trackingStore) Acquire(ctx context.Context) (repository.CampaignSession, error) {
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	sess, err := s.inner.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.acquired++
	s.mu.Unlock()
	return &trackingSession{CampaignSession: sess, store: s}, nil
}

func (s *trackingStore) open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired - s.released
}

type trackingSession struct {
	repository.CampaignSession
	store *trackingStore
}

func (t *trackingSession) Close() error {
	t.store.mu.Lock()
	t.store.released++
	t.store.mu.Unlock()
	return t.CampaignSession.Close()
}

func newService(t *testing.T) (*service.CampaignService, *trackingStore) {
	t.Helper()
	store := &trackingStore{inner: repository.NewMemoryStore()}
	svc := service.NewCampaignService(store, nil, "campaign_events", zap.NewNop())
	t.Cleanup(func() {
		assert.Zero(t, store.open(), "store sessions left open")
	})
	return svc, store
}

func TestCampaignService_Q4PushScenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	created, err := svc.CreateCampaign(ctx, model.CampaignInput{Name: "Q4 Push"})
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(0))
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.DueDate)

	got, err := svc.GetCampaign(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := svc.UpdateCampaign(ctx, created.ID, model.CampaignInput{Name: "Q4 Push Final"})
	require.NoError(t, err)
	assert.Equal(t, "Q4 Push Final", updated.Name)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	require.NoError(t, svc.DeleteCampaign(ctx, created.ID))

	_, err = svc.GetCampaign(ctx, created.ID)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestCampaignService_IDsUniqueAndStable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	seen := map[int64]string{}
	for _, name := range []string{"A", "B", "C", "D"} {
		c, err := svc.CreateCampaign(ctx, model.CampaignInput{Name: name})
		require.NoError(t, err)
		_, dup := seen[c.ID]
		require.False(t, dup, "duplicate id %d", c.ID)
		seen[c.ID] = name
	}
	for id, name := range seen {
		c, err := svc.GetCampaign(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name)
	}
}

func TestCampaignService_UpdateReplacesDueDate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	due := time.Date(2026, 12, 31, 23, 0, 0, 0, time.FixedZone("EAT", 3*3600))
	c, err := svc.CreateCampaign(ctx, model.CampaignInput{Name: "Year End", DueDate: &due})
	require.NoError(t, err)
	require.NotNil(t, c.DueDate)
	assert.True(t, due.Equal(*c.DueDate))
	assert.Equal(t, time.UTC, c.DueDate.Location())

	newDue := due.Add(24 * time.Hour)
	u, err := svc.UpdateCampaign(ctx, c.ID, model.CampaignInput{Name: "Year End", DueDate: &newDue})
	require.NoError(t, err)
	assert.True(t, newDue.Equal(*u.DueDate))

	u, err = svc.UpdateCampaign(ctx, c.ID, model.CampaignInput{Name: "Year End"})
	require.NoError(t, err)
	assert.Nil(t, u.DueDate)
}

func TestCampaignService_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	for _, id := range []int64{-1, 0, 404} {
		_, err := svc.GetCampaign(ctx, id)
		assert.True(t, appErrors.IsNotFound(err), "get %d", id)

		_, err = svc.UpdateCampaign(ctx, id, model.CampaignInput{Name: "x"})
		assert.True(t, appErrors.IsNotFound(err), "update %d", id)

		assert.True(t, appErrors.IsNotFound(svc.DeleteCampaign(ctx, id)), "delete %d", id)
	}
}

func TestCampaignService_DuplicateName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.CreateCampaign(ctx, model.CampaignInput{Name: "Black Friday"})
	require.NoError(t, err)

	_, err = svc.CreateCampaign(ctx, model.CampaignInput{Name: "  Black Friday  "})
	assert.True(t, appErrors.IsConflict(err))

	other, err := svc.CreateCampaign(ctx, model.CampaignInput{Name: "Cyber Monday"})
	require.NoError(t, err)
	_, err = svc.UpdateCampaign(ctx, other.ID, model.CampaignInput{Name: "Black Friday"})
	assert.True(t, appErrors.IsConflict(err))
}

func TestCampaignService_Validation(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	tests := []struct {
		name  string
		input model.CampaignInput
	}{
		{name: "empty name", input: model.CampaignInput{}},
		{name: "blank name", input: model.CampaignInput{Name: "   \t"}},
		{name: "name too long", input: model.CampaignInput{Name: strings.Repeat("x", 256)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCampaign(ctx, tt.input)
			assert.True(t, appErrors.IsInvalid(err))

			_, err = svc.UpdateCampaign(ctx, 1, tt.input)
			assert.True(t, appErrors.IsInvalid(err))
		})
	}
	assert.Zero(t, store.acquired, "validation must happen before touching the store")

	_, err := svc.CreateCampaign(ctx, model.CampaignInput{Name: strings.Repeat("é", 255)})
	assert.NoError(t, err)
}

func TestCampaignService_ListOrderAndEmpty(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	list, err := svc.ListCampaigns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	for _, name := range []string{"first", "second", "third"} {
		_, err := svc.CreateCampaign(ctx, model.CampaignInput{Name: name})
		require.NoError(t, err)
	}
	list, err = svc.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "first", list[0].Name)
	assert.Equal(t, "third", list[2].Name)
}

func TestCampaignService_SeedDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	n, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := svc.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Summer Launch", list[0].Name)
	assert.Equal(t, "Black Friday", list[1].Name)
}

// staleCountStore reports an empty store from Count, as a second process
// would see it if it counted before the first one finished seeding.
type staleCountStore struct {
	repository.CampaignStore
}

func (s staleCountStore) Acquire(ctx context.Context) (repository.CampaignSession, error) {
	sess, err := s.CampaignStore.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return staleCountSession{sess}, nil
}

type staleCountSession struct {
	repository.CampaignSession
}

func (staleCountSession) Count(ctx context.Context) (int, error) { return 0, nil }

func TestCampaignService_SeedDefaultsConcurrentSeeder(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()

	other, err := mem.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, other.Create(ctx, &model.Campaign{Name: "Summer Launch"}))
	require.NoError(t, other.Close())

	svc := service.NewCampaignService(staleCountStore{mem}, nil, "campaign_events", zap.NewNop())
	n, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := service.NewCampaignService(mem, nil, "campaign_events", zap.NewNop()).ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Summer Launch", list[0].Name)
	assert.Equal(t, "Black Friday", list[1].Name)
}

func TestCampaignService_AcquireError(t *testing.T) {
	boom := errors.New("pool exhausted")
	store := &trackingStore{inner: repository.NewMemoryStore(), acquireErr: boom}
	svc := service.NewCampaignService(store, nil, "campaign_events", zap.NewNop())

	_, err := svc.ListCampaigns(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCampaignService_ReleasesSessionOnErrors(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	_, _ = svc.GetCampaign(ctx, 1)
	_, _ = svc.UpdateCampaign(ctx, 1, model.CampaignInput{Name: "x"})
	_ = svc.DeleteCampaign(ctx, 1)
	_, _ = svc.CreateCampaign(ctx, model.CampaignInput{Name: "x"})
	_, _ = svc.CreateCampaign(ctx, model.CampaignInput{Name: "x"})

	assert.Equal(t, 5, store.acquired)
	assert.Zero(t, store.open())
}

func TestCampaignService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	q := new(MockQueue)
	svc := service.NewCampaignService(repository.NewMemoryStore(), q, "campaign_events", zap.NewNop())

	isEvent := func(eventType string) any {
		return mock.MatchedBy(func(ev model.CampaignEvent) bool {
			return ev.Type == eventType && ev.ID != "" && ev.CampaignID == 1
		})
	}
	q.On("Publish", "campaign_events", isEvent(model.CampaignCreated)).Return(nil).Once()
	q.On("Publish", "campaign_events", isEvent(model.CampaignUpdated)).Return(nil).Once()
	q.On("Publish", "campaign_events", isEvent(model.CampaignDeleted)).Return(errors.New("broker down")).Once()

	c, err := svc.CreateCampaign(ctx, model.CampaignInput{Name: "Launch"})
	require.NoError(t, err)
	_, err = svc.UpdateCampaign(ctx, c.ID, model.CampaignInput{Name: "Launch v2"})
	require.NoError(t, err)
	// a failed publish is logged, not returned
	require.NoError(t, svc.DeleteCampaign(ctx, c.ID))

	q.AssertExpectations(t)
}

func TestCampaignService_NoEventOnFailure(t *testing.T) {
	ctx := context.Background()
	q := new(MockQueue)
	svc := service.NewCampaignService(repository.NewMemoryStore(), q, "campaign_events", zap.NewNop())

	_, err := svc.CreateCampaign(ctx, model.CampaignInput{})
	require.Error(t, err)
	require.Error(t, svc.DeleteCampaign(ctx, 7))

	q.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
