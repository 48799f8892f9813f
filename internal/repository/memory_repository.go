package repository

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/unclebandit/campaign-directory/internal/errors"
	"github.com/unclebandit/campaign-directory/internal/model"
)

// MemoryStore keeps campaigns in an ordered slice for the life of the process.
// Nothing survives a restart.
type MemoryStore struct {
	mu        sync.Mutex
	nextID    int64
	campaigns []*model.Campaign
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *MemoryStore) Acquire(ctx context.Context) (CampaignSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memorySession{store: s}, nil
}

type memorySession struct {
	store  *MemoryStore
	closed bool
}

func (m *memorySession) List(ctx context.Context) ([]*model.Campaign, error) {
	if m.closed {
		return nil, errSessionClosed
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, cloneCampaign(c))
	}
	return out, nil
}

func (m *memorySession) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	if m.closed {
		return nil, errSessionClosed
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return cloneCampaign(s.campaigns[i]), nil
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (m *memorySession) Create(ctx context.Context, c *model.Campaign) error {
	if m.closed {
		return errSessionClosed
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(c.Name, 0) {
		return appErrors.NewCampaignNameTaken(c.Name)
	}
	c.ID = s.nextID
	c.CreatedAt = s.now()
	c.DueDate = storedTime(c.DueDate)
	s.nextID++
	s.campaigns = append(s.campaigns, cloneCampaign(c))
	return nil
}

func (m *memorySession) Update(ctx context.Context, c *model.Campaign) error {
	if m.closed {
		return errSessionClosed
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(c.ID)
	if i < 0 {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	if s.nameTaken(c.Name, c.ID) {
		return appErrors.NewCampaignNameTaken(c.Name)
	}
	stored := s.campaigns[i]
	stored.Name = c.Name
	stored.DueDate = storedTime(c.DueDate)
	*c = *cloneCampaign(stored)
	return nil
}

func (m *memorySession) Delete(ctx context.Context, id int64) error {
	if m.closed {
		return errSessionClosed
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	s.campaigns = append(s.campaigns[:i], s.campaigns[i+1:]...)
	return nil
}

func (m *memorySession) Count(ctx context.Context) (int, error) {
	if m.closed {
		return 0, errSessionClosed
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return len(m.store.campaigns), nil
}

func (m *memorySession) Close() error {
	m.closed = true
	return nil
}

// indexOf and nameTaken expect s.mu to be held.
func (s *MemoryStore) indexOf(id int64) int {
	for i, c := range s.campaigns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) nameTaken(name string, exceptID int64) bool {
	for _, c := range s.campaigns {
		if c.Name == name && c.ID != exceptID {
			return true
		}
	}
	return false
}

func cloneCampaign(c *model.Campaign) *model.Campaign {
	cp := *c
	cp.DueDate = cloneTime(c.DueDate)
	return &cp
}

// storedTime matches the precision the SQL stores keep: UTC, whole microseconds.
func storedTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

var _ CampaignStore = (*MemoryStore)(nil)
