// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-directory/internal/errors"
	"github.com/unclebandit/campaign-directory/internal/model"
	"github.com/unclebandit/campaign-directory/internal/queue"
	"github.com/unclebandit/campaign-directory/internal/repository"
)

const maxNameLength = 255

// DefaultCampaigns are inserted by SeedDefaults into an empty store.
var DefaultCampaigns = []string{"Summer Launch", "Black Friday"}

type CampaignService struct {
	Store repository.CampaignStore
	Queue queue.Queue
	Topic string
	Log   *zap.Logger
}

func NewCampaignService(store repository.CampaignStore, q queue.Queue, topic string, log *zap.Logger) *CampaignService {
	return &CampaignService{Store: store, Queue: q, Topic: topic, Log: log}
}

// withSession runs fn with a freshly acquired store session and always releases it.
func (s *CampaignService) withSession(ctx context.Context, fn func(repository.CampaignSession) error) error {
	sess, err := s.Store.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire store session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.Log.Warn("Failed to release store session", zap.Error(err))
		}
	}()
	return fn(sess)
}

func (s *CampaignService) ListCampaigns(ctx context.Context) ([]*model.Campaign, error) {
	var campaigns []*model.Campaign
	err := s.withSession(ctx, func(sess repository.CampaignSession) error {
		var err error
		campaigns, err = sess.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if campaigns == nil {
		campaigns = []*model.Campaign{}
	}
	return campaigns, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	if id <= 0 {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	var c *model.Campaign
	err := s.withSession(ctx, func(sess repository.CampaignSession) error {
		var err error
		c, err = sess.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) CreateCampaign(ctx context.Context, in model.CampaignInput) (*model.Campaign, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	c := &model.Campaign{Name: in.Name, DueDate: in.DueDate}
	if err := s.withSession(ctx, func(sess repository.CampaignSession) error {
		return sess.Create(ctx, c)
	}); err != nil {
		return nil, err
	}

	s.Log.Info("Campaign created", zap.Int64("campaign_id", c.ID), zap.String("name", c.Name))
	s.publish(model.CampaignCreated, c.ID, c)
	return c, nil
}

// UpdateCampaign replaces name and due_date. An absent due_date clears it.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id int64, in model.CampaignInput) (*model.Campaign, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, appErrors.NewCampaignNotFound(id)
	}

	c := &model.Campaign{ID: id, Name: in.Name, DueDate: in.DueDate}
	if err := s.withSession(ctx, func(sess repository.CampaignSession) error {
		return sess.Update(ctx, c)
	}); err != nil {
		return nil, err
	}

	s.Log.Info("Campaign updated", zap.Int64("campaign_id", c.ID), zap.String("name", c.Name))
	s.publish(model.CampaignUpdated, c.ID, c)
	return c, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	if err := s.withSession(ctx, func(sess repository.CampaignSession) error {
		return sess.Delete(ctx, id)
	}); err != nil {
		return err
	}

	s.Log.Info("Campaign deleted", zap.Int64("campaign_id", id))
	s.publish(model.CampaignDeleted, id, nil)
	return nil
}

// SeedDefaults inserts DefaultCampaigns when the store holds no campaigns and
// returns how many were inserted. A default that already exists is skipped.
// Seeding does not publish events.
func (s *CampaignService) SeedDefaults(ctx context.Context) (int, error) {
	inserted := 0
	err := s.withSession(ctx, func(sess repository.CampaignSession) error {
		n, err := sess.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, name := range DefaultCampaigns {
			err := sess.Create(ctx, &model.Campaign{Name: name})
			if appErrors.IsConflict(err) {
				// another process seeded between Count and Create
				s.Log.Info("Default campaign already present, skipping", zap.String("name", name))
				continue
			}
			if err != nil {
				return fmt.Errorf("seed %q: %w", name, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return inserted, err
	}
	if inserted > 0 {
		s.Log.Info("Seeded default campaigns", zap.Int("count", inserted))
	}
	return inserted, nil
}

func (s *CampaignService) publish(eventType string, id int64, snapshot *model.Campaign) {
	if s.Queue == nil {
		return
	}
	if snapshot != nil {
		cp := *snapshot
		snapshot = &cp
	}
	ev := model.NewCampaignEvent(eventType, id, snapshot)
	if err := s.Queue.Publish(s.Topic, ev); err != nil {
		s.Log.Warn("Failed to publish campaign event",
			zap.String("event_type", eventType),
			zap.Int64("campaign_id", id),
			zap.Error(err))
	}
}

func normalizeInput(in model.CampaignInput) (model.CampaignInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, appErrors.NewInvalidCampaign("name", "is required")
	}
	if utf8.RuneCountInString(in.Name) > maxNameLength {
		return in, appErrors.NewInvalidCampaign("name", fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	if in.DueDate != nil {
		due := in.DueDate.UTC()
		in.DueDate = &due
	}
	return in, nil
}
