package repository

import (
	"context"
	"errors"

	"github.com/unclebandit/campaign-directory/internal/model"
)

var errSessionClosed = errors.New("store session is closed")

// CampaignStore hands out request-scoped sessions. Every session returned by
// Acquire must be closed by the caller.
type CampaignStore interface {
	Acquire(ctx context.Context) (CampaignSession, error)
}

// CampaignSession is the set of record operations available while a session is held.
type CampaignSession interface {
	// List returns every campaign in insertion order.
	List(ctx context.Context) ([]*model.Campaign, error)
	GetByID(ctx context.Context, id int64) (*model.Campaign, error)
	// Create assigns ID and CreatedAt on c.
	Create(ctx context.Context, c *model.Campaign) error
	// Update replaces Name and DueDate, and refreshes c from the stored row.
	Update(ctx context.Context, c *model.Campaign) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	Close() error
}
