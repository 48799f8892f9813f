package service

import (
	"context"

	"github.com/unclebandit/campaign-directory/internal/model"
)

// CampaignServicer is the campaign directory as seen by the HTTP layer.
type CampaignServicer interface {
	ListCampaigns(ctx context.Context) ([]*model.Campaign, error)
	GetCampaign(ctx context.Context, id int64) (*model.Campaign, error)
	CreateCampaign(ctx context.Context, in model.CampaignInput) (*model.Campaign, error)
	UpdateCampaign(ctx context.Context, id int64, in model.CampaignInput) (*model.Campaign, error)
	DeleteCampaign(ctx context.Context, id int64) error
}

var _ CampaignServicer = (*CampaignService)(nil)
