// internal/model/campaign.go
package model

import "time"

type Campaign struct {
	ID        int64      `db:"campaign_id" json:"id"`
	Name      string     `db:"name" json:"name"`
	DueDate   *time.Time `db:"due_date" json:"due_date"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// CampaignInput is the request body accepted by create and update.
type CampaignInput struct {
	Name    string     `json:"name"`
	DueDate *time.Time `json:"due_date"`
}
