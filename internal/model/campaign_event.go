// internal/model/campaign_event.go
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	CampaignCreated = "campaign.created"
	CampaignUpdated = "campaign.updated"
	CampaignDeleted = "campaign.deleted"
)

// CampaignEvent is published after every successful mutation.
type CampaignEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	CampaignID int64     `json:"campaign_id"`
	Campaign   *Campaign `json:"campaign,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewCampaignEvent(eventType string, campaignID int64, snapshot *Campaign) CampaignEvent {
	return CampaignEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		CampaignID: campaignID,
		Campaign:   snapshot,
		OccurredAt: time.Now().UTC(),
	}
}

// DecodeCampaignEvent accepts the payload shapes a queue can hand to a
// subscriber: the event itself, or its JSON encoding.
func DecodeCampaignEvent(payload any) (CampaignEvent, error) {
	switch p := payload.(type) {
	case CampaignEvent:
		return p, nil
	case *CampaignEvent:
		if p == nil {
			return CampaignEvent{}, fmt.Errorf("nil campaign event")
		}
		return *p, nil
	case []byte:
		return unmarshalEvent(p)
	case json.RawMessage:
		return unmarshalEvent(p)
	default:
		return CampaignEvent{}, fmt.Errorf("unexpected payload type %T", payload)
	}
}

func unmarshalEvent(b []byte) (CampaignEvent, error) {
	var ev CampaignEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return CampaignEvent{}, fmt.Errorf("decode campaign event: %w", err)
	}
	if ev.Type == "" {
		return CampaignEvent{}, fmt.Errorf("campaign event missing type")
	}
	return ev, nil
}
