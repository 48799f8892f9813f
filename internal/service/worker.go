package service

import (
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-directory/internal/metrics"
	"github.com/unclebandit/campaign-directory/internal/model"
)

// Worker consumes campaign change events and writes them to the audit log.
type Worker struct {
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

func NewWorker(log *zap.Logger, m *metrics.Metrics) *Worker {
	return &Worker{Log: log, Metrics: m}
}

// Handle is a queue subscriber. Undecodable payloads are logged and dropped
// rather than retried.
func (w *Worker) Handle(payload any) error {
	ev, err := model.DecodeCampaignEvent(payload)
	if err != nil {
		w.Log.Warn("Dropping invalid campaign event", zap.Error(err))
		w.count("invalid")
		return nil
	}

	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.String("event_type", ev.Type),
		zap.Int64("campaign_id", ev.CampaignID),
		zap.Time("occurred_at", ev.OccurredAt),
	}
	if ev.Campaign != nil {
		fields = append(fields, zap.String("name", ev.Campaign.Name))
		if ev.Campaign.DueDate != nil {
			fields = append(fields, zap.Time("due_date", *ev.Campaign.DueDate))
		}
	}
	w.Log.Info("Campaign event", fields...)
	w.count(ev.Type)
	return nil
}

func (w *Worker) count(eventType string) {
	if w.Metrics == nil {
		return
	}
	w.Metrics.CampaignEvents.WithLabelValues(eventType).Inc()
}
