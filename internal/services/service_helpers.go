package services

import (
	"context"
	"log/slog"
	"math"

	"github.com/inedit/inedit-service/internal/events"
	"github.com/inedit/inedit-service/internal/models"
	"github.com/inedit/inedit-service/internal/repositories"
)

// publishEvent sends after commit. Failures are logged and never reach the caller.
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, event *events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}

// percentage returns correct/total*100 rounded to 2 decimals, 0 when total is 0
func percentage(correct, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*100*100) / 100
}

func questionIDs(questions []*models.Question) []uint {
	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	return ids
}

// notFoundAs maps repository misses to a service sentinel
func notFoundAs(err, sentinel error) error {
	if repositories.IsNotFoundError(err) {
		return sentinel
	}
	return err
}
