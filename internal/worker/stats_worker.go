package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/events"
)

// StartStatsInvalidator drops cached ticket counters whenever a ticket is
// created, deleted or changes status.
func StartStatsInvalidator(dispatcher events.Dispatcher, stats cache.StatsCache, logger *zap.Logger) {
	if dispatcher == nil || stats == nil {
		return
	}

	handler := func(ctx context.Context, e events.Event) error {
		if err := stats.Invalidate(ctx); err != nil {
			return err
		}
		logger.Debug("ticket stats invalidated", zap.String("event_type", string(e.Type)), zap.Int64("ticket_id", e.TicketID))
		return nil
	}

	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketDeleted,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
