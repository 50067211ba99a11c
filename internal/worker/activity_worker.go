package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
)

// StartActivityLogger writes one log line per triage or thread change that
// has no other consumer: priority changes and new comments.
func StartActivityLogger(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil || logger == nil {
		return
	}

	dispatcher.Subscribe(events.EventTicketPriorityChanged, func(_ context.Context, e events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", e.ID),
			zap.Int64("ticket_id", e.TicketID),
			zap.Int64("actor_id", e.ActorID),
		}
		if p, ok := e.Payload.(events.TicketPriorityChangedPayload); ok {
			fields = append(fields,
				zap.String("old_priority", string(p.OldPriority)),
				zap.String("new_priority", string(p.NewPriority)),
			)
		}
		logger.Info("ticket priority changed", fields...)
		return nil
	})

	dispatcher.Subscribe(events.EventCommentAdded, func(_ context.Context, e events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", e.ID),
			zap.Int64("ticket_id", e.TicketID),
			zap.Int64("actor_id", e.ActorID),
		}
		if p, ok := e.Payload.(events.CommentAddedPayload); ok {
			fields = append(fields,
				zap.Int64("comment_id", p.CommentID),
				zap.String("preview", p.BodyPreview),
			)
		}
		logger.Info("comment added", fields...)
		return nil
	})
}
