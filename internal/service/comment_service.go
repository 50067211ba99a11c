package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// CommentService manages ticket threads.
type CommentService struct {
	store      repository.Store
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(store repository.Store, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{store: store, dispatcher: dispatcher}
}

// List returns the thread of a ticket in creation order.
func (s *CommentService) List(ctx context.Context, actor *domain.User, ticketID int64) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := s.store.InTx(ctx, func(sess repository.Session) error {
		ticket, err := loadTicket(ctx, sess, ticketID)
		if err != nil {
			return err
		}
		if err := policy.CanAccessComments(actor, ticket); err != nil {
			return err
		}
		comments, err = sess.Comments().ListByTicket(ctx, ticket.ID)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return comments, nil
}

// Create appends a comment authored by actor.
func (s *CommentService) Create(ctx context.Context, actor *domain.User, ticketID int64, content string) (*domain.Comment, error) {
	comment := &domain.Comment{
		TicketID: ticketID,
		AuthorID: actor.ID,
		Content:  strings.TrimSpace(content),
	}

	err := s.store.InTx(ctx, func(sess repository.Session) error {
		ticket, err := loadTicket(ctx, sess, ticketID)
		if err != nil {
			return err
		}
		if err := policy.CanAccessComments(actor, ticket); err != nil {
			return err
		}
		if comment.Content == "" {
			return util.NewValidationError("content is required", map[string]any{"field": "content"})
		}
		return sess.Comments().Create(ctx, comment)
	})
	if err != nil {
		return nil, storeError(err)
	}

	publish(ctx, s.dispatcher, events.NewEvent(events.EventCommentAdded, ticketID, actor.ID, events.CommentAddedPayload{
		CommentID:   comment.ID,
		AuthorID:    actor.ID,
		BodyPreview: stringPreview(comment.Content, 120),
	}))
	return comment, nil
}
