package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	recorder   *audit.Recorder
	dispatcher events.Dispatcher
	stats      cache.StatsCache
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Recorder   *audit.Recorder
	Dispatcher events.Dispatcher
	StatsCache cache.StatsCache
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload. OwnerID is honoured for admins only.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Category    string
	OwnerID     *int64
}

// TicketMutation is the result of a committed ticket write together with
// what happened to its audit entry.
type TicketMutation struct {
	Ticket *domain.Ticket
	Audit  audit.Outcome
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:      deps.Store,
		recorder:   deps.Recorder,
		dispatcher: deps.Dispatcher,
		stats:      deps.StatsCache,
		logger:     logger,
	}
}

// List returns the tickets visible to actor, newest first.
func (s *TicketService) List(ctx context.Context, actor *domain.User, page Page) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		OwnerID: policy.TicketListScope(actor),
		Offset:  page.Skip,
		Limit:   page.Limit,
	}

	var tickets []domain.Ticket
	err := s.store.InTx(ctx, func(sess repository.Session) error {
		var err error
		tickets, err = sess.Tickets().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return tickets, nil
}

// Create opens a ticket. Non-admins always own what they create.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*TicketMutation, error) {
	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		Category:    strings.TrimSpace(input.Category),
		OwnerID:     policy.TicketOwner(actor, input.OwnerID),
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if ticket.Title == "" {
		return nil, util.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if !ticket.Priority.Valid() {
		return nil, util.NewValidationError("invalid priority", map[string]any{"priority": ticket.Priority})
	}

	err := s.store.InTx(ctx, func(sess repository.Session) error {
		owner := actor
		if ticket.OwnerID != actor.ID {
			var err error
			owner, err = sess.Users().GetByID(ctx, ticket.OwnerID)
			if errors.Is(err, repository.ErrNotFound) {
				return util.NewNotFound("owner", map[string]any{"owner_id": ticket.OwnerID})
			}
			if err != nil {
				return err
			}
		}
		if err := sess.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		ticket.Owner = &domain.TicketOwner{Email: owner.Email, FullName: owner.FullName, Role: owner.Role}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	outcome := s.recorder.Record(ctx, audit.Entry{
		ActorID:    actor.ID,
		Action:     domain.AuditActionCreateTicket,
		TargetType: domain.AuditTargetTicket,
		TargetID:   ticket.ID,
		Details:    fmt.Sprintf("Ticket '%s' created", ticket.Title),
	})
	publish(ctx, s.dispatcher, events.NewEvent(events.EventTicketCreated, ticket.ID, actor.ID, events.TicketCreatedPayload{
		OwnerID:  ticket.OwnerID,
		Priority: ticket.Priority,
		Title:    ticket.Title,
	}))
	return &TicketMutation{Ticket: ticket, Audit: outcome}, nil
}

// Get returns one ticket if actor may see it.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, ticketID int64) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.store.InTx(ctx, func(sess repository.Session) error {
		var err error
		if ticket, err = loadTicket(ctx, sess, ticketID); err != nil {
			return err
		}
		return policy.CanReadTicket(actor, ticket)
	})
	if err != nil {
		return nil, storeError(err)
	}
	return ticket, nil
}

// UpdateStatus sets the status. Any of the three statuses may follow any other.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID int64, status domain.TicketStatus) (*TicketMutation, error) {
	if !status.Valid() {
		return nil, util.NewValidationError("invalid status", map[string]any{"status": status})
	}

	var (
		ticket    *domain.Ticket
		oldStatus domain.TicketStatus
	)
	err := s.store.InTx(ctx, func(sess repository.Session) error {
		var err error
		if ticket, err = loadTicketForUpdate(ctx, sess, ticketID); err != nil {
			return err
		}
		if err := policy.CanModifyTicket(actor, ticket); err != nil {
			return err
		}
		oldStatus = ticket.Status
		if err := sess.Tickets().UpdateStatus(ctx, ticket.ID, status); err != nil {
			return err
		}
		ticket.Status = status
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	outcome := s.recorder.Record(ctx, audit.Entry{
		ActorID:    actor.ID,
		Action:     domain.AuditActionUpdateStatus,
		TargetType: domain.AuditTargetTicket,
		TargetID:   ticket.ID,
		Details:    fmt.Sprintf("Status changed from %s to %s", oldStatus, status),
	})
	publish(ctx, s.dispatcher, events.NewEvent(events.EventTicketStatusChanged, ticket.ID, actor.ID, events.TicketStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: status,
	}))
	return &TicketMutation{Ticket: ticket, Audit: outcome}, nil
}

// UpdatePriority sets the triage priority.
func (s *TicketService) UpdatePriority(ctx context.Context, actor *domain.User, ticketID int64, priority domain.TicketPriority) (*TicketMutation, error) {
	if !priority.Valid() {
		return nil, util.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	var (
		ticket      *domain.Ticket
		oldPriority domain.TicketPriority
	)
	err := s.store.InTx(ctx, func(sess repository.Session) error {
		var err error
		if ticket, err = loadTicketForUpdate(ctx, sess, ticketID); err != nil {
			return err
		}
		if err := policy.CanModifyTicket(actor, ticket); err != nil {
			return err
		}
		oldPriority = ticket.Priority
		if err := sess.Tickets().UpdatePriority(ctx, ticket.ID, priority); err != nil {
			return err
		}
		ticket.Priority = priority
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	outcome := s.recorder.Record(ctx, audit.Entry{
		ActorID:    actor.ID,
		Action:     domain.AuditActionUpdatePriority,
		TargetType: domain.AuditTargetTicket,
		TargetID:   ticket.ID,
		Details:    fmt.Sprintf("Priority changed from %s to %s", oldPriority, priority),
	})
	publish(ctx, s.dispatcher, events.NewEvent(events.EventTicketPriorityChanged, ticket.ID, actor.ID, events.TicketPriorityChangedPayload{
		OldPriority: oldPriority,
		NewPriority: priority,
	}))
	return &TicketMutation{Ticket: ticket, Audit: outcome}, nil
}

// Delete removes a ticket and its comments.
func (s *TicketService) Delete(ctx context.Context, actor *domain.User, ticketID int64) (audit.Outcome, error) {
	var ticket *domain.Ticket
	err := s.store.InTx(ctx, func(sess repository.Session) error {
		var err error
		if ticket, err = loadTicketForUpdate(ctx, sess, ticketID); err != nil {
			return err
		}
		if err := policy.CanModifyTicket(actor, ticket); err != nil {
			return err
		}
		return sess.Tickets().Delete(ctx, ticket.ID)
	})
	if err != nil {
		return "", storeError(err)
	}

	outcome := s.recorder.Record(ctx, audit.Entry{
		ActorID:    actor.ID,
		Action:     domain.AuditActionDeleteTicket,
		TargetType: domain.AuditTargetTicket,
		TargetID:   ticket.ID,
		Details:    fmt.Sprintf("Ticket '%s' deleted", ticket.Title),
	})
	publish(ctx, s.dispatcher, events.NewEvent(events.EventTicketDeleted, ticket.ID, actor.ID, events.TicketDeletedPayload{
		Title:  ticket.Title,
		Status: ticket.Status,
	}))
	return outcome, nil
}

// Stats returns dashboard counters, served from cache when fresh.
func (s *TicketService) Stats(ctx context.Context, actor *domain.User) (domain.TicketStats, error) {
	if err := policy.CanViewStats(actor); err != nil {
		return domain.TicketStats{}, err
	}

	if s.stats != nil {
		cached, ok, err := s.stats.Get(ctx)
		if err != nil {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		} else if ok {
			return *cached, nil
		}
	}

	var stats domain.TicketStats
	err := s.store.InTx(ctx, func(sess repository.Session) error {
		var err error
		stats, err = sess.Tickets().Stats(ctx)
		return err
	})
	if err != nil {
		return domain.TicketStats{}, storeError(err)
	}

	if s.stats != nil {
		if err := s.stats.Set(ctx, stats); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}
