// Package service orchestrates identity, authorization and audit around the
// ticket, comment and account operations.
package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// Page is a skip/limit window. Zero values select the defaults.
type Page struct {
	Skip  int
	Limit int
}

// loadTicket returns nil, nil when the ticket does not exist so the policy
// can rule on existence first.
func loadTicket(ctx context.Context, s repository.Session, id int64) (*domain.Ticket, error) {
	return ticketOrNil(s.Tickets().GetByID(ctx, id))
}

// loadTicketForUpdate is loadTicket with the row locked for the rest of the
// session, so the old value read for the audit entry is the one replaced.
func loadTicketForUpdate(ctx context.Context, s repository.Session, id int64) (*domain.Ticket, error) {
	return ticketOrNil(s.Tickets().GetByIDForUpdate(ctx, id))
}

func ticketOrNil(ticket *domain.Ticket, err error) (*domain.Ticket, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// storeError passes domain errors through and reports anything else as internal.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *util.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return util.NewNotFound("resource", nil)
	}
	return util.NewInternalError(err)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
