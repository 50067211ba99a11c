// Package policy holds the authorization rules for tickets, comments and the
// audit trail. Every function is pure: callers load the actor and the target
// first and pass them in. A nil ticket means the lookup found nothing and
// always yields NOT_FOUND before any role or ownership rule is consulted.
package policy

import (
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// TicketListScope returns the owner filter for a ticket listing. Admins see
// every ticket (nil filter); everyone else sees only their own.
func TicketListScope(actor *domain.User) *int64 {
	if actor.IsAdmin() {
		return nil
	}
	id := actor.ID
	return &id
}

// CanReadTicket allows admins and the ticket owner.
func CanReadTicket(actor *domain.User, ticket *domain.Ticket) error {
	if err := exists(ticket); err != nil {
		return err
	}
	if actor.IsAdmin() || ticket.OwnerID == actor.ID {
		return nil
	}
	return util.NewForbidden("not allowed to access this ticket")
}

// TicketOwner decides the owner of a new ticket. Non-admins always own what
// they create; admins may name another user and default to themselves.
func TicketOwner(actor *domain.User, requested *int64) int64 {
	if actor.IsAdmin() && requested != nil {
		return *requested
	}
	return actor.ID
}

// CanModifyTicket gates status, priority and delete operations.
func CanModifyTicket(actor *domain.User, ticket *domain.Ticket) error {
	if err := exists(ticket); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return util.NewForbidden("admin role required")
	}
	return nil
}

// CanAccessComments gates both reading and writing a ticket's thread.
func CanAccessComments(actor *domain.User, ticket *domain.Ticket) error {
	if err := exists(ticket); err != nil {
		return err
	}
	if actor.IsAdmin() || ticket.OwnerID == actor.ID {
		return nil
	}
	return util.NewForbidden("not allowed to access comments on this ticket")
}

// CanViewAuditLog is admin only.
func CanViewAuditLog(actor *domain.User) error {
	if !actor.IsAdmin() {
		return util.NewForbidden("admin role required")
	}
	return nil
}

// CanViewStats is admin only.
func CanViewStats(actor *domain.User) error {
	if !actor.IsAdmin() {
		return util.NewForbidden("admin role required")
	}
	return nil
}

func exists(ticket *domain.Ticket) error {
	if ticket == nil {
		return util.NewNotFound("ticket", nil)
	}
	return nil
}
