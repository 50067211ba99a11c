package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Sentinel errors shared by every store implementation.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// TicketFilter scopes ticket listings. A nil OwnerID lists every ticket.
type TicketFilter struct {
	OwnerID *int64
	Limit   int
	Offset  int
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TicketRepository encapsulates ticket persistence. Reads join the owner.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// GetByIDForUpdate is GetByID plus a row lock held until the session ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) error
	UpdatePriority(ctx context.Context, id int64, priority domain.TicketPriority) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (domain.TicketStats, error)
}

// CommentRepository manages ticket thread comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Comment, error)
}

// AuditLogRepository appends and reads audit entries. There is no update or delete.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, offset, limit int) ([]domain.AuditLog, error)
}

// Session exposes repositories bound to one transaction.
type Session interface {
	Users() UserRepository
	Tickets() TicketRepository
	Comments() CommentRepository
	AuditLogs() AuditLogRepository
}

// Store hands out transactional sessions. InTx commits when fn returns nil and
// rolls back on error or panic.
type Store interface {
	InTx(ctx context.Context, fn func(Session) error) error
}

// Pagination defaults applied by List implementations.
const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// NormalizePage clamps offset and limit into the accepted range.
func NormalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return offset, limit
}
