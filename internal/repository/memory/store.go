// Package memory provides an in-process implementation of the repository
// ports. Every InTx call works on a private copy of the state that replaces
// the shared state only when the callback succeeds.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Store is an in-memory adapter for tests and local development wiring.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time

	auditFault error
}

type state struct {
	users    map[int64]domain.User
	tickets  map[int64]domain.Ticket
	comments map[int64]domain.Comment
	audit    map[int64]domain.AuditLog
	seq      map[string]int64
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{
		state: &state{
			users:    make(map[int64]domain.User),
			tickets:  make(map[int64]domain.Ticket),
			comments: make(map[int64]domain.Comment),
			audit:    make(map[int64]domain.AuditLog),
			seq:      make(map[string]int64),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets the time source for generated created_at values.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// FailAuditWrites makes every subsequent audit insert fail with err. A nil err clears the fault.
func (s *Store) FailAuditWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditFault = err
}

// InTx runs fn against a copy of the state and publishes it on success.
func (s *Store) InTx(ctx context.Context, fn func(repository.Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(&session{st: working, now: s.now, auditFault: s.auditFault}); err != nil {
		return err
	}
	s.state = working
	return nil
}

// AuditCount returns the number of committed audit rows.
func (s *Store) AuditCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.audit)
}

func (st *state) clone() *state {
	out := &state{
		users:    make(map[int64]domain.User, len(st.users)),
		tickets:  make(map[int64]domain.Ticket, len(st.tickets)),
		comments: make(map[int64]domain.Comment, len(st.comments)),
		audit:    make(map[int64]domain.AuditLog, len(st.audit)),
		seq:      make(map[string]int64, len(st.seq)),
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.tickets {
		out.tickets[k] = v
	}
	for k, v := range st.comments {
		out.comments[k] = v
	}
	for k, v := range st.audit {
		if v.Details != nil {
			details := *v.Details
			v.Details = &details
		}
		out.audit[k] = v
	}
	for k, v := range st.seq {
		out.seq[k] = v
	}
	return out
}

func (st *state) next(table string) int64 {
	st.seq[table]++
	return st.seq[table]
}

type session struct {
	st         *state
	now        func() time.Time
	auditFault error
}

func (s *session) Users() repository.UserRepository         { return userRepo{s} }
func (s *session) Tickets() repository.TicketRepository     { return ticketRepo{s} }
func (s *session) Comments() repository.CommentRepository   { return commentRepo{s} }
func (s *session) AuditLogs() repository.AuditLogRepository { return auditRepo{s} }

type userRepo struct{ s *session }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range r.s.st.users {
		if existing.Email == user.Email {
			return fmt.Errorf("inserting user: %w", repository.ErrDuplicate)
		}
	}
	user.ID = r.s.st.next("users")
	user.CreatedAt = r.s.now()
	r.s.st.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := r.s.st.users[id]
	if !ok {
		return nil, fmt.Errorf("fetching user: %w", repository.ErrNotFound)
	}
	return &user, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.s.st.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("fetching user: %w", repository.ErrNotFound)
}

type ticketRepo struct{ s *session }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.s.st.users[ticket.OwnerID]; !ok {
		return fmt.Errorf("inserting ticket: owner %d does not exist", ticket.OwnerID)
	}
	ticket.ID = r.s.st.next("tickets")
	ticket.CreatedAt = r.s.now()
	stored := *ticket
	stored.Owner = nil
	r.s.st.tickets[ticket.ID] = stored
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	ticket, ok := r.s.st.tickets[id]
	if !ok {
		return nil, fmt.Errorf("fetching ticket: %w", repository.ErrNotFound)
	}
	return r.withOwner(ticket), nil
}

// GetByIDForUpdate needs no extra locking: a session holds the store mutex.
func (r ticketRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r ticketRepo) withOwner(ticket domain.Ticket) *domain.Ticket {
	if owner, ok := r.s.st.users[ticket.OwnerID]; ok {
		ticket.Owner = &domain.TicketOwner{
			Email:    owner.Email,
			FullName: owner.FullName,
			Role:     owner.Role,
		}
	}
	return &ticket
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for _, ticket := range r.s.st.tickets {
		if filter.OwnerID != nil && ticket.OwnerID != *filter.OwnerID {
			continue
		}
		result = append(result, *r.withOwner(ticket))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	offset, limit := repository.NormalizePage(filter.Offset, filter.Limit)
	return page(result, offset, limit), nil
}

func (r ticketRepo) UpdateStatus(_ context.Context, id int64, status domain.TicketStatus) error {
	ticket, ok := r.s.st.tickets[id]
	if !ok {
		return fmt.Errorf("updating ticket status: %w", repository.ErrNotFound)
	}
	ticket.Status = status
	r.s.st.tickets[id] = ticket
	return nil
}

func (r ticketRepo) UpdatePriority(_ context.Context, id int64, priority domain.TicketPriority) error {
	ticket, ok := r.s.st.tickets[id]
	if !ok {
		return fmt.Errorf("updating ticket priority: %w", repository.ErrNotFound)
	}
	ticket.Priority = priority
	r.s.st.tickets[id] = ticket
	return nil
}

func (r ticketRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.st.tickets[id]; !ok {
		return fmt.Errorf("deleting ticket: %w", repository.ErrNotFound)
	}
	delete(r.s.st.tickets, id)
	for commentID, comment := range r.s.st.comments {
		if comment.TicketID == id {
			delete(r.s.st.comments, commentID)
		}
	}
	return nil
}

func (r ticketRepo) Stats(_ context.Context) (domain.TicketStats, error) {
	var stats domain.TicketStats
	for _, ticket := range r.s.st.tickets {
		stats.Total++
		switch ticket.Status {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusResolved:
			stats.Resolved++
		}
	}
	return stats, nil
}

type commentRepo struct{ s *session }

func (r commentRepo) Create(_ context.Context, comment *domain.Comment) error {
	if _, ok := r.s.st.tickets[comment.TicketID]; !ok {
		return fmt.Errorf("inserting comment: ticket %d does not exist", comment.TicketID)
	}
	if _, ok := r.s.st.users[comment.AuthorID]; !ok {
		return fmt.Errorf("inserting comment: author %d does not exist", comment.AuthorID)
	}
	comment.ID = r.s.st.next("comments")
	comment.CreatedAt = r.s.now()
	r.s.st.comments[comment.ID] = *comment
	return nil
}

func (r commentRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.Comment, error) {
	result := []domain.Comment{}
	for _, comment := range r.s.st.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

type auditRepo struct{ s *session }

func (r auditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	if r.s.auditFault != nil {
		return fmt.Errorf("inserting audit log: %w", r.s.auditFault)
	}
	if _, ok := r.s.st.users[entry.UserID]; !ok {
		return fmt.Errorf("inserting audit log: user %d does not exist", entry.UserID)
	}
	entry.ID = r.s.st.next("audit_logs")
	r.s.st.audit[entry.ID] = *entry
	return nil
}

func (r auditRepo) List(_ context.Context, offset, limit int) ([]domain.AuditLog, error) {
	result := make([]domain.AuditLog, 0, len(r.s.st.audit))
	for _, entry := range r.s.st.audit {
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].ID > result[j].ID
	})
	offset, limit = repository.NormalizePage(offset, limit)
	return page(result, offset, limit), nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
