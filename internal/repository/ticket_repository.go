package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketSelect = `
        SELECT t.id, t.title, t.description, t.status, t.priority, t.category, t.owner_id, t.created_at,
               u.email, u.full_name, u.role
        FROM tickets t
        JOIN users u ON u.id = t.owner_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, priority, category, owner_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.OwnerID,
	).Scan(&ticket.ID, &ticket.CreatedAt)
	return mapError("inserting ticket", err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, ticketSelect+` WHERE t.id=$1`, id)
}

// GetByIDForUpdate locks the ticket row until the surrounding transaction ends.
func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, ticketSelect+` WHERE t.id=$1 FOR UPDATE OF t`, id)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, id int64) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, mapError("fetching ticket", err)
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("t.owner_id=$%d", len(args)))
	}

	offset, limit := NormalizePage(filter.Offset, filter.Limit)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC, t.id DESC LIMIT %d OFFSET %d`,
		ticketSelect, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("listing tickets", err)
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, mapError("scanning ticket", err)
		}
		result = append(result, ticket)
	}
	return result, mapError("iterating tickets", rows.Err())
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) error {
	return r.updateColumn(ctx, "status", id, status)
}

func (r *ticketRepository) UpdatePriority(ctx context.Context, id int64, priority domain.TicketPriority) error {
	return r.updateColumn(ctx, "priority", id, priority)
}

func (r *ticketRepository) updateColumn(ctx context.Context, column string, id int64, value any) error {
	query := fmt.Sprintf(`UPDATE tickets SET %s=$1 WHERE id=$2`, column)
	cmd, err := r.db.Exec(ctx, query, value, id)
	if err != nil {
		return mapError("updating ticket "+column, err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("updating ticket "+column, pgx.ErrNoRows)
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return mapError("deleting ticket", err)
	}
	if cmd.RowsAffected() == 0 {
		return mapError("deleting ticket", pgx.ErrNoRows)
	}
	return nil
}

func (r *ticketRepository) Stats(ctx context.Context) (domain.TicketStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='open'),
               COUNT(*) FILTER (WHERE status='in_progress'),
               COUNT(*) FILTER (WHERE status='resolved')
        FROM tickets`
	var stats domain.TicketStats
	err := r.db.QueryRow(ctx, query).Scan(&stats.Total, &stats.Open, &stats.InProgress, &stats.Resolved)
	return stats, mapError("counting tickets", err)
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	var owner domain.TicketOwner
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Category,
		&ticket.OwnerID,
		&ticket.CreatedAt,
		&owner.Email,
		&owner.FullName,
		&owner.Role,
	); err != nil {
		return err
	}
	ticket.Owner = &owner
	return nil
}
