package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore opens one pgx transaction per InTx call.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InTx runs fn inside a transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(Session) error) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(newPostgresSession(tx))
	})
}

type postgresSession struct {
	users    UserRepository
	tickets  TicketRepository
	comments CommentRepository
	audit    AuditLogRepository
}

func newPostgresSession(db DBTX) *postgresSession {
	return &postgresSession{
		users:    NewUserRepository(db),
		tickets:  NewTicketRepository(db),
		comments: NewCommentRepository(db),
		audit:    NewAuditLogRepository(db),
	}
}

func (s *postgresSession) Users() UserRepository         { return s.users }
func (s *postgresSession) Tickets() TicketRepository     { return s.tickets }
func (s *postgresSession) Comments() CommentRepository   { return s.comments }
func (s *postgresSession) AuditLogs() AuditLogRepository { return s.audit }

// mapError translates driver errors into the package sentinels.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
