package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type auditLogRepository struct {
	db DBTX
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (user_id, action, target_type, target_id, details, timestamp)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		entry.UserID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.Details,
		entry.Timestamp,
	).Scan(&entry.ID)
	return mapError("inserting audit log", err)
}

func (r *auditLogRepository) List(ctx context.Context, offset, limit int) ([]domain.AuditLog, error) {
	offset, limit = NormalizePage(offset, limit)
	const query = `
        SELECT id, user_id, action, target_type, target_id, details, timestamp
        FROM audit_logs ORDER BY timestamp DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError("listing audit logs", err)
	}
	defer rows.Close()

	result := []domain.AuditLog{}
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.TargetType,
			&entry.TargetID,
			&entry.Details,
			&entry.Timestamp,
		); err != nil {
			return nil, mapError("scanning audit log", err)
		}
		result = append(result, entry)
	}
	return result, mapError("iterating audit logs", rows.Err())
}
