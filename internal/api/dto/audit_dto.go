package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AuditLogResponse represents one audit trail entry.
type AuditLogResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   int64     `json:"target_id"`
	Details    *string   `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewAuditLogList maps audit entries.
func NewAuditLogList(logs []domain.AuditLog) []AuditLogResponse {
	items := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, AuditLogResponse{
			ID:         l.ID,
			UserID:     l.UserID,
			Action:     l.Action,
			TargetType: l.TargetType,
			TargetID:   l.TargetID,
			Details:    l.Details,
			Timestamp:  l.Timestamp,
		})
	}
	return items
}
