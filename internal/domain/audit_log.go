package domain

import "time"

// Audit actions recorded for privileged mutations.
const (
	AuditActionCreateTicket   = "CREATE_TICKET"
	AuditActionUpdateStatus   = "UPDATE_STATUS"
	AuditActionUpdatePriority = "UPDATE_PRIORITY"
	AuditActionDeleteTicket   = "DELETE_TICKET"
)

// AuditTargetTicket tags entries whose target is a ticket.
const AuditTargetTicket = "ticket"

// AuditLog is an immutable audit trail entry.
type AuditLog struct {
	ID         int64
	UserID     int64
	Action     string
	TargetType string
	TargetID   int64
	Details    *string
	Timestamp  time.Time
}
