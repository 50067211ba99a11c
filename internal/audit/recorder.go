// Package audit appends entries to the audit trail for privileged ticket
// mutations. Writes are best effort: they commit separately from the
// mutation they describe, and a failed write is logged and counted but never
// returned to the caller.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Outcome reports what happened to an audit entry.
type Outcome string

const (
	OutcomeRecorded Outcome = "recorded"
	OutcomeDropped  Outcome = "dropped"
)

// Entry describes one privileged action.
type Entry struct {
	ActorID    int64
	Action     string
	TargetType string
	TargetID   int64
	Details    string
}

// Recorder writes audit entries in their own transaction.
type Recorder struct {
	store   repository.Store
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewRecorder builds a recorder. metrics may be nil.
func NewRecorder(store repository.Store, logger *zap.Logger, metrics *observability.Metrics) *Recorder {
	return &Recorder{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Record appends e. The write ignores cancellation of ctx because the primary
// mutation has already committed by the time it runs.
func (r *Recorder) Record(ctx context.Context, e Entry) Outcome {
	row := &domain.AuditLog{
		UserID:     e.ActorID,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Timestamp:  r.now(),
	}
	if e.Details != "" {
		details := e.Details
		row.Details = &details
	}

	writeCtx := context.WithoutCancel(ctx)
	err := r.store.InTx(writeCtx, func(s repository.Session) error {
		return s.AuditLogs().Create(writeCtx, row)
	})
	if err != nil {
		r.logger.Error("audit write dropped",
			zap.String("action", e.Action),
			zap.Int64("actor_id", e.ActorID),
			zap.String("target_type", e.TargetType),
			zap.Int64("target_id", e.TargetID),
			zap.Error(err),
		)
		r.metrics.RecordAuditDrop(e.Action)
		return OutcomeDropped
	}

	r.metrics.RecordAuditWrite()
	return OutcomeRecorded
}
