package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// AuditService exposes the audit trail to administrators.
type AuditService struct {
	store repository.Store
}

// NewAuditService constructs the service.
func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store}
}

// List returns entries newest first. Skip and limit are clamped by the repository.
func (s *AuditService) List(ctx context.Context, actor *domain.User, page Page) ([]domain.AuditLog, error) {
	if err := policy.CanViewAuditLog(actor); err != nil {
		return nil, err
	}

	var logs []domain.AuditLog
	err := s.store.InTx(ctx, func(sess repository.Session) error {
		var err error
		logs, err = sess.AuditLogs().List(ctx, page.Skip, page.Limit)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return logs, nil
}
