package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// Resolver turns a bearer token into the current user record. The user's
// role is always the stored one; the token's role claim is ignored.
type Resolver struct {
	tokens  *TokenManager
	revoked RevocationList
	store   repository.Store
	logger  *zap.Logger
}

// NewResolver wires token validation, revocation and user lookup.
func NewResolver(tokens *TokenManager, revoked RevocationList, store repository.Store, logger *zap.Logger) *Resolver {
	return &Resolver{tokens: tokens, revoked: revoked, store: store, logger: logger}
}

// Resolve validates raw and loads its subject. Every token or account problem
// is reported as UNAUTHENTICATED; only infrastructure failures become internal errors.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*domain.User, *domain.Token, error) {
	token, err := r.tokens.Validate(raw)
	if err != nil {
		r.logger.Debug("token rejected", zap.Error(err))
		return nil, nil, util.NewUnauthenticated("invalid or expired token")
	}

	revoked, err := r.revoked.IsRevoked(ctx, token.ID)
	if err != nil {
		return nil, nil, util.NewInternalError(err)
	}
	if revoked {
		r.logger.Debug("revoked token presented", zap.String("jti", token.ID))
		return nil, nil, util.NewUnauthenticated("invalid or expired token")
	}

	var user *domain.User
	err = r.store.InTx(ctx, func(s repository.Session) error {
		var err error
		user, err = s.Users().GetByEmail(ctx, token.Subject)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		r.logger.Debug("token subject no longer exists", zap.String("subject", token.Subject))
		return nil, nil, util.NewUnauthenticated("invalid or expired token")
	}
	if err != nil {
		return nil, nil, util.NewInternalError(err)
	}

	return user, token, nil
}
