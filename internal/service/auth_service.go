package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// AuthService coordinates registration, login and logout.
type AuthService struct {
	store      repository.Store
	hasher     auth.PasswordHasher
	tokens     *auth.TokenManager
	revoked    auth.RevocationList
	allowAdmin bool
	logger     *zap.Logger

	decoyOnce sync.Once
	decoy     string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Store                  repository.Store
	Hasher                 auth.PasswordHasher
	Tokens                 *auth.TokenManager
	Revocations            auth.RevocationList
	AllowAdminRegistration bool
	Logger                 *zap.Logger
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     domain.Role
}

// IssuedToken is an access token handed to a client.
type IssuedToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		store:      deps.Store,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		revoked:    deps.Revocations,
		allowAdmin: deps.AllowAdminRegistration,
		logger:     logger,
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. The role defaults to student.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := NormalizeEmail(input.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, util.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	if input.Password == "" {
		return nil, util.NewValidationError("password is required", map[string]any{"field": "password"})
	}
	role := input.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if !role.Valid() {
		return nil, util.NewValidationError("invalid role", map[string]any{"role": role, "allowed": domain.Roles})
	}
	if role == domain.RoleAdmin && !s.allowAdmin {
		return nil, util.NewForbidden("admin self-registration is disabled")
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: digest,
		FullName:     strings.TrimSpace(input.FullName),
		Role:         role,
	}
	err = s.store.InTx(ctx, func(sess repository.Session) error {
		return sess.Users().Create(ctx, user)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, util.NewConflict("email already registered", map[string]any{"email": email})
	}
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*IssuedToken, error) {
	email = NormalizeEmail(email)

	var user *domain.User
	err := s.store.InTx(ctx, func(sess repository.Session) error {
		var err error
		user, err = sess.Users().GetByEmail(ctx, email)
		return err
	})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError(err)
	}

	if user == nil {
		s.hasher.Verify(password, s.decoyDigest())
		return nil, util.NewUnauthenticated("incorrect email or password")
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, util.NewUnauthenticated("incorrect email or password")
	}

	raw, token, err := s.tokens.Issue(user.Email, user.Role, 0)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return &IssuedToken{AccessToken: raw, ExpiresAt: token.ExpiresAt}, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, token *domain.Token) error {
	if token == nil {
		return util.NewUnauthenticated("missing token")
	}
	if err := s.revoked.Revoke(ctx, token.ID, token.ExpiresAt); err != nil {
		return util.NewInternalError(err)
	}
	return nil
}

// decoyDigest returns the digest checked for unknown accounts.
func (s *AuthService) decoyDigest() string {
	s.decoyOnce.Do(func() {
		digest, err := s.hasher.Hash("decoy-password")
		if err != nil {
			s.logger.Warn("decoy hash failed", zap.Error(err))
			return
		}
		s.decoy = digest
	})
	return s.decoy
}
