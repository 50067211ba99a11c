package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.auth.Register(ctx, RegisterInput{Email: "  Alice@Example.com ", Password: "alice123", FullName: "Alice"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized", user.Email)
	}
	if user.Role != domain.RoleStudent {
		t.Errorf("Role = %q, want student default", user.Role)
	}
	if user.PasswordHash == "alice123" {
		t.Error("password stored in clear")
	}

	_, err = f.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "other"})
	if !util.HasCode(err, util.CodeConflict) {
		t.Errorf("duplicate Register() error = %v, want CONFLICT", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing email", RegisterInput{Password: "x"}},
		{"malformed email", RegisterInput{Email: "not-an-email", Password: "x"}},
		{"display name form", RegisterInput{Email: "Alice <alice@example.com>", Password: "x"}},
		{"missing password", RegisterInput{Email: "a@example.com"}},
		{"unknown role", RegisterInput{Email: "a@example.com", Password: "x", Role: "janitor"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.auth.Register(ctx, tt.input); !util.HasCode(err, util.CodeValidation) {
				t.Errorf("Register() error = %v, want VALIDATION_FAILED", err)
			}
		})
	}
}

func TestRegisterAdminCanBeDisabled(t *testing.T) {
	f := newFixture(t)
	locked := NewAuthService(AuthDependencies{
		Store:       f.store,
		Hasher:      plainHasher{},
		Tokens:      f.tokens,
		Revocations: f.revoked,
		Logger:      zap.NewNop(),
	})

	_, err := locked.Register(context.Background(), RegisterInput{Email: "eve@example.com", Password: "x", Role: domain.RoleAdmin})
	if !util.HasCode(err, util.CodeForbidden) {
		t.Errorf("Register(admin) error = %v, want FORBIDDEN", err)
	}
}

func TestLoginFailuresLookAlike(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice@example.com", domain.RoleStudent)

	_, wrongPassword := f.auth.Login(ctx, "alice@example.com", "guess")
	_, unknownUser := f.auth.Login(ctx, "nobody@example.com", "guess")

	for _, err := range []error{wrongPassword, unknownUser} {
		if !util.HasCode(err, util.CodeUnauthenticated) {
			t.Errorf("Login() error = %v, want UNAUTHENTICATED", err)
		}
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Errorf("Login() errors differ: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestLoginIssuesTokenForCurrentRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "bob@example.com", domain.RoleAdmin)

	issued, err := f.auth.Login(ctx, " BOB@example.com", "pw-bob@example.com")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	token, err := f.tokens.Validate(issued.AccessToken)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if token.Subject != "bob@example.com" || token.Role != domain.RoleAdmin {
		t.Errorf("token = %+v", token)
	}
	if !issued.ExpiresAt.Equal(token.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", issued.ExpiresAt, token.ExpiresAt)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice@example.com", domain.RoleStudent)

	issued, err := f.auth.Login(ctx, "alice@example.com", "pw-alice@example.com")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	_, token, err := f.resolver.Resolve(ctx, issued.AccessToken)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if err := f.auth.Logout(ctx, token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, _, err := f.resolver.Resolve(ctx, issued.AccessToken); !util.HasCode(err, util.CodeUnauthenticated) {
		t.Errorf("Resolve() after logout error = %v, want UNAUTHENTICATED", err)
	}
}

func TestRegisterWithArgon2(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewAuthService(AuthDependencies{
		Store:       f.store,
		Hasher:      auth.NewPasswordHasher(),
		Tokens:      f.tokens,
		Revocations: f.revoked,
	})

	if _, err := svc.Register(ctx, RegisterInput{Email: "dana@example.com", Password: "s3cret!"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Login(ctx, "dana@example.com", "s3cret!"); err != nil {
		t.Errorf("Login() error = %v", err)
	}
	if _, err := svc.Login(ctx, "dana@example.com", "s3cret?"); !util.HasCode(err, util.CodeUnauthenticated) {
		t.Errorf("Login() with wrong password error = %v, want UNAUTHENTICATED", err)
	}
}
