package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/pkg/util"
)

func TestLoadAccounts(t *testing.T) {
	input := `
accounts:
  - email: admin@example.com
    password: pw
    full_name: Admin
    role: admin
  - email: kid@example.com
    password: pw
`
	accounts, err := loadAccounts(strings.NewReader(input))
	if err != nil {
		t.Fatalf("loadAccounts() error = %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("len(accounts) = %d, want 2", len(accounts))
	}
	if accounts[0].Role != domain.RoleAdmin {
		t.Errorf("accounts[0].Role = %q, want admin", accounts[0].Role)
	}
	if accounts[1].Role != domain.RoleStudent {
		t.Errorf("accounts[1].Role = %q, want student default", accounts[1].Role)
	}
}

func TestLoadAccountsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing password", "accounts:\n  - email: a@example.com\n"},
		{"unknown role", "accounts:\n  - email: a@example.com\n    password: pw\n    role: janitor\n"},
		{"duplicate email", "accounts:\n  - email: a@example.com\n    password: pw\n  - email: A@example.com\n    password: pw\n"},
		{"unknown field", "accounts:\n  - email: a@example.com\n    password: pw\n    nickname: al\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadAccounts(strings.NewReader(tt.input)); err == nil {
				t.Error("loadAccounts() error = nil, want failure")
			}
		})
	}
}

type fakeRegistrar struct {
	existing map[string]bool
	fail     string
}

func (f *fakeRegistrar) Register(_ context.Context, in service.RegisterInput) (*domain.User, error) {
	if in.Email == f.fail {
		return nil, errors.New("database unavailable")
	}
	if f.existing[in.Email] {
		return nil, util.NewConflict("email already registered", nil)
	}
	f.existing[in.Email] = true
	return &domain.User{Email: in.Email, Role: in.Role}, nil
}

func TestSeedAccountsSkipsExisting(t *testing.T) {
	r := &fakeRegistrar{existing: map[string]bool{"old@example.com": true}}
	accounts := []account{
		{Email: "old@example.com", Password: "pw"},
		{Email: "new@example.com", Password: "pw"},
	}

	created, skipped, err := seedAccounts(context.Background(), r, accounts)
	if err != nil {
		t.Fatalf("seedAccounts() error = %v", err)
	}
	if created != 1 || skipped != 1 {
		t.Errorf("created, skipped = %d, %d; want 1, 1", created, skipped)
	}

	created, skipped, err = seedAccounts(context.Background(), r, accounts)
	if err != nil || created != 0 || skipped != 2 {
		t.Errorf("second run = %d, %d, %v; want 0, 2, nil", created, skipped, err)
	}
}

func TestSeedAccountsStopsOnFailure(t *testing.T) {
	r := &fakeRegistrar{existing: map[string]bool{}, fail: "b@example.com"}
	accounts := []account{
		{Email: "a@example.com", Password: "pw"},
		{Email: "b@example.com", Password: "pw"},
		{Email: "c@example.com", Password: "pw"},
	}

	created, _, err := seedAccounts(context.Background(), r, accounts)
	if err == nil {
		t.Fatal("seedAccounts() error = nil, want failure")
	}
	if created != 1 || r.existing["c@example.com"] {
		t.Errorf("created = %d, c registered = %v", created, r.existing["c@example.com"])
	}
}
