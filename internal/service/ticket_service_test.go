package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util"
)

func TestPrinterScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice@example.com", domain.RoleStudent)
	f.register(t, "bob@example.com", domain.RoleAdmin)
	f.register(t, "carol@example.com", domain.RoleStudent)

	alice := f.login(t, "alice@example.com")
	bob := f.login(t, "bob@example.com")
	carol := f.login(t, "carol@example.com")

	ticket := f.createTicket(t, alice, "Printer broken")
	auditBefore := len(f.auditLogs(t))

	if _, err := f.tickets.Get(ctx, alice, ticket.ID); err != nil {
		t.Errorf("alice Get() error = %v", err)
	}
	if _, err := f.tickets.Get(ctx, bob, ticket.ID); err != nil {
		t.Errorf("bob Get() error = %v", err)
	}
	if _, err := f.tickets.Get(ctx, carol, ticket.ID); !util.HasCode(err, util.CodeForbidden) {
		t.Errorf("carol Get() error = %v, want FORBIDDEN", err)
	}

	res, err := f.tickets.UpdateStatus(ctx, bob, ticket.ID, domain.TicketStatusResolved)
	if err != nil {
		t.Fatalf("bob UpdateStatus() error = %v", err)
	}
	if res.Ticket.Status != domain.TicketStatusResolved || res.Audit != audit.OutcomeRecorded {
		t.Errorf("UpdateStatus() = %+v", res)
	}
	if got := len(f.auditLogs(t)) - auditBefore; got != 1 {
		t.Errorf("audit rows added = %d, want 1", got)
	}

	if _, err := f.tickets.UpdateStatus(ctx, alice, ticket.ID, domain.TicketStatusOpen); !util.HasCode(err, util.CodeForbidden) {
		t.Errorf("alice UpdateStatus() error = %v, want FORBIDDEN", err)
	}
	if got := len(f.auditLogs(t)) - auditBefore; got != 1 {
		t.Errorf("audit rows after denied update = %d, want 1", got)
	}
}

func TestListNeverLeaksOtherOwners(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", domain.RoleStudent)
	dave := f.register(t, "dave@example.com", domain.RoleEmployee)
	bob := f.register(t, "bob@example.com", domain.RoleAdmin)

	for i := 0; i < 3; i++ {
		f.createTicket(t, alice, "alice ticket")
		f.createTicket(t, dave, "dave ticket")
	}
	f.createTicket(t, bob, "bob ticket")

	for _, actor := range []*domain.User{alice, dave} {
		tickets, err := f.tickets.List(ctx, actor, Page{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(tickets) != 3 {
			t.Errorf("List(%s) returned %d tickets, want 3", actor.Email, len(tickets))
		}
		for _, ticket := range tickets {
			if ticket.OwnerID != actor.ID {
				t.Errorf("List(%s) leaked ticket %d owned by %d", actor.Email, ticket.ID, ticket.OwnerID)
			}
		}
	}

	all, err := f.tickets.List(ctx, bob, Page{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 7 {
		t.Errorf("admin List() returned %d tickets, want 7", len(all))
	}

	paged, err := f.tickets.List(ctx, bob, Page{Skip: 5, Limit: 5})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(paged) != 2 {
		t.Errorf("admin List(skip=5) returned %d tickets, want 2", len(paged))
	}
}

func TestMissingTicketIsNotFoundForEveryRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", domain.RoleStudent)
	bob := f.register(t, "bob@example.com", domain.RoleAdmin)

	for _, actor := range []*domain.User{alice, bob} {
		if _, err := f.tickets.Get(ctx, actor, 404); !util.HasCode(err, util.CodeNotFound) {
			t.Errorf("Get() as %s error = %v, want NOT_FOUND", actor.Role, err)
		}
		if _, err := f.tickets.UpdateStatus(ctx, actor, 404, domain.TicketStatusResolved); !util.HasCode(err, util.CodeNotFound) {
			t.Errorf("UpdateStatus() as %s error = %v, want NOT_FOUND", actor.Role, err)
		}
		if _, err := f.tickets.UpdatePriority(ctx, actor, 404, domain.TicketPriorityHigh); !util.HasCode(err, util.CodeNotFound) {
			t.Errorf("UpdatePriority() as %s error = %v, want NOT_FOUND", actor.Role, err)
		}
		if _, err := f.tickets.Delete(ctx, actor, 404); !util.HasCode(err, util.CodeNotFound) {
			t.Errorf("Delete() as %s error = %v, want NOT_FOUND", actor.Role, err)
		}
	}
}

func TestUpdateStatusWritesOneAuditRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", domain.RoleStudent)
	bob := f.register(t, "bob@example.com", domain.RoleAdmin)
	ticket := f.createTicket(t, alice, "VPN down")

	if _, err := f.tickets.UpdateStatus(ctx, bob, ticket.ID, domain.TicketStatusInProgress); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	var statusRows []domain.AuditLog
	for _, entry := range f.auditLogs(t) {
		if entry.Action == domain.AuditActionUpdateStatus {
			statusRows = append(statusRows, entry)
		}
	}
	if len(statusRows) != 1 {
		t.Fatalf("UPDATE_STATUS rows = %d, want 1", len(statusRows))
	}
	row := statusRows[0]
	if row.UserID != bob.ID || row.TargetID != ticket.ID || row.TargetType != domain.AuditTargetTicket {
		t.Errorf("audit row = %+v", row)
	}
	if row.Details == nil || !strings.Contains(*row.Details, "open") || !strings.Contains(*row.Details, "in_progress") {
		t.Errorf("Details = %v, want old and new status", row.Details)
	}
}

func TestAuditFailureDoesNotBlockUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", domain.RoleStudent)
	bob := f.register(t, "bob@example.com", domain.RoleAdmin)
	ticket := f.createTicket(t, alice, "Projector")
	before := f.store.AuditCount()

	f.store.FailAuditWrites(errors.New("audit table unavailable"))

	res, err := f.tickets.UpdateStatus(ctx, bob, ticket.ID, domain.TicketStatusResolved)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v, want success despite audit fault", err)
	}
	if res.Audit != audit.OutcomeDropped {
		t.Errorf("Audit = %q, want %q", res.Audit, audit.OutcomeDropped)
	}

	stored, err := f.tickets.Get(ctx, alice, ticket.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Status != domain.TicketStatusResolved {
		t.Errorf("stored Status = %q, want resolved", stored.Status)
	}
	if f.store.AuditCount() != before {
		t.Errorf("AuditCount() = %d, want %d", f.store.AuditCount(), before)
	}
	if f.metrics.AuditDrops(domain.AuditActionUpdateStatus) != 1 {
		t.Errorf("AuditDrops() = %d, want 1", f.metrics.AuditDrops(domain.AuditActionUpdateStatus))
	}
}

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", domain.RoleStudent)
	bob := f.register(t, "bob@example.com", domain.RoleAdmin)

	res, err := f.tickets.Create(ctx, alice, TicketCreateInput{Title: "  Printer broken ", Category: "IT", OwnerID: &bob.ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if res.Ticket.OwnerID != alice.ID {
		t.Errorf("OwnerID = %d, want creator %d", res.Ticket.OwnerID, alice.ID)
	}
	if res.Ticket.Title != "Printer broken" || res.Ticket.Status != domain.TicketStatusOpen || res.Ticket.Priority != domain.TicketPriorityMedium {
		t.Errorf("Create() = %+v", res.Ticket)
	}

	logs := f.auditLogs(t)
	if len(logs) != 1 || logs[0].Action != domain.AuditActionCreateTicket || *logs[0].Details != "Ticket 'Printer broken' created" {
		t.Errorf("audit = %+v", logs)
	}

	onBehalf, err := f.tickets.Create(ctx, bob, TicketCreateInput{Title: "For alice", OwnerID: &alice.ID})
	if err != nil {
		t.Fatalf("admin Create() error = %v", err)
	}
	if onBehalf.Ticket.OwnerID != alice.ID {
		t.Errorf("admin OwnerID = %d, want %d", onBehalf.Ticket.OwnerID, alice.ID)
	}

	missing := int64(999)
	if _, err := f.tickets.Create(ctx, bob, TicketCreateInput{Title: "Nobody", OwnerID: &missing}); !util.HasCode(err, util.CodeNotFound) {
		t.Errorf("Create() for missing owner error = %v, want NOT_FOUND", err)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", domain.RoleStudent)

	tests := []struct {
		name  string
		input TicketCreateInput
	}{
		{"blank title", TicketCreateInput{Title: "   "}},
		{"bad priority", TicketCreateInput{Title: "x", Priority: "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.tickets.Create(ctx, alice, tt.input); !util.HasCode(err, util.CodeValidation) {
				t.Errorf("Create() error = %v, want VALIDATION_FAILED", err)
			}
		})
	}

	bob := f.register(t, "bob@example.com", domain.RoleAdmin)
	ticket := f.createTicket(t, alice, "t")
	if _, err := f.tickets.UpdateStatus(ctx, bob, ticket.ID, "closed"); !util.HasCode(err, util.CodeValidation) {
		t.Errorf("UpdateStatus(closed) error = %v, want VALIDATION_FAILED", err)
	}
}

func TestStatusTransitionsAreUnrestricted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", domain.RoleStudent)
	bob := f.register(t, "bob@example.com", domain.RoleAdmin)
	ticket := f.createTicket(t, alice, "t")

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusResolved,
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
		domain.TicketStatusInProgress,
		domain.TicketStatusOpen,
	} {
		if _, err := f.tickets.UpdateStatus(ctx, bob, ticket.ID, status); err != nil {
			t.Fatalf("UpdateStatus(%s) error = %v", status, err)
		}
	}
}

func TestUpdatePriority(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", domain.RoleStudent)
	bob := f.register(t, "bob@example.com", domain.RoleAdmin)
	ticket := f.createTicket(t, alice, "t")

	if _, err := f.tickets.UpdatePriority(ctx, alice, ticket.ID, domain.TicketPriorityHigh); !util.HasCode(err, util.CodeForbidden) {
		t.Errorf("alice UpdatePriority() error = %v, want FORBIDDEN", err)
	}
	res, err := f.tickets.UpdatePriority(ctx, bob, ticket.ID, domain.TicketPriorityHigh)
	if err != nil {
		t.Fatalf("UpdatePriority() error = %v", err)
	}
	if res.Ticket.Priority != domain.TicketPriorityHigh {
		t.Errorf("Priority = %q, want high", res.Ticket.Priority)
	}
	logs := f.auditLogs(t)
	if logs[0].Action != domain.AuditActionUpdatePriority || *logs[0].Details != "Priority changed from medium to high" {
		t.Errorf("latest audit = %+v", logs[0])
	}
}

func TestDeleteTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", domain.RoleStudent)
	bob := f.register(t, "bob@example.com", domain.RoleAdmin)
	ticket := f.createTicket(t, alice, "Old laptop")
	if _, err := f.comments.Create(ctx, alice, ticket.ID, "please recycle"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := f.tickets.Delete(ctx, alice, ticket.ID); !util.HasCode(err, util.CodeForbidden) {
		t.Errorf("alice Delete() error = %v, want FORBIDDEN", err)
	}

	outcome, err := f.tickets.Delete(ctx, bob, ticket.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if outcome != audit.OutcomeRecorded {
		t.Errorf("Delete() outcome = %q", outcome)
	}
	if _, err := f.tickets.Get(ctx, bob, ticket.ID); !util.HasCode(err, util.CodeNotFound) {
		t.Errorf("Get() after delete error = %v, want NOT_FOUND", err)
	}
	if _, err := f.comments.List(ctx, bob, ticket.ID); !util.HasCode(err, util.CodeNotFound) {
		t.Errorf("comments after delete error = %v, want NOT_FOUND", err)
	}

	logs := f.auditLogs(t)
	if logs[0].Action != domain.AuditActionDeleteTicket || *logs[0].Details != "Ticket 'Old laptop' deleted" {
		t.Errorf("latest audit = %+v", logs[0])
	}
}

func TestStatsAreCachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", domain.RoleStudent)
	bob := f.register(t, "bob@example.com", domain.RoleAdmin)
	first := f.createTicket(t, alice, "one")
	f.createTicket(t, alice, "two")

	if _, err := f.tickets.Stats(ctx, alice); !util.HasCode(err, util.CodeForbidden) {
		t.Errorf("alice Stats() error = %v, want FORBIDDEN", err)
	}

	stats, err := f.tickets.Stats(ctx, bob)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats != (domain.TicketStats{Total: 2, Open: 2}) {
		t.Errorf("Stats() = %+v", stats)
	}
	if _, hit, _ := f.stats.Get(ctx); !hit {
		t.Error("stats not cached after first read")
	}

	if _, err := f.tickets.UpdateStatus(ctx, bob, first.ID, domain.TicketStatusResolved); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	stats, err = f.tickets.Stats(ctx, bob)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats != (domain.TicketStats{Total: 2, Open: 1, Resolved: 1}) {
		t.Errorf("Stats() after update = %+v", stats)
	}
}

func TestTicketsCarryOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice@example.com", domain.RoleStudent)
	f.register(t, "erin@example.com", domain.RoleEmployee)
	f.register(t, "bob@example.com", domain.RoleAdmin)
	alice := f.login(t, "alice@example.com")
	erin := f.login(t, "erin@example.com")
	bob := f.login(t, "bob@example.com")

	created := f.createTicket(t, alice, "Printer broken")
	if created.Owner == nil || created.Owner.Email != "alice@example.com" {
		t.Fatalf("Create() owner = %+v, want alice", created.Owner)
	}
	f.createTicket(t, erin, "Badge reader")

	tickets, err := f.tickets.List(ctx, bob, Page{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	roles := map[string]domain.Role{}
	for _, ticket := range tickets {
		if ticket.Owner == nil {
			t.Fatalf("ticket %d has no owner", ticket.ID)
		}
		roles[ticket.Owner.Email] = ticket.Owner.Role
	}
	if roles["alice@example.com"] != domain.RoleStudent || roles["erin@example.com"] != domain.RoleEmployee {
		t.Errorf("owner roles = %v", roles)
	}

	got, err := f.tickets.Get(ctx, bob, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Owner == nil || got.Owner.FullName != "alice@example.com" || got.Owner.Role != domain.RoleStudent {
		t.Errorf("Get() owner = %+v", got.Owner)
	}
}
