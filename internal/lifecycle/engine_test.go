package lifecycle

import (
	"reflect"
	"testing"
	"time"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/sla"
	apperrors "github.com/spec-kit/ticket-sla-service/pkg/util/errorutil"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type sequenceIDs struct {
	ids []string
}

func (s *sequenceIDs) NewID(exists func(string) bool) (string, error) {
	for len(s.ids) > 0 {
		id := s.ids[0]
		s.ids = s.ids[1:]
		if exists == nil || !exists(id) {
			return id, nil
		}
	}
	return "TKT-20260302-ZZZZ", nil
}

func newTestEngine(clock *manualClock) *Engine {
	return NewEngine(EngineDependencies{
		Clock: clock.Now,
		IDs:   &sequenceIDs{ids: []string{"TKT-20260302-A1B2"}},
	})
}

func validInput() CreateInput {
	return CreateInput{
		CustomerName:  "Dana Ruiz",
		CustomerEmail: "dana@example.com",
		Subject:       "Export fails",
		Description:   "CSV export returns 500",
	}
}

var (
	staff    = domain.Actor{Name: "agent.kim", IsStaff: true}
	customer = domain.Actor{Name: "Dana Ruiz"}
)

func mustCreate(t *testing.T, e *Engine, input CreateInput) *domain.Ticket {
	t.Helper()
	tk, err := e.Create(input, nil)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	return tk
}

func mustApply(t *testing.T, e *Engine, tk *domain.Ticket, a Action) Change {
	t.Helper()
	change, err := e.Apply(tk, a)
	if err != nil {
		t.Fatalf("Apply(%s) error: %v", a.Kind, err)
	}
	return change
}

func TestCreateDefaults(t *testing.T) {
	clock := &manualClock{now: t0}
	tk := mustCreate(t, newTestEngine(clock), validInput())

	if tk.TicketID != "TKT-20260302-A1B2" {
		t.Errorf("TicketID = %q", tk.TicketID)
	}
	if tk.Priority != domain.TicketPriorityMedium {
		t.Errorf("Priority = %s, want medium", tk.Priority)
	}
	if tk.Category != DefaultCategory || tk.Product != DefaultProduct {
		t.Errorf("Category/Product = %q/%q", tk.Category, tk.Product)
	}
	if tk.Status != domain.TicketStatusNew {
		t.Errorf("Status = %s, want new", tk.Status)
	}
	if !tk.CreatedAt.Equal(t0) || !tk.UpdatedAt.Equal(t0) {
		t.Errorf("timestamps = %v/%v, want %v", tk.CreatedAt, tk.UpdatedAt, t0)
	}
	if len(tk.Timeline) != 1 {
		t.Fatalf("timeline length = %d, want 1", len(tk.Timeline))
	}
	entry := tk.Timeline[0]
	if entry.Type != domain.TimelineCreated || entry.Message != "Ticket created" || entry.By != "Dana Ruiz" {
		t.Errorf("timeline[0] = %+v", entry)
	}
	if tk.FirstResponseAt != nil || tk.ResolvedAt != nil || tk.ClosedAt != nil {
		t.Error("milestone timestamps should be unset")
	}
}

func TestCreateConfiguredProduct(t *testing.T) {
	e := NewEngine(EngineDependencies{Clock: FixedClock(t0), DefaultProduct: "Ledger Cloud"})
	tk := mustCreate(t, e, validInput())
	if tk.Product != "Ledger Cloud" {
		t.Errorf("Product = %q, want Ledger Cloud", tk.Product)
	}
	if !ValidID(tk.TicketID) {
		t.Errorf("generated id %q has wrong shape", tk.TicketID)
	}
}

func TestCreateSLAWindows(t *testing.T) {
	for _, p := range domain.TicketPriorities {
		clock := &manualClock{now: t0}
		input := validInput()
		input.Priority = string(p)
		tk := mustCreate(t, newTestEngine(clock), input)

		w, _ := sla.WindowFor(p)
		if got := tk.SLA.ResponseDeadline.Sub(tk.CreatedAt); got != w.Response {
			t.Errorf("%s response window = %v, want %v", p, got, w.Response)
		}
		if got := tk.SLA.ResolutionDeadline.Sub(tk.CreatedAt); got != w.Resolution {
			t.Errorf("%s resolution window = %v, want %v", p, got, w.Resolution)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing name", func(in *CreateInput) { in.CustomerName = "" }},
		{"missing email", func(in *CreateInput) { in.CustomerEmail = "  " }},
		{"missing subject", func(in *CreateInput) { in.Subject = "" }},
		{"missing description", func(in *CreateInput) { in.Description = "" }},
		{"unknown priority", func(in *CreateInput) { in.Priority = "urgent" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)
			_, err := newTestEngine(&manualClock{now: t0}).Create(input, nil)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestCreateReportsAllMissingFields(t *testing.T) {
	_, err := newTestEngine(&manualClock{now: t0}).Create(CreateInput{Subject: "x"}, nil)
	de := apperrors.ToDomainError(err)
	missing, _ := de.Details["missing_fields"].([]string)
	if len(missing) != 3 {
		t.Errorf("missing_fields = %v, want 3 entries", de.Details["missing_fields"])
	}
}

func TestCreateSkipsExistingIDs(t *testing.T) {
	e := NewEngine(EngineDependencies{
		Clock: FixedClock(t0),
		IDs:   &sequenceIDs{ids: []string{"TKT-20260302-AAAA", "TKT-20260302-BBBB"}},
	})
	tk, err := e.Create(validInput(), func(id string) bool { return id == "TKT-20260302-AAAA" })
	if err != nil {
		t.Fatal(err)
	}
	if tk.TicketID != "TKT-20260302-BBBB" {
		t.Errorf("TicketID = %s, want the non-colliding candidate", tk.TicketID)
	}
}

func TestFirstStaffCommentOpensTicket(t *testing.T) {
	clock := &manualClock{now: t0}
	e := newTestEngine(clock)
	input := validInput()
	input.Priority = "low"
	tk := mustCreate(t, e, input)

	clock.Advance(time.Hour)
	change := mustApply(t, e, tk, Action{Kind: ActionComment, Actor: staff, Message: "Looking into it"})

	if !change.FirstResponse || !change.StatusChanged() {
		t.Errorf("change = %+v", change)
	}
	if tk.Status != domain.TicketStatusOpen {
		t.Errorf("Status = %s, want open", tk.Status)
	}
	if tk.FirstResponseAt == nil || !tk.FirstResponseAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("FirstResponseAt = %v, want T0+1h", tk.FirstResponseAt)
	}
	if len(tk.Comments) != 1 || !tk.Comments[0].IsStaff || tk.Comments[0].ID == "" {
		t.Errorf("comments = %+v", tk.Comments)
	}
	types := []domain.TimelineEntryType{domain.TimelineCreated, domain.TimelineComment, domain.TimelineFirstResponse}
	if len(tk.Timeline) != len(types) {
		t.Fatalf("timeline = %+v", tk.Timeline)
	}
	for i, typ := range types {
		if tk.Timeline[i].Type != typ {
			t.Errorf("timeline[%d].Type = %s, want %s", i, tk.Timeline[i].Type, typ)
		}
	}

	clock.Advance(time.Hour)
	second := mustApply(t, e, tk, Action{Kind: ActionComment, Actor: staff, Message: "Fixed"})
	if second.FirstResponse {
		t.Error("second staff comment must not count as first response")
	}
	if !tk.FirstResponseAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("FirstResponseAt moved to %v", tk.FirstResponseAt)
	}
	if len(tk.Timeline) != 4 {
		t.Errorf("timeline length = %d, want 4", len(tk.Timeline))
	}
	if !tk.UpdatedAt.Equal(t0.Add(2 * time.Hour)) {
		t.Errorf("UpdatedAt = %v", tk.UpdatedAt)
	}
}

func TestCustomerCommentSideEffects(t *testing.T) {
	tests := []struct {
		from domain.TicketStatus
		want domain.TicketStatus
	}{
		{domain.TicketStatusWaitingCustomer, domain.TicketStatusOpen},
		{domain.TicketStatusNew, domain.TicketStatusNew},
		{domain.TicketStatusWaitingVendor, domain.TicketStatusWaitingVendor},
		{domain.TicketStatusResolved, domain.TicketStatusResolved},
	}

	for _, tt := range tests {
		clock := &manualClock{now: t0}
		e := newTestEngine(clock)
		tk := mustCreate(t, e, validInput())
		tk.Status = tt.from

		mustApply(t, e, tk, Action{Kind: ActionComment, Actor: customer, Message: "Any update?"})
		if tk.Status != tt.want {
			t.Errorf("customer comment on %s -> %s, want %s", tt.from, tk.Status, tt.want)
		}
		if tk.FirstResponseAt != nil {
			t.Error("customer comment must not set FirstResponseAt")
		}
		if len(tk.Timeline) != 2 {
			t.Errorf("timeline length = %d, want 2", len(tk.Timeline))
		}
	}
}

func TestCommentRequiresMessage(t *testing.T) {
	e := newTestEngine(&manualClock{now: t0})
	tk := mustCreate(t, e, validInput())
	before := tk.Clone()

	_, err := e.Apply(tk, Action{Kind: ActionComment, Actor: staff, Message: "   "})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if len(tk.Comments) != 0 || len(tk.Timeline) != len(before.Timeline) || tk.Status != before.Status {
		t.Error("rejected action must not mutate the ticket")
	}
}

func TestUpdateStatus(t *testing.T) {
	clock := &manualClock{now: t0}
	e := newTestEngine(clock)
	tk := mustCreate(t, e, validInput())

	clock.Advance(2 * time.Hour)
	mustApply(t, e, tk, Action{Kind: ActionUpdateStatus, Actor: staff, Status: "resolved"})
	if tk.ResolvedAt == nil || !tk.ResolvedAt.Equal(t0.Add(2*time.Hour)) {
		t.Fatalf("ResolvedAt = %v", tk.ResolvedAt)
	}
	last := tk.Timeline[len(tk.Timeline)-1]
	if last.Type != domain.TimelineStatusChange || last.Message != "Status changed from new to resolved" {
		t.Errorf("timeline entry = %+v", last)
	}

	// any status may follow any status, and resolving again overwrites ResolvedAt.
	clock.Advance(time.Hour)
	mustApply(t, e, tk, Action{Kind: ActionUpdateStatus, Actor: staff, Status: "new"})
	clock.Advance(time.Hour)
	mustApply(t, e, tk, Action{Kind: ActionUpdateStatus, Actor: staff, Status: "RESOLVED"})
	if !tk.ResolvedAt.Equal(t0.Add(4 * time.Hour)) {
		t.Errorf("ResolvedAt = %v, want T0+4h", tk.ResolvedAt)
	}

	clock.Advance(time.Hour)
	mustApply(t, e, tk, Action{Kind: ActionUpdateStatus, Actor: staff, Status: "closed"})
	if tk.ClosedAt == nil || !tk.ClosedAt.Equal(t0.Add(5*time.Hour)) {
		t.Errorf("ClosedAt = %v", tk.ClosedAt)
	}

	clock.Advance(time.Hour)
	before := tk.Clone()
	_, err := e.Apply(tk, Action{Kind: ActionUpdateStatus, Actor: staff, Status: "archived"})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("err = %v, want validation", err)
	}
	assertUnchanged(t, before, tk.Clone())
}

func TestAssign(t *testing.T) {
	e := newTestEngine(&manualClock{now: t0})
	tk := mustCreate(t, e, validInput())

	mustApply(t, e, tk, Action{Kind: ActionAssign, Actor: staff, Assignee: "agent.lee"})
	if tk.Assignee != "agent.lee" {
		t.Errorf("Assignee = %q", tk.Assignee)
	}
	mustApply(t, e, tk, Action{Kind: ActionAssign, Actor: staff, Assignee: ""})
	if tk.Assignee != "" {
		t.Errorf("Assignee = %q, want cleared", tk.Assignee)
	}
	if got := tk.Timeline[len(tk.Timeline)-1].Message; got != "Unassigned" {
		t.Errorf("last timeline message = %q", got)
	}
}

func TestUpdatePriorityAnchorsToCreatedAt(t *testing.T) {
	clock := &manualClock{now: t0}
	e := newTestEngine(clock)
	tk := mustCreate(t, e, validInput())
	if got := tk.SLA.ResolutionDeadline; !got.Equal(t0.Add(72 * time.Hour)) {
		t.Fatalf("initial resolution deadline = %v", got)
	}

	clock.Advance(10 * time.Hour)
	change := mustApply(t, e, tk, Action{Kind: ActionUpdatePriority, Actor: staff, Priority: "critical"})
	if change.OldPriority != domain.TicketPriorityMedium || change.NewPriority != domain.TicketPriorityCritical {
		t.Errorf("change = %+v", change)
	}
	if !tk.SLA.ResolutionDeadline.Equal(t0.Add(4 * time.Hour)) {
		t.Errorf("resolution deadline = %v, want createdAt+4h", tk.SLA.ResolutionDeadline)
	}

	clock.Advance(time.Hour)
	mustApply(t, e, tk, Action{Kind: ActionUpdatePriority, Actor: staff, Priority: "low"})
	if !tk.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt changed to %v", tk.CreatedAt)
	}
	if tk.SLA.ResponseDeadline.Sub(tk.CreatedAt) != 24*time.Hour || tk.SLA.ResolutionDeadline.Sub(tk.CreatedAt) != 168*time.Hour {
		t.Errorf("SLA = %+v, want low windows", tk.SLA)
	}
	if tk.SLA.Config.ResolutionHours != 168 {
		t.Errorf("Config = %+v", tk.SLA.Config)
	}

	clock.Advance(time.Hour)
	before := tk.Clone()
	_, err := e.Apply(tk, Action{Kind: ActionUpdatePriority, Actor: staff, Priority: "p1"})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("err = %v, want validation", err)
	}
	assertUnchanged(t, before, tk.Clone())
}

// assertUnchanged fails when a rejected action left any trace on the ticket.
// Both sides should come from Clone so empty and nil slices compare equal.
func assertUnchanged(t *testing.T, before, after domain.Ticket) {
	t.Helper()
	if len(after.Timeline) != len(before.Timeline) {
		t.Errorf("timeline grew from %d to %d entries", len(before.Timeline), len(after.Timeline))
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("UpdatedAt moved from %v to %v", before.UpdatedAt, after.UpdatedAt)
	}
	if after.Status != before.Status || after.Priority != before.Priority {
		t.Errorf("status/priority = %s/%s, want %s/%s", after.Status, after.Priority, before.Status, before.Priority)
	}
	if !reflect.DeepEqual(after, before) {
		t.Errorf("ticket modified by rejected action:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestStaffOnlyActions(t *testing.T) {
	e := newTestEngine(&manualClock{now: t0})
	tk := mustCreate(t, e, validInput())

	for _, kind := range []ActionKind{ActionUpdateStatus, ActionAssign, ActionUpdatePriority} {
		_, err := e.Apply(tk, Action{Kind: kind, Actor: customer, Status: "closed", Priority: "low", Assignee: "x"})
		if !apperrors.HasCode(err, apperrors.CodeForbidden) {
			t.Errorf("%s by customer: err = %v, want forbidden", kind, err)
		}
	}
	if len(tk.Timeline) != 1 {
		t.Errorf("forbidden actions appended timeline entries: %+v", tk.Timeline)
	}
}

func TestUnknownAction(t *testing.T) {
	e := newTestEngine(&manualClock{now: t0})
	tk := mustCreate(t, e, validInput())
	_, err := e.Apply(tk, Action{Kind: "delete", Actor: staff})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestEveryActionAppendsTimelineAndTouchesUpdatedAt(t *testing.T) {
	clock := &manualClock{now: t0}
	e := newTestEngine(clock)
	tk := mustCreate(t, e, validInput())
	tk.FirstResponseAt = &t0

	actions := []Action{
		{Kind: ActionComment, Actor: staff, Message: "hi"},
		{Kind: ActionUpdateStatus, Actor: staff, Status: "in_progress"},
		{Kind: ActionAssign, Actor: staff, Assignee: "agent.kim"},
		{Kind: ActionUpdatePriority, Actor: staff, Priority: "high"},
	}
	for _, a := range actions {
		clock.Advance(time.Minute)
		before := len(tk.Timeline)
		mustApply(t, e, tk, a)
		if len(tk.Timeline) != before+1 {
			t.Errorf("%s appended %d entries, want 1", a.Kind, len(tk.Timeline)-before)
		}
		if !tk.UpdatedAt.Equal(clock.Now()) {
			t.Errorf("%s did not refresh UpdatedAt", a.Kind)
		}
	}
}
