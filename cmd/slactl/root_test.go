package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/lifecycle"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
	"github.com/spec-kit/ticket-sla-service/internal/service"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	store *repository.MemoryTicketStore
	now   time.Time
	ids   map[string]string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{store: repository.NewMemoryTicketStore(), now: t0, ids: map[string]string{}}
	svc := env.service()
	ctx := context.Background()

	for _, p := range []string{"critical", "low"} {
		tk, err := svc.CreateTicket(ctx, lifecycle.CreateInput{
			CustomerName:  "Dana",
			CustomerEmail: "dana@example.com",
			Subject:       p + " issue",
			Description:   "details",
			Priority:      p,
		})
		if err != nil {
			t.Fatal(err)
		}
		env.ids[p] = tk.TicketID
	}
	if _, err := svc.ApplyAction(ctx, env.ids["low"], lifecycle.Action{
		Kind:    lifecycle.ActionComment,
		Actor:   domain.Actor{Name: "Sam", IsStaff: true},
		Message: "ack",
	}); err != nil {
		t.Fatal(err)
	}

	// two hours later the critical ticket has missed its one-hour response window
	env.now = t0.Add(2 * time.Hour)
	return env
}

func (e *testEnv) service() *service.TicketService {
	clock := func() time.Time { return e.now }
	return service.NewTicketService(service.TicketDependencies{
		Store:  e.store,
		Engine: lifecycle.NewEngine(lifecycle.EngineDependencies{Clock: clock}),
		Clock:  clock,
	})
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(func(context.Context) (*service.TicketService, func(), error) {
		return e.service(), func() {}, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestKPICommandYAML(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "kpi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var kpi struct {
		TotalTickets     int `yaml:"total_tickets"`
		BreachedResponse int `yaml:"breached_response"`
	}
	if err := yaml.Unmarshal([]byte(out), &kpi); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if kpi.TotalTickets != 2 || kpi.BreachedResponse != 1 {
		t.Errorf("kpi = %+v", kpi)
	}
}

func TestBreachesCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "breaches", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rows []breachRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(rows) != 1 || rows[0].TicketID != env.ids["critical"] || !rows[0].ResponseBreached {
		t.Errorf("rows = %+v", rows)
	}

	out, err = env.run(t, "breaches", "--json", "--kind", "resolution")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("resolution breaches = %q, want []", out)
	}

	if _, err := env.run(t, "breaches", "--kind", "late"); err == nil {
		t.Error("expected error for invalid --kind")
	}
}

func TestShowCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "show", env.ids["low"])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, env.ids["low"]) || !strings.Contains(out, "status: open") {
		t.Errorf("output = %q", out)
	}

	if _, err := env.run(t, "show", "TKT-20260302-ZZZZ"); err == nil {
		t.Fatal("expected error for missing ticket")
	}
}

func TestBreachesCommandIgnoresClosedTickets(t *testing.T) {
	env := newTestEnv(t)
	env.now = t0.Add(10 * time.Minute)
	if _, err := env.service().ApplyAction(context.Background(), env.ids["critical"], lifecycle.Action{
		Kind:   lifecycle.ActionUpdateStatus,
		Actor:  domain.Actor{Name: "Sam", IsStaff: true},
		Status: "closed",
	}); err != nil {
		t.Fatal(err)
	}
	env.now = t0.Add(2 * time.Hour)

	out, err := env.run(t, "breaches", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("breaches = %q, want []", out)
	}
}
