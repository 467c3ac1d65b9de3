package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/config"
	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

func TestOpenTicketStoreMemory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageMemory, DocumentKey: "tickets"}}
	store, closeFn, err := OpenTicketStore(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenTicketStore() error: %v", err)
	}
	defer closeFn()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestOpenTicketStoreSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tickets.db")
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.StorageSQLite, DocumentKey: "tickets"},
		SQLite:  config.SQLiteConfig{Path: path},
	}

	store, closeFn, err := OpenTicketStore(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("OpenTicketStore() error: %v", err)
	}
	c, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	c.Tickets = append(c.Tickets, domain.Ticket{TicketID: "TKT-20260302-AAAA", Status: domain.TicketStatusNew})
	if err := store.Save(ctx, c); err != nil {
		t.Fatal(err)
	}
	closeFn()

	// reopening runs the schema statement again and sees the saved document.
	store, closeFn, err = OpenTicketStore(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer closeFn()
	reloaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Version != 1 || len(reloaded.Tickets) != 1 {
		t.Errorf("reloaded = %+v", reloaded)
	}
}

func TestOpenTicketStoreUnknownBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "s3", DocumentKey: "tickets"}}
	if _, _, err := OpenTicketStore(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewPostgresRequiresDSN(t *testing.T) {
	if _, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop()); err == nil {
		t.Fatal("expected error without DSN")
	}
}

func TestMigrationNames(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatalf("migrationNames() error: %v", err)
	}
	if len(names) == 0 || names[0] != "001_ticket_documents.sql" {
		t.Errorf("names = %v", names)
	}
}
