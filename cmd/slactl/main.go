// Command slactl inspects the ticket collection and its SLA state from the shell.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/config"
	"github.com/spec-kit/ticket-sla-service/internal/lifecycle"
	"github.com/spec-kit/ticket-sla-service/internal/persistence"
	"github.com/spec-kit/ticket-sla-service/internal/service"
)

func main() {
	if err := newRootCmd(openConfiguredStore).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openConfiguredStore reads the same environment as the API server.
func openConfiguredStore(ctx context.Context) (*service.TicketService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	store, closeStore, err := persistence.OpenTicketStore(ctx, cfg, zap.NewNop())
	if err != nil {
		return nil, nil, fmt.Errorf("open ticket store: %w", err)
	}
	svc := service.NewTicketService(service.TicketDependencies{
		Store: store,
		Clock: lifecycle.SystemClock,
	})
	return svc, closeStore, nil
}
