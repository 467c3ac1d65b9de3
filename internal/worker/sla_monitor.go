package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/events"
	"github.com/spec-kit/ticket-sla-service/internal/observability"
	"github.com/spec-kit/ticket-sla-service/internal/service"
)

// Snapshotter yields the evaluated ticket collection.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*service.Snapshot, error)
}

// SLAMonitorDependencies bundles collaborators for the monitor.
type SLAMonitorDependencies struct {
	Tickets    Snapshotter
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Interval   time.Duration
}

type breachKey struct {
	ticketID string
	kind     events.BreachKind
}

// SLAMonitor periodically sweeps the collection, refreshes the SLA gauges
// and announces each breach once while it persists.
type SLAMonitor struct {
	tickets    Snapshotter
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	interval   time.Duration

	mu       sync.Mutex
	breached map[breachKey]struct{}
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(deps SLAMonitorDependencies) *SLAMonitor {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAMonitor{
		tickets:    deps.Tickets,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		interval:   deps.Interval,
		breached:   make(map[breachKey]struct{}),
	}
}

// Run sweeps once immediately, then on every tick until ctx is done.
// A non-positive interval disables the monitor.
func (m *SLAMonitor) Run(ctx context.Context) {
	if m.interval <= 0 {
		m.logger.Info("sla monitor disabled")
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if _, err := m.Sweep(ctx); err != nil {
			m.logger.Warn("sla sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep evaluates every ticket once and returns the number of breach events published.
// Resolved and closed tickets never raise breaches.
func (m *SLAMonitor) Sweep(ctx context.Context) (int, error) {
	snap, err := m.tickets.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	m.metrics.ObserveKPI(snap.KPI)

	m.mu.Lock()
	defer m.mu.Unlock()

	current := make(map[breachKey]struct{})
	published := 0
	for _, view := range snap.Tickets {
		t := view.Ticket
		if t.Status.Terminal() {
			continue
		}
		if view.SLA.ResponseBreached {
			key := breachKey{ticketID: t.TicketID, kind: events.BreachResponse}
			current[key] = struct{}{}
			if _, seen := m.breached[key]; !seen {
				m.publish(ctx, snap.At, key, t.Priority, t.SLA.ResponseDeadline)
				published++
			}
		}
		if view.SLA.ResolutionBreached {
			key := breachKey{ticketID: t.TicketID, kind: events.BreachResolution}
			current[key] = struct{}{}
			if _, seen := m.breached[key]; !seen {
				m.publish(ctx, snap.At, key, t.Priority, t.SLA.ResolutionDeadline)
				published++
			}
		}
	}
	m.breached = current

	m.logger.Debug("sla sweep",
		zap.Int("open", snap.KPI.OpenTickets),
		zap.Int("breached_response", snap.KPI.BreachedResponse),
		zap.Int("breached_resolution", snap.KPI.BreachedResolution),
		zap.Int("published", published))
	return published, nil
}

func (m *SLAMonitor) publish(ctx context.Context, at time.Time, key breachKey, priority domain.TicketPriority, deadline time.Time) {
	if m.dispatcher == nil {
		return
	}
	err := m.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketSLABreached,
		TicketID:  key.ticketID,
		Actor:     events.Actor{Name: "sla-monitor", IsStaff: true},
		Timestamp: at,
		Payload: events.TicketSLABreachedPayload{
			Kind:     key.kind,
			Priority: priority,
			Deadline: deadline,
		},
	})
	if err != nil {
		m.logger.Warn("publish breach event failed",
			zap.String("ticket_id", key.ticketID),
			zap.String("kind", string(key.kind)),
			zap.Error(err))
	}
}
