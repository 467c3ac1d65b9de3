package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/events"
	"github.com/spec-kit/ticket-sla-service/internal/lifecycle"
	"github.com/spec-kit/ticket-sla-service/internal/observability"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
	"github.com/spec-kit/ticket-sla-service/internal/sla"
	apperrors "github.com/spec-kit/ticket-sla-service/pkg/util/errorutil"
)

const bodyPreviewLen = 140

// TicketService coordinates ticket workflows: load the collection, run the
// lifecycle engine, save, then publish events.
type TicketService struct {
	store      repository.TicketStore
	engine     *lifecycle.Engine
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      lifecycle.Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.TicketStore
	Engine     *lifecycle.Engine
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      lifecycle.Clock
}

// TicketQuery describes listing filters as received from the caller.
type TicketQuery struct {
	CustomerEmail string
	TicketID      string
	Status        string
	Priority      string
	Assignee      string
}

// TicketView is a ticket annotated with its SLA status at read time.
type TicketView struct {
	Ticket domain.Ticket
	SLA    sla.Status
}

// ListResult carries a listing. KPI is set only for privileged callers.
type ListResult struct {
	Tickets []TicketView
	KPI     *sla.KPI
}

// Snapshot is the whole collection evaluated at one instant.
type Snapshot struct {
	At      time.Time
	Tickets []TicketView
	KPI     sla.KPI
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = lifecycle.SystemClock
	}
	engine := deps.Engine
	if engine == nil {
		engine = lifecycle.NewEngine(lifecycle.EngineDependencies{Clock: clock})
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:      deps.Store,
		engine:     engine,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		clock:      clock,
	}
}

// CreateTicket validates input, stores the new ticket and announces it.
func (s *TicketService) CreateTicket(ctx context.Context, input lifecycle.CreateInput) (*domain.Ticket, error) {
	coll, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	ticket, err := s.engine.Create(input, coll.Exists)
	if err != nil {
		return nil, err
	}
	coll.Tickets = append(coll.Tickets, *ticket)
	if err := s.save(ctx, coll); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.TicketID,
		Actor:    events.Actor{Name: ticket.CustomerName},
		Payload: events.TicketCreatedPayload{
			Priority:      ticket.Priority,
			Subject:       ticket.Subject,
			CustomerEmail: ticket.CustomerEmail,
			SLA:           ticket.SLA,
		},
	})
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.TicketID),
		zap.String("priority", string(ticket.Priority)))

	created := ticket.Clone()
	return &created, nil
}

// ListTickets returns matching tickets sorted for triage, each with a fresh SLA status.
// Non-privileged callers must identify a customer or a ticket.
func (s *TicketService) ListTickets(ctx context.Context, query TicketQuery, privileged bool) (*ListResult, error) {
	filter, err := parseQuery(query)
	if err != nil {
		return nil, err
	}
	if !privileged && filter.CustomerEmail == "" && filter.TicketID == "" {
		return nil, apperrors.NewValidationError("customer_email or ticket_id required", map[string]any{
			"fields": []string{"customer_email", "ticket_id"},
		})
	}

	coll, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	matched := coll.Filter(filter)
	sla.SortTickets(matched)

	result := &ListResult{Tickets: annotate(matched, now)}
	if privileged {
		kpi := sla.Summarize(coll.Tickets, now)
		result.KPI = &kpi
	}
	return result, nil
}

// GetTicket returns one ticket with its SLA status.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*TicketView, error) {
	coll, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := coll.Find(strings.TrimSpace(ticketID))
	if idx < 0 {
		return nil, ticketNotFound(ticketID)
	}
	t := coll.Tickets[idx]
	return &TicketView{Ticket: t, SLA: sla.Evaluate(t, s.clock())}, nil
}

// ApplyAction runs one lifecycle action against a stored ticket and persists the result.
// An unnamed customer actor is attributed to the ticket's customer.
func (s *TicketService) ApplyAction(ctx context.Context, ticketID string, action lifecycle.Action) (*domain.Ticket, error) {
	coll, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := coll.Find(strings.TrimSpace(ticketID))
	if idx < 0 {
		return nil, ticketNotFound(ticketID)
	}

	ticket := coll.Tickets[idx].Clone()
	if !action.Actor.IsStaff {
		action.Actor.Name = ticket.CustomerName
	}
	change, err := s.engine.Apply(&ticket, action)
	if err != nil {
		return nil, err
	}
	coll.Tickets[idx] = ticket
	if err := s.save(ctx, coll); err != nil {
		return nil, err
	}

	s.metrics.RecordAction(string(change.Kind))
	s.publishChange(ctx, &ticket, action.Actor, change)

	updated := ticket.Clone()
	return &updated, nil
}

// Snapshot evaluates the full collection at the current instant.
func (s *TicketService) Snapshot(ctx context.Context) (*Snapshot, error) {
	coll, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	tickets := coll.Tickets
	sla.SortTickets(tickets)
	return &Snapshot{
		At:      now,
		Tickets: annotate(tickets, now),
		KPI:     sla.Summarize(tickets, now),
	}, nil
}

// KPI summarizes the full collection.
func (s *TicketService) KPI(ctx context.Context) (sla.KPI, error) {
	coll, err := s.load(ctx)
	if err != nil {
		return sla.KPI{}, err
	}
	return sla.Summarize(coll.Tickets, s.clock()), nil
}

// Ready reports whether the backing store is reachable.
func (s *TicketService) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

func (s *TicketService) load(ctx context.Context) (*repository.Collection, error) {
	coll, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("load tickets", zap.Error(err))
		return nil, apperrors.NewStorageError(err)
	}
	return coll, nil
}

func (s *TicketService) save(ctx context.Context, coll *repository.Collection) error {
	err := s.store.Save(ctx, coll)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConflict("tickets were modified concurrently, retry the request", nil)
	default:
		s.logger.Error("save tickets", zap.Error(err))
		return apperrors.NewStorageError(err)
	}
}

func (s *TicketService) publishChange(ctx context.Context, t *domain.Ticket, actor domain.Actor, change lifecycle.Change) {
	base := events.Event{TicketID: t.TicketID, Actor: events.ActorFrom(actor)}

	switch change.Kind {
	case lifecycle.ActionComment:
		c := t.Comments[len(t.Comments)-1]
		ev := base
		ev.Type = events.EventTicketCommented
		ev.Payload = events.TicketCommentedPayload{
			CommentID:   change.CommentID,
			IsStaff:     c.IsStaff,
			BodyPreview: preview(c.Message),
		}
		s.publishEvent(ctx, ev)
		if change.FirstResponse && t.FirstResponseAt != nil {
			ev := base
			ev.Type = events.EventTicketFirstResponse
			ev.Payload = events.TicketFirstResponsePayload{
				RespondedAt:      *t.FirstResponseAt,
				ResponseDeadline: t.SLA.ResponseDeadline,
				WithinSLA:        !t.FirstResponseAt.After(t.SLA.ResponseDeadline),
			}
			s.publishEvent(ctx, ev)
		}
	case lifecycle.ActionAssign:
		ev := base
		ev.Type = events.EventTicketAssigned
		ev.Payload = events.TicketAssignedPayload{Assignee: change.Assignee}
		s.publishEvent(ctx, ev)
	case lifecycle.ActionUpdatePriority:
		ev := base
		ev.Type = events.EventTicketPriorityChanged
		ev.Payload = events.TicketPriorityChangedPayload{
			OldPriority: change.OldPriority,
			NewPriority: change.NewPriority,
			SLA:         t.SLA,
		}
		s.publishEvent(ctx, ev)
	}

	if change.Kind == lifecycle.ActionUpdateStatus || change.StatusChanged() {
		ev := base
		ev.Type = events.EventTicketStatusChanged
		ev.Payload = events.TicketStatusChangedPayload{OldStatus: change.OldStatus, NewStatus: change.NewStatus}
		s.publishEvent(ctx, ev)
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func parseQuery(q TicketQuery) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		CustomerEmail: strings.TrimSpace(q.CustomerEmail),
		TicketID:      strings.TrimSpace(q.TicketID),
		Assignee:      strings.TrimSpace(q.Assignee),
	}
	if raw := strings.TrimSpace(q.Status); raw != "" {
		status, ok := domain.ParseTicketStatus(raw)
		if !ok {
			return filter, apperrors.NewValidationError("invalid status filter", map[string]any{
				"status":  raw,
				"allowed": domain.TicketStatuses,
			})
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(q.Priority); raw != "" {
		priority, ok := domain.ParseTicketPriority(raw)
		if !ok {
			return filter, apperrors.NewValidationError("invalid priority filter", map[string]any{
				"priority": raw,
				"allowed":  domain.TicketPriorities,
			})
		}
		filter.Priority = priority
	}
	return filter, nil
}

func annotate(tickets []domain.Ticket, now time.Time) []TicketView {
	views := make([]TicketView, len(tickets))
	for i := range tickets {
		views[i] = TicketView{Ticket: tickets[i], SLA: sla.Evaluate(tickets[i], now)}
	}
	return views
}

func ticketNotFound(id string) error {
	return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= bodyPreviewLen {
		return body
	}
	return string(r[:bodyPreviewLen]) + "…"
}
