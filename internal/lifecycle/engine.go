// Package lifecycle creates tickets and applies the mutating ticket actions.
// It works on in-memory values only; persistence belongs to the caller.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/sla"
	apperrors "github.com/spec-kit/ticket-sla-service/pkg/util/errorutil"
)

const (
	// DefaultCategory is applied when a ticket is created without a category.
	DefaultCategory = "general"

	// DefaultProduct is used when no product default is configured.
	DefaultProduct = "Support Platform"
)

// ActionKind enumerates the mutating ticket actions.
type ActionKind string

const (
	ActionComment        ActionKind = "comment"
	ActionUpdateStatus   ActionKind = "update_status"
	ActionAssign         ActionKind = "assign"
	ActionUpdatePriority ActionKind = "update_priority"
)

// ParseActionKind validates a raw action name.
func ParseActionKind(raw string) (ActionKind, bool) {
	kind := ActionKind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case ActionComment, ActionUpdateStatus, ActionAssign, ActionUpdatePriority:
		return kind, true
	default:
		return kind, false
	}
}

// CreateInput describes ticket creation payload.
type CreateInput struct {
	CustomerName    string
	CustomerEmail   string
	CustomerCompany string
	Subject         string
	Description     string
	Category        string
	Priority        string
	Product         string
	Version         string
}

// Action is one mutation request against a ticket.
// Only the payload field matching Kind is read.
type Action struct {
	Kind     ActionKind
	Actor    domain.Actor
	Message  string
	Status   string
	Assignee string
	Priority string
}

// Change reports what an applied action did, for event publication.
type Change struct {
	Kind          ActionKind
	FirstResponse bool
	OldStatus     domain.TicketStatus
	NewStatus     domain.TicketStatus
	OldPriority   domain.TicketPriority
	NewPriority   domain.TicketPriority
	Assignee      string
	CommentID     string
}

// StatusChanged reports whether the action moved the ticket to another status.
func (c Change) StatusChanged() bool {
	return c.OldStatus != c.NewStatus
}

// Engine applies the ticket state machine.
type Engine struct {
	clock          Clock
	ids            IDGenerator
	defaultProduct string
}

// EngineDependencies bundles collaborators for the engine.
type EngineDependencies struct {
	Clock          Clock
	IDs            IDGenerator
	DefaultProduct string
}

// NewEngine constructs the engine, filling unset dependencies with defaults.
func NewEngine(deps EngineDependencies) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock
	}
	ids := deps.IDs
	if ids == nil {
		ids = NewRandomIDGenerator(clock)
	}
	product := strings.TrimSpace(deps.DefaultProduct)
	if product == "" {
		product = DefaultProduct
	}
	return &Engine{clock: clock, ids: ids, defaultProduct: product}
}

// Create validates input and builds a new ticket. exists reports identifiers already in use.
func (e *Engine) Create(input CreateInput, exists func(id string) bool) (*domain.Ticket, error) {
	name := strings.TrimSpace(input.CustomerName)
	email := strings.TrimSpace(input.CustomerEmail)
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)

	var missing []string
	if name == "" {
		missing = append(missing, "customer_name")
	}
	if email == "" {
		missing = append(missing, "customer_email")
	}
	if subject == "" {
		missing = append(missing, "subject")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError(
			strings.Join(missing, ", ")+" required",
			map[string]any{"missing_fields": missing},
		)
	}

	priority := domain.TicketPriorityMedium
	if strings.TrimSpace(input.Priority) != "" {
		parsed, ok := domain.ParseTicketPriority(input.Priority)
		if !ok {
			return nil, invalidPriority(input.Priority)
		}
		priority = parsed
	}

	id, err := e.ids.NewID(exists)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := e.clock()
	deadlines, _ := sla.Compute(now, priority)

	ticket := &domain.Ticket{
		TicketID:        id,
		Subject:         subject,
		Description:     description,
		Category:        valueOr(input.Category, DefaultCategory),
		Priority:        priority,
		Status:          domain.TicketStatusNew,
		CustomerName:    name,
		CustomerEmail:   email,
		CustomerCompany: strings.TrimSpace(input.CustomerCompany),
		Product:         valueOr(input.Product, e.defaultProduct),
		Version:         strings.TrimSpace(input.Version),
		SLA:             deadlines,
		CreatedAt:       now,
		UpdatedAt:       now,
		Timeline: []domain.TimelineEntry{{
			Type:    domain.TimelineCreated,
			Message: "Ticket created",
			By:      name,
			At:      now,
		}},
		Comments: []domain.Comment{},
	}
	return ticket, nil
}

// Apply mutates t according to action. Input is validated before t is touched.
func (e *Engine) Apply(t *domain.Ticket, action Action) (Change, error) {
	kind, ok := ParseActionKind(string(action.Kind))
	action.Kind = kind
	change := Change{
		Kind:        kind,
		OldStatus:   t.Status,
		NewStatus:   t.Status,
		OldPriority: t.Priority,
		NewPriority: t.Priority,
	}
	if !ok {
		return change, apperrors.NewValidationError("unknown action", map[string]any{"action": string(kind)})
	}
	if action.Kind != ActionComment && !action.Actor.IsStaff {
		return change, apperrors.NewForbidden(fmt.Sprintf("action %s requires staff", action.Kind))
	}

	now := e.clock()
	var err error
	switch action.Kind {
	case ActionComment:
		err = e.comment(t, action, now, &change)
	case ActionUpdateStatus:
		err = e.updateStatus(t, action, now, &change)
	case ActionAssign:
		e.assign(t, action, now, &change)
	case ActionUpdatePriority:
		err = e.updatePriority(t, action, now, &change)
	}
	if err != nil {
		return change, err
	}

	t.UpdatedAt = now
	return change, nil
}

func (e *Engine) comment(t *domain.Ticket, action Action, now time.Time, change *Change) error {
	message := strings.TrimSpace(action.Message)
	if message == "" {
		return apperrors.NewValidationError("message required", map[string]any{"field": "message"})
	}

	comment := domain.Comment{
		ID:      uuid.NewString(),
		Message: message,
		By:      action.Actor.Name,
		IsStaff: action.Actor.IsStaff,
		At:      now,
	}
	t.Comments = append(t.Comments, comment)
	change.CommentID = comment.ID

	role := roleOf(action.Actor)
	t.Timeline = append(t.Timeline, domain.TimelineEntry{
		Type:    domain.TimelineComment,
		Message: fmt.Sprintf("Reply from %s (%s)", action.Actor.Name, role),
		By:      action.Actor.Name,
		At:      now,
	})

	if action.Actor.IsStaff && t.FirstResponseAt == nil {
		respondedAt := now
		t.FirstResponseAt = &respondedAt
		t.Timeline = append(t.Timeline, domain.TimelineEntry{
			Type:    domain.TimelineFirstResponse,
			Message: "First response SLA met",
			By:      action.Actor.Name,
			At:      now,
		})
		change.FirstResponse = true
	}

	if next, ok := StatusAfterComment(t.Status, role); ok {
		t.Status = next
		change.NewStatus = next
	}
	return nil
}

func (e *Engine) updateStatus(t *domain.Ticket, action Action, now time.Time, change *Change) error {
	next, ok := domain.ParseTicketStatus(action.Status)
	if !ok {
		return apperrors.NewValidationError("invalid status", map[string]any{
			"status":  action.Status,
			"allowed": domain.TicketStatuses,
		})
	}

	old := t.Status
	t.Status = next
	switch next {
	case domain.TicketStatusResolved:
		resolvedAt := now
		t.ResolvedAt = &resolvedAt
	case domain.TicketStatusClosed:
		closedAt := now
		t.ClosedAt = &closedAt
	}
	t.Timeline = append(t.Timeline, domain.TimelineEntry{
		Type:    domain.TimelineStatusChange,
		Message: fmt.Sprintf("Status changed from %s to %s", old, next),
		By:      action.Actor.Name,
		At:      now,
	})
	change.NewStatus = next
	return nil
}

func (e *Engine) assign(t *domain.Ticket, action Action, now time.Time, change *Change) {
	assignee := strings.TrimSpace(action.Assignee)
	t.Assignee = assignee

	message := "Unassigned"
	if assignee != "" {
		message = "Assigned to " + assignee
	}
	t.Timeline = append(t.Timeline, domain.TimelineEntry{
		Type:    domain.TimelineAssignment,
		Message: message,
		By:      action.Actor.Name,
		At:      now,
	})
	change.Assignee = assignee
}

func (e *Engine) updatePriority(t *domain.Ticket, action Action, now time.Time, change *Change) error {
	next, ok := domain.ParseTicketPriority(action.Priority)
	if !ok {
		return invalidPriority(action.Priority)
	}

	old := t.Priority
	// Recomputed in full from the unchanged creation time.
	deadlines, _ := sla.Compute(t.CreatedAt, next)
	t.Priority = next
	t.SLA = deadlines
	t.Timeline = append(t.Timeline, domain.TimelineEntry{
		Type:    domain.TimelinePriorityChange,
		Message: fmt.Sprintf("Priority changed from %s to %s", old, next),
		By:      action.Actor.Name,
		At:      now,
	})
	change.NewPriority = next
	return nil
}

func invalidPriority(raw string) error {
	return apperrors.NewValidationError("invalid priority", map[string]any{
		"priority": raw,
		"allowed":  domain.TicketPriorities,
	})
}

func valueOr(val, fallback string) string {
	if v := strings.TrimSpace(val); v != "" {
		return v
	}
	return fallback
}
