package events

import (
	"time"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketCommented       EventType = "ticket_commented"
	EventTicketFirstResponse   EventType = "ticket_first_response"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketSLABreached     EventType = "ticket_sla_breached"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Name    string `json:"name"`
	IsStaff bool   `json:"is_staff"`
}

// ActorFrom converts a domain actor.
func ActorFrom(a domain.Actor) Actor {
	return Actor{Name: a.Name, IsStaff: a.IsStaff}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Priority      domain.TicketPriority `json:"priority"`
	Subject       string                `json:"subject"`
	CustomerEmail string                `json:"customer_email"`
	SLA           domain.SLA            `json:"sla"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	CommentID   string `json:"comment_id"`
	IsStaff     bool   `json:"is_staff"`
	BodyPreview string `json:"body_preview"`
}

// TicketFirstResponsePayload payload.
type TicketFirstResponsePayload struct {
	RespondedAt      time.Time `json:"responded_at"`
	ResponseDeadline time.Time `json:"response_deadline"`
	WithinSLA        bool      `json:"within_sla"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
	SLA         domain.SLA            `json:"sla"`
}

// TicketAssignedPayload payload. An empty assignee means the ticket was unassigned.
type TicketAssignedPayload struct {
	Assignee string `json:"assignee"`
}

// BreachKind names which SLA clock was missed.
type BreachKind string

const (
	BreachResponse   BreachKind = "response"
	BreachResolution BreachKind = "resolution"
)

// TicketSLABreachedPayload payload.
type TicketSLABreachedPayload struct {
	Kind     BreachKind            `json:"kind"`
	Priority domain.TicketPriority `json:"priority"`
	Deadline time.Time             `json:"deadline"`
}
