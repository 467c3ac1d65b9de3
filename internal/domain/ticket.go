package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew             TicketStatus = "new"
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusInProgress      TicketStatus = "in_progress"
	TicketStatusWaitingCustomer TicketStatus = "waiting_customer"
	TicketStatusWaitingVendor   TicketStatus = "waiting_vendor"
	TicketStatusResolved        TicketStatus = "resolved"
	TicketStatusClosed          TicketStatus = "closed"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusWaitingCustomer,
	TicketStatusWaitingVendor,
	TicketStatusResolved,
	TicketStatusClosed,
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "critical"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityLow      TicketPriority = "low"
)

// TicketPriorities lists priorities from most to least urgent.
var TicketPriorities = []TicketPriority{
	TicketPriorityCritical,
	TicketPriorityHigh,
	TicketPriorityMedium,
	TicketPriorityLow,
}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the ticket has left the active part of its lifecycle.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// Valid reports whether p is one of the known priorities.
func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseTicketStatus normalizes raw input into a TicketStatus.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	s := TicketStatus(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// ParseTicketPriority normalizes raw input into a TicketPriority.
func ParseTicketPriority(raw string) (TicketPriority, bool) {
	p := TicketPriority(strings.ToLower(strings.TrimSpace(raw)))
	return p, p.Valid()
}

// SLAConfig records the policy windows the deadlines were derived from.
type SLAConfig struct {
	ResponseHours   int `json:"response_hours"`
	ResolutionHours int `json:"resolution_hours"`
}

// SLA holds the contractual deadlines of a ticket.
type SLA struct {
	ResponseDeadline   time.Time `json:"response_deadline"`
	ResolutionDeadline time.Time `json:"resolution_deadline"`
	Config             SLAConfig `json:"config"`
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	TicketID        string          `json:"ticket_id"`
	Subject         string          `json:"subject"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Priority        TicketPriority  `json:"priority"`
	Status          TicketStatus    `json:"status"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerCompany string          `json:"customer_company"`
	Product         string          `json:"product"`
	Version         string          `json:"version"`
	Assignee        string          `json:"assignee"`
	SLA             SLA             `json:"sla"`
	FirstResponseAt *time.Time      `json:"first_response_at"`
	ResolvedAt      *time.Time      `json:"resolved_at"`
	ClosedAt        *time.Time      `json:"closed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Timeline        []TimelineEntry `json:"timeline"`
	Comments        []Comment       `json:"comments"`
}

// Clone returns a deep copy so callers can mutate without aliasing stored slices.
func (t Ticket) Clone() Ticket {
	out := t
	out.FirstResponseAt = cloneTime(t.FirstResponseAt)
	out.ResolvedAt = cloneTime(t.ResolvedAt)
	out.ClosedAt = cloneTime(t.ClosedAt)
	out.Timeline = append([]TimelineEntry(nil), t.Timeline...)
	out.Comments = append([]Comment(nil), t.Comments...)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
