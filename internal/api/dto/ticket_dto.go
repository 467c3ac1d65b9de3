package dto

import (
	"time"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/sla"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerCompany string `json:"customer_company"`
	Subject         string `json:"subject"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Priority        string `json:"priority"`
	Product         string `json:"product"`
	Version         string `json:"version"`
}

// TicketActionRequest payload. Only the field matching Action is read.
// Customer comments are attributed to the ticket's customer; staff callers
// are named by their token.
type TicketActionRequest struct {
	Action   string `json:"action"`
	Message  string `json:"message"`
	Status   string `json:"status"`
	Assignee string `json:"assignee"`
	Priority string `json:"priority"`
}

// SLAStatusResponse is the read-time breach state. Remaining times are in milliseconds.
type SLAStatusResponse struct {
	ResponseBreached          bool  `json:"response_breached" yaml:"response_breached"`
	ResolutionBreached        bool  `json:"resolution_breached" yaml:"resolution_breached"`
	ResponseTimeRemainingMs   int64 `json:"response_time_remaining_ms" yaml:"response_time_remaining_ms"`
	ResolutionTimeRemainingMs int64 `json:"resolution_time_remaining_ms" yaml:"resolution_time_remaining_ms"`
}

// SLAResponse carries the stored deadlines.
type SLAResponse struct {
	ResponseDeadline   time.Time `json:"response_deadline" yaml:"response_deadline"`
	ResolutionDeadline time.Time `json:"resolution_deadline" yaml:"resolution_deadline"`
	ResponseHours      int       `json:"response_hours" yaml:"response_hours"`
	ResolutionHours    int       `json:"resolution_hours" yaml:"resolution_hours"`
}

// TimelineEntryResponse is one audit entry.
type TimelineEntryResponse struct {
	Type    domain.TimelineEntryType `json:"type" yaml:"type"`
	Message string                   `json:"message" yaml:"message"`
	By      string                   `json:"by" yaml:"by"`
	At      time.Time                `json:"at" yaml:"at"`
}

// CommentResponse is one reply in the thread.
type CommentResponse struct {
	ID      string    `json:"id" yaml:"id"`
	Message string    `json:"message" yaml:"message"`
	By      string    `json:"by" yaml:"by"`
	IsStaff bool      `json:"is_staff" yaml:"is_staff"`
	At      time.Time `json:"at" yaml:"at"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	TicketID        string                  `json:"ticket_id" yaml:"ticket_id"`
	Subject         string                  `json:"subject" yaml:"subject"`
	Description     string                  `json:"description" yaml:"description"`
	Category        string                  `json:"category" yaml:"category"`
	Priority        domain.TicketPriority   `json:"priority" yaml:"priority"`
	Status          domain.TicketStatus     `json:"status" yaml:"status"`
	CustomerName    string                  `json:"customer_name" yaml:"customer_name"`
	CustomerEmail   string                  `json:"customer_email" yaml:"customer_email"`
	CustomerCompany string                  `json:"customer_company,omitempty" yaml:"customer_company,omitempty"`
	Product         string                  `json:"product" yaml:"product"`
	Version         string                  `json:"version,omitempty" yaml:"version,omitempty"`
	Assignee        string                  `json:"assignee" yaml:"assignee"`
	SLA             SLAResponse             `json:"sla" yaml:"sla"`
	SLAStatus       *SLAStatusResponse      `json:"sla_status,omitempty" yaml:"sla_status,omitempty"`
	FirstResponseAt *time.Time              `json:"first_response_at" yaml:"first_response_at"`
	ResolvedAt      *time.Time              `json:"resolved_at" yaml:"resolved_at"`
	ClosedAt        *time.Time              `json:"closed_at" yaml:"closed_at"`
	CreatedAt       time.Time               `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at" yaml:"updated_at"`
	Timeline        []TimelineEntryResponse `json:"timeline" yaml:"timeline"`
	Comments        []CommentResponse       `json:"comments" yaml:"comments"`
}

// KPIResponse is the fleet summary returned to privileged callers.
type KPIResponse struct {
	TotalTickets       int                           `json:"total_tickets" yaml:"total_tickets"`
	OpenTickets        int                           `json:"open_tickets" yaml:"open_tickets"`
	ResolvedTickets    int                           `json:"resolved_tickets" yaml:"resolved_tickets"`
	BreachedResponse   int                           `json:"breached_response" yaml:"breached_response"`
	BreachedResolution int                           `json:"breached_resolution" yaml:"breached_resolution"`
	AvgResolutionHours float64                       `json:"avg_resolution_hours" yaml:"avg_resolution_hours"`
	ByPriority         map[domain.TicketPriority]int `json:"by_priority" yaml:"by_priority"`
	ByStatus           map[domain.TicketStatus]int   `json:"by_status" yaml:"by_status"`
}

// TicketListResponse wraps a listing.
type TicketListResponse struct {
	Tickets []TicketResponse `json:"tickets" yaml:"tickets"`
	KPI     *KPIResponse     `json:"kpi,omitempty" yaml:"kpi,omitempty"`
}

// NewTicketResponse maps a ticket without SLA status.
func NewTicketResponse(t domain.Ticket) TicketResponse {
	resp := TicketResponse{
		TicketID:        t.TicketID,
		Subject:         t.Subject,
		Description:     t.Description,
		Category:        t.Category,
		Priority:        t.Priority,
		Status:          t.Status,
		CustomerName:    t.CustomerName,
		CustomerEmail:   t.CustomerEmail,
		CustomerCompany: t.CustomerCompany,
		Product:         t.Product,
		Version:         t.Version,
		Assignee:        t.Assignee,
		SLA: SLAResponse{
			ResponseDeadline:   t.SLA.ResponseDeadline,
			ResolutionDeadline: t.SLA.ResolutionDeadline,
			ResponseHours:      t.SLA.Config.ResponseHours,
			ResolutionHours:    t.SLA.Config.ResolutionHours,
		},
		FirstResponseAt: t.FirstResponseAt,
		ResolvedAt:      t.ResolvedAt,
		ClosedAt:        t.ClosedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		Timeline:        make([]TimelineEntryResponse, 0, len(t.Timeline)),
		Comments:        make([]CommentResponse, 0, len(t.Comments)),
	}
	for _, e := range t.Timeline {
		resp.Timeline = append(resp.Timeline, TimelineEntryResponse{Type: e.Type, Message: e.Message, By: e.By, At: e.At})
	}
	for _, c := range t.Comments {
		resp.Comments = append(resp.Comments, CommentResponse{ID: c.ID, Message: c.Message, By: c.By, IsStaff: c.IsStaff, At: c.At})
	}
	return resp
}

// NewEvaluatedTicketResponse maps a ticket together with its SLA status.
func NewEvaluatedTicketResponse(t domain.Ticket, st sla.Status) TicketResponse {
	resp := NewTicketResponse(t)
	status := NewSLAStatusResponse(st)
	resp.SLAStatus = &status
	return resp
}

// NewSLAStatusResponse converts durations to milliseconds.
func NewSLAStatusResponse(st sla.Status) SLAStatusResponse {
	return SLAStatusResponse{
		ResponseBreached:          st.ResponseBreached,
		ResolutionBreached:        st.ResolutionBreached,
		ResponseTimeRemainingMs:   st.ResponseTimeRemaining.Milliseconds(),
		ResolutionTimeRemainingMs: st.ResolutionTimeRemaining.Milliseconds(),
	}
}

// NewKPIResponse maps the aggregator output.
func NewKPIResponse(k sla.KPI) KPIResponse {
	return KPIResponse{
		TotalTickets:       k.TotalTickets,
		OpenTickets:        k.OpenTickets,
		ResolvedTickets:    k.ResolvedTickets,
		BreachedResponse:   k.BreachedResponse,
		BreachedResolution: k.BreachedResolution,
		AvgResolutionHours: k.AvgResolutionHours,
		ByPriority:         k.ByPriority,
		ByStatus:           k.ByStatus,
	}
}
