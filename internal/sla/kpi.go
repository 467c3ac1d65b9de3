package sla

import (
	"time"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

// KPI summarizes the whole ticket collection.
type KPI struct {
	TotalTickets       int
	OpenTickets        int
	ResolvedTickets    int
	BreachedResponse   int
	BreachedResolution int
	AvgResolutionHours float64
	ByPriority         map[domain.TicketPriority]int
	ByStatus           map[domain.TicketStatus]int
}

// Summarize scans tickets once and derives the fleet statistics at now.
// ByPriority only counts open tickets; ByStatus counts everything.
func Summarize(tickets []domain.Ticket, now time.Time) KPI {
	kpi := KPI{
		TotalTickets: len(tickets),
		ByPriority:   make(map[domain.TicketPriority]int, len(domain.TicketPriorities)),
		ByStatus:     make(map[domain.TicketStatus]int, len(domain.TicketStatuses)),
	}
	for _, p := range domain.TicketPriorities {
		kpi.ByPriority[p] = 0
	}
	for _, s := range domain.TicketStatuses {
		kpi.ByStatus[s] = 0
	}

	var resolvedHours float64
	for i := range tickets {
		t := &tickets[i]
		if t.Status.Valid() {
			kpi.ByStatus[t.Status]++
		}

		if t.Status.Terminal() {
			kpi.ResolvedTickets++
			resolvedHours += resolutionHours(t)
			continue
		}

		kpi.OpenTickets++
		if t.Priority.Valid() {
			kpi.ByPriority[t.Priority]++
		}
		if t.FirstResponseAt == nil && now.After(t.SLA.ResponseDeadline) {
			kpi.BreachedResponse++
		}
		if now.After(t.SLA.ResolutionDeadline) {
			kpi.BreachedResolution++
		}
	}

	if kpi.ResolvedTickets > 0 {
		kpi.AvgResolutionHours = resolvedHours / float64(kpi.ResolvedTickets)
	}
	return kpi
}

// resolutionHours falls back to UpdatedAt for tickets closed without passing through resolved.
func resolutionHours(t *domain.Ticket) float64 {
	end := t.UpdatedAt
	if t.ResolvedAt != nil {
		end = *t.ResolvedAt
	}
	return end.Sub(t.CreatedAt).Hours()
}
