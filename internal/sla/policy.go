// Package sla holds the priority policy table, breach evaluation and fleet KPIs.
package sla

import (
	"time"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

// Window is the response and resolution allowance for one priority.
type Window struct {
	Response   time.Duration
	Resolution time.Duration
}

var policy = map[domain.TicketPriority]Window{
	domain.TicketPriorityCritical: {Response: 1 * time.Hour, Resolution: 4 * time.Hour},
	domain.TicketPriorityHigh:     {Response: 4 * time.Hour, Resolution: 24 * time.Hour},
	domain.TicketPriorityMedium:   {Response: 8 * time.Hour, Resolution: 72 * time.Hour},
	domain.TicketPriorityLow:      {Response: 24 * time.Hour, Resolution: 168 * time.Hour},
}

// WindowFor returns the policy window for a priority.
func WindowFor(p domain.TicketPriority) (Window, bool) {
	w, ok := policy[p]
	return w, ok
}

// Compute derives the deadlines from the creation time and the current priority.
// Deadlines are always anchored to createdAt.
func Compute(createdAt time.Time, p domain.TicketPriority) (domain.SLA, bool) {
	w, ok := WindowFor(p)
	if !ok {
		return domain.SLA{}, false
	}
	return domain.SLA{
		ResponseDeadline:   createdAt.Add(w.Response),
		ResolutionDeadline: createdAt.Add(w.Resolution),
		Config: domain.SLAConfig{
			ResponseHours:   int(w.Response / time.Hour),
			ResolutionHours: int(w.Resolution / time.Hour),
		},
	}, true
}
