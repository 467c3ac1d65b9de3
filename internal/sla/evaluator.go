package sla

import (
	"time"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

// Status is the breach state of a ticket at a given instant. It is never stored.
type Status struct {
	ResponseBreached        bool
	ResolutionBreached      bool
	ResponseTimeRemaining   time.Duration
	ResolutionTimeRemaining time.Duration
}

// Evaluate computes the SLA status of t at now. It has no side effects.
func Evaluate(t domain.Ticket, now time.Time) Status {
	var st Status

	if t.FirstResponseAt == nil {
		st.ResponseBreached = now.After(t.SLA.ResponseDeadline)
		st.ResponseTimeRemaining = remaining(t.SLA.ResponseDeadline, now)
	}

	if !t.Status.Terminal() {
		st.ResolutionBreached = now.After(t.SLA.ResolutionDeadline)
		st.ResolutionTimeRemaining = remaining(t.SLA.ResolutionDeadline, now)
	}

	return st
}

func remaining(deadline, now time.Time) time.Duration {
	d := deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
