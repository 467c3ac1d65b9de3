package lifecycle

import "github.com/spec-kit/ticket-sla-service/internal/domain"

// CommenterRole distinguishes staff replies from customer replies.
type CommenterRole string

const (
	RoleStaff    CommenterRole = "staff"
	RoleCustomer CommenterRole = "customer"
)

func roleOf(actor domain.Actor) CommenterRole {
	if actor.IsStaff {
		return RoleStaff
	}
	return RoleCustomer
}

type commentKey struct {
	status domain.TicketStatus
	role   CommenterRole
}

// commentTransitions lists the only implicit status changes a comment may cause.
var commentTransitions = map[commentKey]domain.TicketStatus{
	{domain.TicketStatusNew, RoleStaff}:                domain.TicketStatusOpen,
	{domain.TicketStatusWaitingCustomer, RoleCustomer}: domain.TicketStatusOpen,
}

// StatusAfterComment returns the status a ticket moves to when role comments on it.
// The second result is false when the comment leaves the status unchanged.
func StatusAfterComment(current domain.TicketStatus, role CommenterRole) (domain.TicketStatus, bool) {
	next, ok := commentTransitions[commentKey{status: current, role: role}]
	if !ok {
		return current, false
	}
	return next, true
}
