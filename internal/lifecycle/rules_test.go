package lifecycle

import (
	"testing"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

func TestStatusAfterComment(t *testing.T) {
	for _, status := range domain.TicketStatuses {
		for _, role := range []CommenterRole{RoleStaff, RoleCustomer} {
			got, changed := StatusAfterComment(status, role)

			want, wantChanged := status, false
			switch {
			case status == domain.TicketStatusNew && role == RoleStaff:
				want, wantChanged = domain.TicketStatusOpen, true
			case status == domain.TicketStatusWaitingCustomer && role == RoleCustomer:
				want, wantChanged = domain.TicketStatusOpen, true
			}

			if got != want || changed != wantChanged {
				t.Errorf("StatusAfterComment(%s, %s) = (%s, %v), want (%s, %v)", status, role, got, changed, want, wantChanged)
			}
		}
	}
}
