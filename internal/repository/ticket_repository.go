package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

// ErrVersionConflict is returned by Save when the stored collection changed after Load.
var ErrVersionConflict = errors.New("ticket collection was modified concurrently")

// Collection is the whole ticket set, stored and fetched as one document.
type Collection struct {
	Version int64           `json:"version"`
	Tickets []domain.Ticket `json:"tickets"`
}

// TicketFilter narrows a listing. Empty fields match everything.
type TicketFilter struct {
	CustomerEmail string
	TicketID      string
	Status        domain.TicketStatus
	Priority      domain.TicketPriority
	Assignee      string
}

// TicketStore encapsulates ticket collection persistence.
// Save succeeds only if the stored version still equals c.Version, and then bumps c.Version.
type TicketStore interface {
	Load(ctx context.Context) (*Collection, error)
	Save(ctx context.Context, c *Collection) error
	Ping(ctx context.Context) error
}

// Find returns the index of the ticket with the given id, or -1.
func (c *Collection) Find(id string) int {
	for i := range c.Tickets {
		if c.Tickets[i].TicketID == id {
			return i
		}
	}
	return -1
}

// Exists reports whether id is already taken.
func (c *Collection) Exists(id string) bool {
	return c.Find(id) >= 0
}

// Filter returns copies of the tickets matching f, in stored order.
func (c *Collection) Filter(f TicketFilter) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(c.Tickets))
	for i := range c.Tickets {
		t := &c.Tickets[i]
		if f.CustomerEmail != "" && !strings.EqualFold(t.CustomerEmail, f.CustomerEmail) {
			continue
		}
		if f.TicketID != "" && t.TicketID != f.TicketID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if f.Assignee != "" && t.Assignee != f.Assignee {
			continue
		}
		out = append(out, t.Clone())
	}
	return out
}

func encodeTickets(tickets []domain.Ticket) ([]byte, error) {
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	payload, err := json.Marshal(tickets)
	if err != nil {
		return nil, fmt.Errorf("encode tickets: %w", err)
	}
	return payload, nil
}

func decodeTickets(payload []byte) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if len(payload) == 0 {
		return tickets, nil
	}
	if err := json.Unmarshal(payload, &tickets); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	return tickets, nil
}
