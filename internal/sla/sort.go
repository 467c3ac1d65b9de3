package sla

import (
	"sort"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

var priorityRank = map[domain.TicketPriority]int{
	domain.TicketPriorityCritical: 0,
	domain.TicketPriorityHigh:     1,
	domain.TicketPriorityMedium:   2,
	domain.TicketPriorityLow:      3,
}

// PriorityRank orders priorities for listings. Unknown priorities sort last.
func PriorityRank(p domain.TicketPriority) int {
	if rank, ok := priorityRank[p]; ok {
		return rank
	}
	return len(priorityRank)
}

// SortTickets orders tickets by priority rank, newest first within a rank.
func SortTickets(tickets []domain.Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		ri, rj := PriorityRank(tickets[i].Priority), PriorityRank(tickets[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
}
