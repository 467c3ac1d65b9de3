package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sla-service/internal/api/dto"
	"github.com/spec-kit/ticket-sla-service/internal/service"
)

// StaffTicketsHandler exposes staff-only ticket views. Routes sit behind auth.RequireStaff.
type StaffTicketsHandler struct {
	service *service.TicketService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService) *StaffTicketsHandler {
	return &StaffTicketsHandler{service: ticketService}
}

// ListStaffTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListStaffTickets(c *fiber.Ctx) error {
	return listTickets(c, h.service, true)
}

// KPI GET /staff/kpi.
func (h *StaffTicketsHandler) KPI(c *fiber.Ctx) error {
	kpi, err := h.service.KPI(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewKPIResponse(kpi)})
}
