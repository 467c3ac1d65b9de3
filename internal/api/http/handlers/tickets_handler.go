package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-sla-service/internal/api/dto"
	"github.com/spec-kit/ticket-sla-service/internal/auth"
	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/lifecycle"
	"github.com/spec-kit/ticket-sla-service/internal/service"
	apperrors "github.com/spec-kit/ticket-sla-service/pkg/util/errorutil"
)

// TicketsHandler manages the public ticket endpoints. A staff bearer token
// upgrades the caller to privileged.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), lifecycle.CreateInput{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerCompany: req.CustomerCompany,
		Subject:         req.Subject,
		Description:     req.Description,
		Category:        req.Category,
		Priority:        req.Priority,
		Product:         req.Product,
		Version:         req.Version,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	return listTickets(c, h.service, auth.IsStaff(c))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	view, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEvaluatedTicketResponse(view.Ticket, view.SLA)})
}

// ApplyAction POST /tickets/:id/actions.
func (h *TicketsHandler) ApplyAction(c *fiber.Ctx) error {
	var req dto.TicketActionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	kind, ok := lifecycle.ParseActionKind(req.Action)
	if !ok {
		return apperrors.NewValidationError("unknown action", map[string]any{"action": req.Action})
	}

	var actor domain.Actor
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.IsStaff {
		actor = domain.Actor{Name: principal.Name, IsStaff: true}
	}
	if kind != lifecycle.ActionComment && !actor.IsStaff {
		return apperrors.NewForbidden("action " + string(kind) + " requires staff")
	}

	ticket, err := h.service.ApplyAction(c.UserContext(), c.Params("id"), lifecycle.Action{
		Kind:     kind,
		Actor:    actor,
		Message:  req.Message,
		Status:   req.Status,
		Assignee: req.Assignee,
		Priority: req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(*ticket)})
}

func listTickets(c *fiber.Ctx, svc *service.TicketService, privileged bool) error {
	result, err := svc.ListTickets(c.UserContext(), parseTicketQuery(c), privileged)
	if err != nil {
		return err
	}

	resp := dto.TicketListResponse{Tickets: make([]dto.TicketResponse, 0, len(result.Tickets))}
	for _, v := range result.Tickets {
		resp.Tickets = append(resp.Tickets, dto.NewEvaluatedTicketResponse(v.Ticket, v.SLA))
	}
	if result.KPI != nil {
		kpi := dto.NewKPIResponse(*result.KPI)
		resp.KPI = &kpi
	}
	return c.JSON(fiber.Map{"data": resp})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketQuery {
	return service.TicketQuery{
		CustomerEmail: c.Query("customer_email"),
		TicketID:      c.Query("ticket_id"),
		Status:        c.Query("status"),
		Priority:      c.Query("priority"),
		Assignee:      c.Query("assignee"),
	}
}
