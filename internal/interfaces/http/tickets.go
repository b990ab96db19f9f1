package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tickets/internal/domain/ident"
	"tickets/internal/domain/tickets"
)

type TicketResponse struct {
	TicketID string   `json:"ticket_id"`
	Rate     string   `json:"rate"`
	Days     []string `json:"days"`
	Pot      string   `json:"pot,omitempty"`
	Claimed  bool     `json:"claimed"`
	Valid    bool     `json:"valid"`
}

func toTicketResponse(ticket tickets.Ticket, valid bool) (TicketResponse, error) {
	extID, err := ticket.ExternalID()
	if err != nil {
		return TicketResponse{}, err
	}

	days := make([]string, 0, len(ticket.Days))
	for _, day := range ticket.Days {
		days = append(days, string(day))
	}
	return TicketResponse{
		TicketID: extID,
		Rate:     string(ticket.Rate),
		Days:     days,
		Pot:      ticket.Pot,
		Claimed:  ticket.OwnerID != nil,
		Valid:    valid,
	}, nil
}

func (s *Server) GetTicketHandler(c echo.Context) error {
	ticketID, err := ident.Tickets.Backward(c.Param("ticket_id"))
	if err != nil {
		return mapError(err)
	}

	ticket, valid, err := s.tickets.GetTicketStatus(c.Request().Context(), ticketID)
	if err != nil {
		return mapError(err)
	}

	response, err := toTicketResponse(ticket, valid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response)
}

type UpdateTicketDaysRequest struct {
	Days []string `json:"days"`
}

func (s *Server) UpdateTicketDaysHandler(c echo.Context) error {
	ticketID, err := ident.Tickets.Backward(c.Param("ticket_id"))
	if err != nil {
		return mapError(err)
	}

	var request UpdateTicketDaysRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	if err := s.tickets.UpdateDays(c.Request().Context(), ticketID, request.Days); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type ReassignTicketRequest struct {
	Email string `json:"email"`
}

func (s *Server) ReassignTicketHandler(c echo.Context) error {
	ticketID, err := ident.Tickets.Backward(c.Param("ticket_id"))
	if err != nil {
		return mapError(err)
	}

	var request ReassignTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	if err := s.tickets.Reassign(c.Request().Context(), ticketID, request.Email); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type CreateFreeTicketRequest struct {
	Email string `json:"email"`
	Pot   string `json:"pot"`
}

type CreateFreeTicketResponse struct {
	TicketID string `json:"ticket_id"`
}

func (s *Server) CreateFreeTicketHandler(c echo.Context) error {
	var request CreateFreeTicketRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.Email == "" || request.Pot == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and pot are required")
	}

	ticketID, err := s.tickets.CreateFreeTicket(c.Request().Context(), request.Email, request.Pot)
	if err != nil {
		return mapError(err)
	}

	extID, err := ident.Tickets.Forward(ticketID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, CreateFreeTicketResponse{TicketID: extID})
}

type ClaimInvitationRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) ClaimInvitationHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request ClaimInvitationRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	user, err := s.findOrCreateUser(ctx, request.Name, request.Email)
	if err != nil {
		return mapError(err)
	}

	ticket, err := s.tickets.Claim(ctx, c.Param("token"), user.ID)
	if err != nil {
		return mapError(err)
	}

	ticket, valid, err := s.tickets.GetTicketStatus(ctx, ticket.ID)
	if err != nil {
		return mapError(err)
	}
	response, err := toTicketResponse(ticket, valid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response)
}
