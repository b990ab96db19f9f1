package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tickets/internal/domain/children"
)

type ChildAttendeeRequest struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"date_of_birth"` // YYYY-MM-DD
}

type CreateChildrenOrderRequest struct {
	Purchaser  PurchaserRequest       `json:"purchaser"`
	AdultName  string                 `json:"adult_name"`
	AdultEmail string                 `json:"adult_email"`
	AdultPhone string                 `json:"adult_phone"`
	Attendees  []ChildAttendeeRequest `json:"attendees"`
}

func (s *Server) CreateChildrenOrderHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request CreateChildrenOrderRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	attendees := make([]children.Attendee, 0, len(request.Attendees))
	for _, attendee := range request.Attendees {
		dob, err := time.Parse("2006-01-02", attendee.DateOfBirth)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date_of_birth is not a valid date")
		}
		attendees = append(attendees, children.Attendee{
			Name:        attendee.Name,
			DateOfBirth: dob,
		})
	}

	purchaser, err := s.findOrCreateUser(ctx, request.Purchaser.Name, request.Purchaser.Email)
	if err != nil {
		return mapError(err)
	}

	invoiceID, err := s.children.CreateOrder(ctx, purchaser.ID, children.OrderDetails{
		AdultName:  request.AdultName,
		AdultEmail: request.AdultEmail,
		AdultPhone: request.AdultPhone,
	}, attendees)
	if err != nil {
		return mapError(err)
	}

	extID, err := invoiceExternalID(invoiceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, CreateOrderResponse{OrderID: extID})
}
