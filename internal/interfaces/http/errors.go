package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"tickets/internal/application/services"
	"tickets/internal/domain/billing"
	"tickets/internal/domain/children"
	"tickets/internal/domain/ident"
	"tickets/internal/domain/pricing"
	"tickets/internal/domain/tickets"
	"tickets/internal/domain/users"
)

var notFoundErrors = []error{
	ident.ErrOutOfRange,
	billing.ErrNotFound,
	tickets.ErrNotFound,
	users.ErrNotFound,
	children.ErrNotFound,
}

var conflictErrors = []error{
	billing.ErrInvoiceAlreadyPaid,
	billing.ErrInvoiceHasPayments,
	billing.ErrItemAlreadyInvoiced,
	billing.ErrInvalidStatusTransition,
	tickets.ErrAlreadyClaimed,
	tickets.ErrTicketLocked,
	children.ErrSoldOut,
}

var badRequestErrors = []error{
	tickets.ErrUnknownDay,
	tickets.ErrNoDaysSelected,
	billing.ErrInvalidCompanyDetails,
	billing.ErrInvoiceNotPaid,
	pricing.ErrUnknownRate,
	services.ErrUnpayableRate,
	services.ErrEmptyOrder,
	children.ErrNoAttendees,
	children.ErrInvalidAttendee,
	children.ErrMissingContact,
}

// mapError translates domain errors onto HTTP statuses. Anything unmatched
// stays a 500 and gets logged by the request middleware.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return err
}
