// Package pricing holds the ticket price table. Prices are stored in pence
// excluding VAT; the VAT-inclusive price must always come out as a whole
// number of pence, which ValidateTable enforces at startup.
package pricing

import (
	"errors"
	"fmt"
)

// Rate is the pricing tier of a ticket.
type Rate string

const (
	RateIndividual Rate = "individual"
	RateCorporate  Rate = "corporate"
	RateFree       Rate = "free"
)

// VATRatePercent is the single flat VAT rate applied to standard-rated rows.
const VATRatePercent = 20

// MaxDays is the number of conference days a ticket can cover.
const MaxDays = 5

var ErrUnknownRate = errors.New("unknown rate")

type ratePrices struct {
	ticketPence int64 // flat base price per ticket
	dayPence    int64 // price per selected day
}

// If these values change, also update the published rates table.
var pricesExclVAT = map[Rate]ratePrices{
	RateIndividual: {ticketPence: 1500, dayPence: 2000},
	RateCorporate:  {ticketPence: 3000, dayPence: 4000},
}

// Rates lists the purchasable rate classes in display order.
func Rates() []Rate {
	return []Rate{RateIndividual, RateCorporate}
}

// Valid reports whether r is a recognised rate class.
func (r Rate) Valid() bool {
	switch r {
	case RateIndividual, RateCorporate, RateFree:
		return true
	}
	return false
}

// CostExclVAT returns the VAT-exclusive price in pence of one ticket at the
// given rate covering numDays days. Free tickets cost nothing.
func CostExclVAT(rate Rate, numDays int) (int64, error) {
	if rate == RateFree {
		return 0, nil
	}
	prices, ok := pricesExclVAT[rate]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRate, rate)
	}
	return prices.ticketPence + prices.dayPence*int64(numDays), nil
}

// CostInclVAT returns the VAT-inclusive price in pence. The price table is
// validated at startup, so the result is always a whole number of pence.
func CostInclVAT(rate Rate, numDays int) (int64, error) {
	exclVAT, err := CostExclVAT(rate, numDays)
	if err != nil {
		return 0, err
	}
	inclVAT := exclVAT * (100 + VATRatePercent)
	if inclVAT%100 != 0 {
		return 0, fmt.Errorf("fractional VAT-inclusive price for rate %q, %d days", rate, numDays)
	}
	return inclVAT / 100, nil
}

// ValidateTable checks that every purchasable (rate, days) combination yields
// an exact VAT-inclusive pence amount. A fractional price is a configuration
// error and the service refuses to start.
func ValidateTable() error {
	for _, rate := range Rates() {
		for days := 1; days <= MaxDays; days++ {
			if _, err := CostInclVAT(rate, days); err != nil {
				return err
			}
		}
	}
	return nil
}
