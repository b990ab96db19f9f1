package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickets/internal/domain/pricing"
)

func TestCostExclVAT(t *testing.T) {
	tests := []struct {
		rate      pricing.Rate
		days      int
		wantPence int64
	}{
		{pricing.RateIndividual, 1, 3500},
		{pricing.RateIndividual, 3, 7500},
		{pricing.RateIndividual, 5, 11500},
		{pricing.RateCorporate, 1, 7000},
		{pricing.RateCorporate, 3, 15000},
		{pricing.RateCorporate, 5, 23000},
		{pricing.RateFree, 5, 0},
	}

	for _, tt := range tests {
		got, err := pricing.CostExclVAT(tt.rate, tt.days)
		require.NoError(t, err)
		assert.Equal(t, tt.wantPence, got, "%s/%d days", tt.rate, tt.days)
	}
}

func TestCostInclVATIsExactlyTwentyPercentMore(t *testing.T) {
	for _, rate := range pricing.Rates() {
		for days := 1; days <= pricing.MaxDays; days++ {
			exclVAT, err := pricing.CostExclVAT(rate, days)
			require.NoError(t, err)

			inclVAT, err := pricing.CostInclVAT(rate, days)
			require.NoError(t, err)

			assert.Equal(t, exclVAT*120, inclVAT*100, "%s/%d days", rate, days)
		}
	}
}

func TestCostGrowsWithDays(t *testing.T) {
	for _, rate := range pricing.Rates() {
		prev := int64(-1)
		for days := 1; days <= pricing.MaxDays; days++ {
			cost, err := pricing.CostExclVAT(rate, days)
			require.NoError(t, err)
			assert.Greater(t, cost, prev)
			prev = cost
		}
	}
}

func TestUnknownRate(t *testing.T) {
	_, err := pricing.CostExclVAT("platinum", 2)
	assert.ErrorIs(t, err, pricing.ErrUnknownRate)

	_, err = pricing.CostInclVAT("platinum", 2)
	assert.ErrorIs(t, err, pricing.ErrUnknownRate)
}

func TestValidateTable(t *testing.T) {
	require.NoError(t, pricing.ValidateTable())
}

func TestRateValid(t *testing.T) {
	assert.True(t, pricing.RateIndividual.Valid())
	assert.True(t, pricing.RateCorporate.Valid())
	assert.True(t, pricing.RateFree.Valid())
	assert.False(t, pricing.Rate("platinum").Valid())
}
