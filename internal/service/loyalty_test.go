package service

import (
	"testing"

	"pos-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() models.PointsConfig {
	return models.PointsConfig{
		PointsToRedeem:       100,
		RedeemValue:          40,
		DefaultPointsPerItem: 1,
	}
}

func TestCalculatePointsEarned(t *testing.T) {
	cfg := testConfig()
	override := int64(5)

	lines := []AccrualLine{
		{PointsPerItem: nil, Quantity: 3},       // 3 * default(1)
		{PointsPerItem: &override, Quantity: 2}, // 2 * 5
	}

	earned := CalculatePointsEarned(lines, cfg)
	assert.Equal(t, int64(13), earned)
}

func TestCalculatePointsEarnedZeroOverride(t *testing.T) {
	cfg := testConfig()
	zero := int64(0)

	// An explicit zero rate means the product accrues nothing; it must
	// not fall back to the default.
	lines := []AccrualLine{{PointsPerItem: &zero, Quantity: 10}}
	assert.Equal(t, int64(0), CalculatePointsEarned(lines, cfg))
}

func TestQuoteRedemptionBothCeilings(t *testing.T) {
	cfg := testConfig()

	// 250 points allows 2 units; a 90 subtotal also allows 2 units.
	quote := QuoteRedemption(250, 90, cfg)
	assert.Equal(t, int64(2), quote.MaxByPoints)
	assert.Equal(t, int64(2), quote.MaxByCartTotal)
	assert.Equal(t, int64(2), quote.MaxRedeemCount)
}

func TestQuoteRedemptionCartCapsDiscount(t *testing.T) {
	cfg := testConfig()

	// Plenty of points, but a 50 cart only covers 1 unit of 40.
	quote := QuoteRedemption(1000, 50, cfg)
	assert.Equal(t, int64(10), quote.MaxByPoints)
	assert.Equal(t, int64(1), quote.MaxByCartTotal)
	assert.Equal(t, int64(1), quote.MaxRedeemCount)
}

func TestQuoteRedemptionNoPoints(t *testing.T) {
	quote := QuoteRedemption(0, 10000, testConfig())
	assert.Equal(t, int64(0), quote.MaxRedeemCount)
}

func TestValidateRedeemCount(t *testing.T) {
	cfg := testConfig()

	assert.NoError(t, ValidateRedeemCount(0, 250, 90, cfg))
	assert.NoError(t, ValidateRedeemCount(2, 250, 90, cfg))

	err := ValidateRedeemCount(3, 250, 90, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRedeemLimitExceeded)

	err = ValidateRedeemCount(-1, 250, 90, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRedeemLimitExceeded)
}

func TestRedemptionConversion(t *testing.T) {
	cfg := testConfig()

	assert.Equal(t, int64(200), PointsToUse(2, cfg))
	assert.Equal(t, int64(80), DiscountAmount(2, cfg))
}

func TestFinalTotalFloorsAtZero(t *testing.T) {
	assert.Equal(t, int64(20), FinalTotal(100, 80))
	assert.Equal(t, int64(0), FinalTotal(50, 80))
	assert.Equal(t, int64(0), FinalTotal(0, 0))
}

func TestClampPoints(t *testing.T) {
	assert.Equal(t, int64(0), ClampPoints(-30))
	assert.Equal(t, int64(0), ClampPoints(0))
	assert.Equal(t, int64(7), ClampPoints(7))
}

func TestSettlementEntries(t *testing.T) {
	entries := SettlementEntries(1, 42, 10, 100)
	require.Len(t, entries, 2)

	earn := entries[0]
	assert.Equal(t, models.PointTypeEarn, earn.Type)
	assert.Equal(t, int64(10), earn.Points)
	require.NotNil(t, earn.OrderID)
	assert.Equal(t, int64(42), *earn.OrderID)

	redeem := entries[1]
	assert.Equal(t, models.PointTypeRedeem, redeem.Type)
	assert.Equal(t, int64(-100), redeem.Points)
}

func TestSettlementEntriesEarnOnly(t *testing.T) {
	entries := SettlementEntries(1, 42, 10, 0)
	require.Len(t, entries, 1)
	assert.Equal(t, models.PointTypeEarn, entries[0].Type)
}

func TestSettlementEntriesNothingToRecord(t *testing.T) {
	assert.Empty(t, SettlementEntries(1, 42, 0, 0))
}
