package service

import (
	"errors"
	"fmt"

	"pos-service/internal/models"
)

// Domain errors for loyalty and checkout rules
var (
	ErrInsufficientPoints   = errors.New("insufficient points")
	ErrInvalidInput         = errors.New("invalid input")
	ErrRedeemLimitExceeded  = errors.New("redeem count exceeds allowed maximum")
	ErrEmptyOrder           = errors.New("order has no items")
	ErrNoOpenSession        = errors.New("no open session")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidAdjustment    = errors.New("adjustment must be non-zero with a reason")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// AccrualLine is the slice of a cart line the accrual rule looks at
type AccrualLine struct {
	PointsPerItem *int64
	Quantity      int64
}

// CalculatePointsEarned sums per-line accrual: the product's own
// points_per_item when set, otherwise the configured default, times
// quantity. Callers record 0 when no member is attached.
func CalculatePointsEarned(lines []AccrualLine, cfg models.PointsConfig) int64 {
	var total int64
	for _, line := range lines {
		rate := cfg.DefaultPointsPerItem
		if line.PointsPerItem != nil {
			rate = *line.PointsPerItem
		}
		total += rate * line.Quantity
	}
	return total
}

// RedeemQuote describes how many redemption units a member may apply to a
// given cart.
type RedeemQuote struct {
	MaxByPoints    int64 `json:"max_by_points"`
	MaxByCartTotal int64 `json:"max_by_cart_total"`
	MaxRedeemCount int64 `json:"max_redeem_count"`
	PointsPerUnit  int64 `json:"points_per_unit"`
	ValuePerUnit   int64 `json:"value_per_unit"`
}

// QuoteRedemption computes both redemption ceilings: the member's balance
// and the cart subtotal (a discount may never exceed what the cart is
// worth). The effective ceiling is the smaller of the two.
func QuoteRedemption(memberPoints, cartSubtotal int64, cfg models.PointsConfig) RedeemQuote {
	quote := RedeemQuote{
		PointsPerUnit: cfg.PointsToRedeem,
		ValuePerUnit:  cfg.RedeemValue,
	}
	if cfg.PointsToRedeem > 0 {
		quote.MaxByPoints = memberPoints / cfg.PointsToRedeem
	}
	if cfg.RedeemValue > 0 {
		quote.MaxByCartTotal = cartSubtotal / cfg.RedeemValue
	}
	quote.MaxRedeemCount = quote.MaxByPoints
	if quote.MaxByCartTotal < quote.MaxRedeemCount {
		quote.MaxRedeemCount = quote.MaxByCartTotal
	}
	return quote
}

// ValidateRedeemCount rejects a redeem count above the effective ceiling.
// Over-limit requests used to be silently clamped by the UI; the server
// refuses them instead and lets the client re-quote.
func ValidateRedeemCount(redeemCount, memberPoints, cartSubtotal int64, cfg models.PointsConfig) error {
	if redeemCount < 0 {
		return fmt.Errorf("%w: negative count", ErrRedeemLimitExceeded)
	}
	quote := QuoteRedemption(memberPoints, cartSubtotal, cfg)
	if redeemCount > quote.MaxRedeemCount {
		return fmt.Errorf("%w: requested %d, max %d",
			ErrRedeemLimitExceeded, redeemCount, quote.MaxRedeemCount)
	}
	return nil
}

// PointsToUse converts redemption units into points consumed
func PointsToUse(redeemCount int64, cfg models.PointsConfig) int64 {
	return redeemCount * cfg.PointsToRedeem
}

// DiscountAmount converts redemption units into currency discount
func DiscountAmount(redeemCount int64, cfg models.PointsConfig) int64 {
	return redeemCount * cfg.RedeemValue
}

// FinalTotal applies a discount to a subtotal, floored at zero
func FinalTotal(subtotal, discount int64) int64 {
	total := subtotal - discount
	if total < 0 {
		return 0
	}
	return total
}

// ClampPoints floors a balance adjustment at zero
func ClampPoints(balance int64) int64 {
	if balance < 0 {
		return 0
	}
	return balance
}

// SettlementEntries builds the 0-2 ledger rows for a completed order: an
// earn row when points were earned, a redeem row (stored negative) when
// points were spent. Both carry the triggering order id.
func SettlementEntries(memberID, orderID, pointsEarned, pointsRedeemed int64) []models.PointHistory {
	entries := make([]models.PointHistory, 0, 2)
	oid := orderID
	if pointsEarned > 0 {
		entries = append(entries, models.PointHistory{
			MemberID:    memberID,
			OrderID:     &oid,
			Type:        models.PointTypeEarn,
			Points:      pointsEarned,
			Description: "Points earned from order",
		})
	}
	if pointsRedeemed > 0 {
		entries = append(entries, models.PointHistory{
			MemberID:    memberID,
			OrderID:     &oid,
			Type:        models.PointTypeRedeem,
			Points:      -pointsRedeemed,
			Description: "Points redeemed for discount",
		})
	}
	return entries
}
