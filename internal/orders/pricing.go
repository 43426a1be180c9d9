package orders

import "github.com/shopspring/decimal"

// Split is the three-way division of one line's money.
type Split struct {
	SubtotalCents   int64
	RestaurantCents int64
	PlatformCents   int64
}

// SplitLine prices qty units at unitPriceCents and carves the platform fee out
// of the subtotal. The platform share is rounded half away from zero to whole
// minor units; the restaurant gets the exact remainder, so the two always add
// back up to the subtotal.
func SplitLine(unitPriceCents int64, qty int, feeRate decimal.Decimal) Split {
	sub := unitPriceCents * int64(qty)
	platform := PlatformFee(sub, feeRate)
	return Split{SubtotalCents: sub, RestaurantCents: sub - platform, PlatformCents: platform}
}

// PlatformFee is subtotalCents x feeRate rounded to whole minor units.
func PlatformFee(subtotalCents int64, feeRate decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotalCents).Mul(feeRate).Round(0).IntPart()
}

// WholeUnits converts minor units to the integer amount the payment processor
// expects, truncating any fraction.
func WholeUnits(cents int64) int64 {
	return decimal.New(cents, -2).Truncate(0).IntPart()
}
