package domain

import "math"

// DebtTolerance absorbs floating point noise when comparing money amounts.
const DebtTolerance = 0.01

// ResolveDiscount resolves a discount against a list price. Percentage
// discounts are relative to price; anything else is taken as an absolute
// amount.
func ResolveDiscount(price float64, kind DiscountType, value float64) float64 {
	if kind == DiscountPercentage {
		return price * (value / 100)
	}
	return value
}

// NetPrice returns max(0, price - discount).
func NetPrice(price float64, kind DiscountType, value float64) float64 {
	return math.Max(0, price-ResolveDiscount(price, kind, value))
}

// RemainingDebt returns max(0, final - paid).
func RemainingDebt(final, paid float64) float64 {
	return math.Max(0, final-paid)
}

// PaymentStatusFor derives the payment state of a sale from its amounts.
func PaymentStatusFor(final, paid float64) PaymentStatus {
	switch {
	case RemainingDebt(final, paid) <= DebtTolerance:
		return PaymentFull
	case paid == 0:
		return PaymentUnpaid
	default:
		return PaymentPartial
	}
}
