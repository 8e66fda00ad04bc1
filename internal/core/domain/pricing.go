package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingPolicy names the rule used to price a contact unlock.
type PricingPolicy string

const (
	// PolicyDecay is the canonical policy: 10% discount per whole elapsed
	// day, saturating at 90%, so the charge never drops below 10% of the
	// base price.
	PolicyDecay PricingPolicy = "decay"
	// PolicyFlat charges a fixed net amount plus 22% tax regardless of
	// listing age. Kept as a separate policy; never blended with decay.
	PolicyFlat PricingPolicy = "flat"
)

var (
	decayStep    = decimal.NewFromFloat(0.1)
	maxDiscount  = decimal.NewFromFloat(0.9)
	flatNet      = decimal.NewFromFloat(16.5)
	flatTaxRate  = decimal.NewFromFloat(0.22)
	decimalOne   = decimal.NewFromInt(1)
	DefaultPrice = decimal.NewFromInt(20)
)

// UnlockPrice computes the amount charged to unlock the listing's contact
// details at the given instant. The caller must have already established
// that the listing is visible; pricing is undefined for expired listings.
// Amounts are rounded half-up to 2 decimal places.
func (l *Listing) UnlockPrice(now time.Time) decimal.Decimal {
	if l.PricingPolicy == PolicyFlat {
		return flatNet.Mul(decimalOne.Add(flatTaxRate)).Round(2)
	}

	discount := decayStep.Mul(decimal.NewFromInt(l.ElapsedDays(now)))
	if discount.GreaterThan(maxDiscount) {
		discount = maxDiscount
	}
	return l.BasePrice.Mul(decimalOne.Sub(discount)).Round(2)
}
