package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// VisibilityWindowDays is how many whole days a listing stays publicly
// visible after creation. Elapsed days are computed by floor division of
// elapsed milliseconds, so day 9 is the last visible day.
const VisibilityWindowDays = 10

var ErrListingNotFound = errors.New("listing not found")
var ErrListingExpired = errors.New("listing no longer available")

// ContactDetails are the owner's contact fields revealed by an unlock.
type ContactDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Listing is a posted job request with a decaying visibility window and
// unlock price.
type Listing struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	Slug          string          `json:"slug"`
	Category      string          `json:"category"`
	Region        string          `json:"region"`
	Province      string          `json:"province"`
	Locality      string          `json:"locality"`
	Description   string          `json:"description"`
	MediaURL      string          `json:"media_url,omitempty"`
	Contact       ContactDetails  `json:"-"`
	BasePrice     decimal.Decimal `json:"base_price"`
	PricingPolicy PricingPolicy   `json:"pricing_policy"`
	Visible       bool            `json:"visible"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ElapsedDays returns the number of whole days between the listing's
// creation and now, floored. Negative elapsed time clamps to zero.
func (l *Listing) ElapsedDays(now time.Time) int64 {
	ms := now.Sub(l.CreatedAt).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms / (24 * time.Hour).Milliseconds()
}

// IsVisible reports whether the listing can still be browsed and unlocked
// at the given instant. Pure in (listing, now).
func (l *Listing) IsVisible(now time.Time) bool {
	return l.Visible && l.ElapsedDays(now) < VisibilityWindowDays
}

// ExpireIfStale flips Visible to false once the window has passed and
// reports whether the flip happened on this call. The transition is
// monotone: a listing that went invisible never comes back.
func (l *Listing) ExpireIfStale(now time.Time) bool {
	if !l.Visible {
		return false
	}
	if l.ElapsedDays(now) < VisibilityWindowDays {
		return false
	}
	l.Visible = false
	return true
}
