package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUnlockRequired = errors.New("contact details require an unlock")
var ErrUnlockNotFound = errors.New("unlock not found")

// Unlock is one ledger entry: a paid, per-identity, per-listing reveal of
// the listing owner's contact details. At most one Unlock exists per
// (ListingID, IdentityID) pair, enforced by a storage-level unique index.
// Rows are append-only and never mutated.
type Unlock struct {
	ID            string          `json:"id"`
	ListingID     string          `json:"listing_id"`
	IdentityID    string          `json:"identity_id"`
	AmountCharged decimal.Decimal `json:"amount_charged"`
	UnlockedAt    time.Time       `json:"unlocked_at"`
}
