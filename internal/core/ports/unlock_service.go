package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inquotus/marketplace-api/internal/core/domain"
)

// UnlockResult is returned by a successful (or replayed) unlock.
type UnlockResult struct {
	ListingID     string
	AmountCharged decimal.Decimal
	UnlockedAt    time.Time
	// AlreadyUnlocked is true when the ledger row existed before this call.
	AlreadyUnlocked bool
}

// QuoteResult is the price preview for a still-visible listing.
type QuoteResult struct {
	ListingID   string
	Amount      decimal.Decimal
	ElapsedDays int64
	Policy      domain.PricingPolicy
}

// UnlockHistoryItem is one ledger row joined with its listing summary.
type UnlockHistoryItem struct {
	ListingID     string
	Category      string
	Region        string
	Province      string
	Locality      string
	AmountCharged decimal.Decimal
	UnlockedAt    time.Time
}

// TransactionRecord is the admin view of one ledger row.
type TransactionRecord struct {
	UnlockID      string
	ListingID     string
	Category      string
	Locality      string
	IdentityID    string
	IdentityEmail string
	AmountCharged decimal.Decimal
	UnlockedAt    time.Time
}

// UnlockService owns the contact-unlock transactional core: pricing,
// visibility, and the idempotent ledger write.
type UnlockService interface {
	Unlock(ctx context.Context, listingID, identityID string) (*UnlockResult, error)
	Quote(ctx context.Context, listingID string) (*QuoteResult, error)
	// ContactDetails reveals the owner contacts only when an unlock row
	// exists for the pair; otherwise domain.ErrUnlockRequired.
	ContactDetails(ctx context.Context, listingID, identityID string) (*domain.ContactDetails, error)
	History(ctx context.Context, identityID string) ([]UnlockHistoryItem, error)
	Transactions(ctx context.Context) ([]TransactionRecord, error)
}
