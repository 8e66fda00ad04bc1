package ports

import (
	"context"

	"github.com/inquotus/marketplace-api/internal/core/domain"
)

// UnlockRepository owns the append-only unlock ledger.
type UnlockRepository interface {
	// InsertIfAbsent atomically appends a ledger row. The unique index on
	// (listing_id, identity_id) is the authoritative duplicate guard: when
	// a row for the pair already exists — including one written by a
	// concurrent request between a Find and this insert — the stored row
	// is returned with inserted=false and no error.
	InsertIfAbsent(ctx context.Context, u *domain.Unlock) (row *domain.Unlock, inserted bool, err error)

	// Find returns the ledger row for the pair, or domain.ErrUnlockNotFound.
	Find(ctx context.Context, listingID, identityID string) (*domain.Unlock, error)

	ListByIdentity(ctx context.Context, identityID string) ([]*domain.Unlock, error)
	ListAll(ctx context.Context) ([]*domain.Unlock, error)
}
