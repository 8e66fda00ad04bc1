package ports

import (
	"context"

	"github.com/inquotus/marketplace-api/internal/core/domain"
)

// ListingFilter carries query parameters for listing lookups.
type ListingFilter struct {
	OwnerID     string // non-empty = scoped to one committente
	Category    string // optional
	Region      string // optional
	VisibleOnly bool   // restrict to listings still flagged visible
}

// ListingRepository defines persistence operations for job listings.
type ListingRepository interface {
	Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	List(ctx context.Context, filter ListingFilter) ([]*domain.Listing, error)
	// SetVisible persists the visibility flag. Setting false twice is safe;
	// the expiry transition is idempotent so no locking is required.
	SetVisible(ctx context.Context, id string, visible bool) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}
