package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/inquotus/marketplace-api/internal/core/domain"
)

// CreateListingInput carries everything needed to publish a job listing.
type CreateListingInput struct {
	OwnerID      string
	Category     string
	Region       string
	Province     string
	Locality     string
	Description  string
	MediaURL     string
	ContactName  string
	ContactEmail string
	ContactPhone string
	// BasePrice is optional; zero means the marketplace default.
	BasePrice decimal.Decimal
	// Policy is optional; empty means the canonical decay policy.
	Policy string
}

// BrowseListingsInput carries the public browse filters.
type BrowseListingsInput struct {
	Category string
	Region   string
}

// ListingService defines use-case operations for job listings.
type ListingService interface {
	Create(ctx context.Context, input CreateListingInput) (*domain.Listing, error)
	// Browse returns publicly visible listings, applying the lazy age-based
	// expiry rule before returning.
	Browse(ctx context.Context, input BrowseListingsInput) ([]*domain.Listing, error)
	Mine(ctx context.Context, ownerID string) ([]*domain.Listing, error)
	// Hide permanently removes a listing from public view (admin action).
	Hide(ctx context.Context, id string) error
}
