package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"github.com/inquotus/marketplace-api/internal/core/domain"
	"github.com/inquotus/marketplace-api/internal/core/ports"
)

type ListingService struct {
	repo     ports.ListingRepository
	notifier ports.Notifier
	logger   zerolog.Logger
}

func NewListingService(repo ports.ListingRepository, notifier ports.Notifier, logger zerolog.Logger) *ListingService {
	return &ListingService{repo: repo, notifier: notifier, logger: logger}
}

// Create publishes a new job listing and announces it to approved
// unlocker identities. The announcement is queued fire-and-forget.
func (s *ListingService) Create(ctx context.Context, input ports.CreateListingInput) (*domain.Listing, error) {
	basePrice := input.BasePrice
	if basePrice.IsZero() {
		basePrice = domain.DefaultPrice
	}

	policy := domain.PolicyDecay
	if input.Policy != "" {
		policy = domain.PricingPolicy(input.Policy)
	}

	uniqueSlug, err := s.uniqueSlug(ctx, input.Category+" "+input.Locality)
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	listing := &domain.Listing{
		OwnerID:     input.OwnerID,
		Slug:        uniqueSlug,
		Category:    input.Category,
		Region:      input.Region,
		Province:    input.Province,
		Locality:    input.Locality,
		Description: input.Description,
		MediaURL:    input.MediaURL,
		Contact: domain.ContactDetails{
			Name:  input.ContactName,
			Email: input.ContactEmail,
			Phone: input.ContactPhone,
		},
		BasePrice:     basePrice,
		PricingPolicy: policy,
		Visible:       true,
		CreatedAt:     time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create listing")
		return nil, err
	}

	s.logger.Info().
		Str("listing_id", created.ID).
		Str("owner_id", created.OwnerID).
		Str("category", created.Category).
		Msg("listing created")

	s.notifier.ListingPublished(created.ID)

	return created, nil
}

// Browse returns the publicly visible listings. Listings past the
// visibility window are expired lazily: the flip is persisted best-effort
// and the listing is excluded from the result.
func (s *ListingService) Browse(ctx context.Context, input ports.BrowseListingsInput) ([]*domain.Listing, error) {
	listings, err := s.repo.List(ctx, ports.ListingFilter{
		Category:    input.Category,
		Region:      input.Region,
		VisibleOnly: true,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	visible := make([]*domain.Listing, 0, len(listings))
	for _, l := range listings {
		if l.ExpireIfStale(now) {
			if err := s.repo.SetVisible(ctx, l.ID, false); err != nil {
				s.logger.Warn().Err(err).Str("listing_id", l.ID).Msg("failed to persist listing expiry")
			}
			continue
		}
		if l.IsVisible(now) {
			visible = append(visible, l)
		}
	}
	return visible, nil
}

func (s *ListingService) Mine(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	return s.repo.List(ctx, ports.ListingFilter{OwnerID: ownerID})
}

// Hide removes a listing from public view. The transition never reverts.
func (s *ListingService) Hide(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.SetVisible(ctx, id, false)
}

// uniqueSlug derives a URL slug from the given text, appending a numeric
// suffix until it does not collide with an existing listing.
func (s *ListingService) uniqueSlug(ctx context.Context, text string) (string, error) {
	base := slug.Make(text)
	candidate := base
	for i := 2; ; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
