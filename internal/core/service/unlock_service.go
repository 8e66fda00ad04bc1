package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/inquotus/marketplace-api/internal/core/domain"
	"github.com/inquotus/marketplace-api/internal/core/ports"
)

// QuoteCache abstracts the short-lived price quote cache (Redis). Entries
// are keyed by (listing, elapsed days) so a cached amount from one day can
// never be served across a day boundary, where the price steps down.
type QuoteCache interface {
	Get(ctx context.Context, listingID string, elapsedDays int64) (decimal.Decimal, bool, error)
	Set(ctx context.Context, listingID string, elapsedDays int64, amount decimal.Decimal) error
}

type unlockService struct {
	listingRepo  ports.ListingRepository
	unlockRepo   ports.UnlockRepository
	identityRepo ports.IdentityRepository
	quotes       QuoteCache
	notifier     ports.Notifier
	log          zerolog.Logger
}

// NewUnlockService returns an UnlockService implementation.
func NewUnlockService(
	listingRepo ports.ListingRepository,
	unlockRepo ports.UnlockRepository,
	identityRepo ports.IdentityRepository,
	quotes QuoteCache,
	notifier ports.Notifier,
	log zerolog.Logger,
) ports.UnlockService {
	return &unlockService{
		listingRepo:  listingRepo,
		unlockRepo:   unlockRepo,
		identityRepo: identityRepo,
		quotes:       quotes,
		notifier:     notifier,
		log:          log,
	}
}

// Unlock charges the identity for the listing's contact details exactly
// once. Repeated calls for the same pair replay the original ledger row
// and never double-charge; concurrent duplicates race safely to one row
// on the storage-level unique index.
func (s *unlockService) Unlock(ctx context.Context, listingID, identityID string) (*ports.UnlockResult, error) {
	// 1. Fetch the listing.
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("unlock: %w", err)
	}

	// 2. Visibility gate, before any pricing. The expiry flip is persisted
	// opportunistically; the write is idempotent.
	now := time.Now().UTC()
	if !listing.Visible {
		return nil, domain.ErrListingExpired
	}
	if listing.ExpireIfStale(now) {
		if err := s.listingRepo.SetVisible(ctx, listing.ID, false); err != nil {
			s.log.Warn().Err(err).Str("listing_id", listing.ID).Msg("failed to persist listing expiry")
		}
		return nil, domain.ErrListingExpired
	}

	// 3. Replay an existing unlock as success.
	existing, err := s.unlockRepo.Find(ctx, listingID, identityID)
	if err == nil {
		s.log.Info().
			Str("listing_id", listingID).
			Str("identity_id", identityID).
			Str("amount", existing.AmountCharged.String()).
			Msg("unlock replayed")
		return unlockResult(existing, true), nil
	}
	if !errors.Is(err, domain.ErrUnlockNotFound) {
		return nil, fmt.Errorf("unlock: %w", err)
	}

	// 4. Price the unlock.
	amount := listing.UnlockPrice(now)

	// 5. Append the ledger row. A loser of the insert race gets the
	// winner's row back and takes the replay path.
	row, inserted, err := s.unlockRepo.InsertIfAbsent(ctx, &domain.Unlock{
		ListingID:     listingID,
		IdentityID:    identityID,
		AmountCharged: amount,
		UnlockedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("unlock: %w", err)
	}
	if !inserted {
		return unlockResult(row, true), nil
	}

	s.log.Info().
		Str("listing_id", listingID).
		Str("identity_id", identityID).
		Str("amount", row.AmountCharged.String()).
		Msg("contact unlocked")

	// Owner notification is fire-and-forget; delivery failures never roll
	// back the unlock.
	s.notifier.ListingUnlocked(listingID, identityID)

	return unlockResult(row, false), nil
}

func unlockResult(u *domain.Unlock, replayed bool) *ports.UnlockResult {
	return &ports.UnlockResult{
		ListingID:       u.ListingID,
		AmountCharged:   u.AmountCharged,
		UnlockedAt:      u.UnlockedAt,
		AlreadyUnlocked: replayed,
	}
}

// Quote previews the current unlock price without touching the ledger.
// Visibility is checked first; pricing is undefined for expired listings.
func (s *unlockService) Quote(ctx context.Context, listingID string) (*ports.QuoteResult, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}

	now := time.Now().UTC()
	if !listing.Visible {
		return nil, domain.ErrListingExpired
	}
	if listing.ExpireIfStale(now) {
		if err := s.listingRepo.SetVisible(ctx, listing.ID, false); err != nil {
			s.log.Warn().Err(err).Str("listing_id", listing.ID).Msg("failed to persist listing expiry")
		}
		return nil, domain.ErrListingExpired
	}

	elapsed := listing.ElapsedDays(now)

	if amount, ok, err := s.quotes.Get(ctx, listingID, elapsed); err != nil {
		s.log.Warn().Err(err).Str("listing_id", listingID).Msg("quote cache read failed")
	} else if ok {
		return &ports.QuoteResult{
			ListingID:   listingID,
			Amount:      amount,
			ElapsedDays: elapsed,
			Policy:      listing.PricingPolicy,
		}, nil
	}

	amount := listing.UnlockPrice(now)
	if err := s.quotes.Set(ctx, listingID, elapsed, amount); err != nil {
		s.log.Warn().Err(err).Str("listing_id", listingID).Msg("quote cache write failed")
	}

	return &ports.QuoteResult{
		ListingID:   listingID,
		Amount:      amount,
		ElapsedDays: elapsed,
		Policy:      listing.PricingPolicy,
	}, nil
}

// ContactDetails reveals the owner's contacts only to an identity that
// already holds an unlock for the listing.
func (s *unlockService) ContactDetails(ctx context.Context, listingID, identityID string) (*domain.ContactDetails, error) {
	if _, err := s.unlockRepo.Find(ctx, listingID, identityID); err != nil {
		if errors.Is(err, domain.ErrUnlockNotFound) {
			return nil, domain.ErrUnlockRequired
		}
		return nil, fmt.Errorf("contact details: %w", err)
	}

	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("contact details: %w", err)
	}

	contact := listing.Contact
	return &contact, nil
}

// History lists the identity's own unlocks, newest first, joined with a
// summary of each listing.
func (s *unlockService) History(ctx context.Context, identityID string) ([]ports.UnlockHistoryItem, error) {
	unlocks, err := s.unlockRepo.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}

	items := make([]ports.UnlockHistoryItem, 0, len(unlocks))
	listings := make(map[string]*domain.Listing)
	for _, u := range unlocks {
		l, ok := listings[u.ListingID]
		if !ok {
			l, err = s.listingRepo.FindByID(ctx, u.ListingID)
			if err != nil {
				if errors.Is(err, domain.ErrListingNotFound) {
					continue
				}
				return nil, err
			}
			listings[u.ListingID] = l
		}
		items = append(items, ports.UnlockHistoryItem{
			ListingID:     u.ListingID,
			Category:      l.Category,
			Region:        l.Region,
			Province:      l.Province,
			Locality:      l.Locality,
			AmountCharged: u.AmountCharged,
			UnlockedAt:    u.UnlockedAt,
		})
	}
	return items, nil
}

// Transactions is the admin ledger view across all identities.
func (s *unlockService) Transactions(ctx context.Context) ([]ports.TransactionRecord, error) {
	unlocks, err := s.unlockRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]ports.TransactionRecord, 0, len(unlocks))
	listings := make(map[string]*domain.Listing)
	identities := make(map[string]*domain.Identity)
	for _, u := range unlocks {
		rec := ports.TransactionRecord{
			UnlockID:      u.ID,
			ListingID:     u.ListingID,
			IdentityID:    u.IdentityID,
			AmountCharged: u.AmountCharged,
			UnlockedAt:    u.UnlockedAt,
		}

		l, ok := listings[u.ListingID]
		if !ok {
			if l, err = s.listingRepo.FindByID(ctx, u.ListingID); err != nil && !errors.Is(err, domain.ErrListingNotFound) {
				return nil, err
			}
			listings[u.ListingID] = l
		}
		if l != nil {
			rec.Category = l.Category
			rec.Locality = l.Locality
		}

		id, ok := identities[u.IdentityID]
		if !ok {
			if id, err = s.identityRepo.FindByID(ctx, u.IdentityID); err != nil && !errors.Is(err, domain.ErrIdentityNotFound) {
				return nil, err
			}
			identities[u.IdentityID] = id
		}
		if id != nil {
			rec.IdentityEmail = id.Email
		}

		records = append(records, rec)
	}
	return records, nil
}
