package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/inquotus/marketplace-api/internal/core/domain"
	"github.com/inquotus/marketplace-api/internal/core/ports"
)

type memListingRepo struct {
	mu       sync.Mutex
	listings map[string]*domain.Listing
}

func newMemListingRepo(listings ...*domain.Listing) *memListingRepo {
	r := &memListingRepo{listings: make(map[string]*domain.Listing)}
	for _, l := range listings {
		clone := *l
		r.listings[l.ID] = &clone
	}
	return r
}

func (r *memListingRepo) Create(_ context.Context, l *domain.Listing) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *l
	if clone.ID == "" {
		clone.ID = "listing_" + clone.Slug
	}
	r.listings[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *memListingRepo) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	clone := *l
	return &clone, nil
}

func (r *memListingRepo) List(_ context.Context, filter ports.ListingFilter) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.listings {
		if filter.OwnerID != "" && l.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		if filter.Region != "" && l.Region != filter.Region {
			continue
		}
		if filter.VisibleOnly && !l.Visible {
			continue
		}
		clone := *l
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memListingRepo) SetVisible(_ context.Context, id string, visible bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	l.Visible = visible
	return nil
}

func (r *memListingRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.listings {
		if l.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// memUnlockRepo mimics the storage-level unique index on
// (listing_id, identity_id): inserts are atomic and duplicates return the
// stored row.
type memUnlockRepo struct {
	mu   sync.Mutex
	rows map[[2]string]*domain.Unlock
}

func newMemUnlockRepo() *memUnlockRepo {
	return &memUnlockRepo{rows: make(map[[2]string]*domain.Unlock)}
}

func (r *memUnlockRepo) InsertIfAbsent(_ context.Context, u *domain.Unlock) (*domain.Unlock, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{u.ListingID, u.IdentityID}
	if existing, ok := r.rows[key]; ok {
		clone := *existing
		return &clone, false, nil
	}
	clone := *u
	clone.ID = "unlock_" + clone.ListingID + "_" + clone.IdentityID
	r.rows[key] = &clone
	out := clone
	return &out, true, nil
}

func (r *memUnlockRepo) Find(_ context.Context, listingID, identityID string) (*domain.Unlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.rows[[2]string{listingID, identityID}]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUnlockNotFound
}

func (r *memUnlockRepo) ListByIdentity(_ context.Context, identityID string) ([]*domain.Unlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Unlock
	for _, u := range r.rows {
		if u.IdentityID == identityID {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memUnlockRepo) ListAll(_ context.Context) ([]*domain.Unlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Unlock
	for _, u := range r.rows {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memUnlockRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type quoteKey struct {
	listingID   string
	elapsedDays int64
}

type memQuoteCache struct {
	mu     sync.Mutex
	quotes map[quoteKey]decimal.Decimal
}

func newMemQuoteCache() *memQuoteCache {
	return &memQuoteCache{quotes: make(map[quoteKey]decimal.Decimal)}
}

func (c *memQuoteCache) Get(_ context.Context, listingID string, elapsedDays int64) (decimal.Decimal, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	amount, ok := c.quotes[quoteKey{listingID, elapsedDays}]
	return amount, ok, nil
}

func (c *memQuoteCache) Set(_ context.Context, listingID string, elapsedDays int64, amount decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[quoteKey{listingID, elapsedDays}] = amount
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	published []string
	unlocked  []string
}

func (n *recordingNotifier) ListingPublished(listingID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, listingID)
}

func (n *recordingNotifier) ListingUnlocked(listingID, unlockerID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unlocked = append(n.unlocked, listingID+":"+unlockerID)
}

func (n *recordingNotifier) unlockedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.unlocked)
}

func testListing(id string, age time.Duration) *domain.Listing {
	return &domain.Listing{
		ID:            id,
		OwnerID:       "owner_1",
		Slug:          id,
		Category:      "ponteggi",
		Region:        "Lombardia",
		Province:      "MI",
		Locality:      "Milano",
		Contact:       domain.ContactDetails{Name: "Mario", Email: "mario@example.com", Phone: "3331234567"},
		BasePrice:     decimal.RequireFromString("20"),
		PricingPolicy: domain.PolicyDecay,
		Visible:       true,
		CreatedAt:     time.Now().UTC().Add(-age),
	}
}

func newTestUnlockService(listingRepo ports.ListingRepository, unlockRepo ports.UnlockRepository, notifier ports.Notifier) ports.UnlockService {
	return NewUnlockService(listingRepo, unlockRepo, newStubIdentityRepo(), newMemQuoteCache(), notifier, zerolog.Nop())
}

func TestUnlockService_Unlock_ChargesDecayedPrice(t *testing.T) {
	listingRepo := newMemListingRepo(testListing("listing_1", 3*24*time.Hour+time.Hour))
	unlockRepo := newMemUnlockRepo()
	notifier := &recordingNotifier{}
	svc := newTestUnlockService(listingRepo, unlockRepo, notifier)

	res, err := svc.Unlock(context.Background(), "listing_1", "identity_1")
	require.NoError(t, err)
	require.False(t, res.AlreadyUnlocked)
	// Three whole days elapsed: 20 * (1 - 0.3) = 14.
	require.True(t, res.AmountCharged.Equal(decimal.RequireFromString("14")), "got %s", res.AmountCharged)
	require.Equal(t, 1, unlockRepo.count())
	require.Equal(t, 1, notifier.unlockedCount())
}

func TestUnlockService_Unlock_ReplaySameRow(t *testing.T) {
	listingRepo := newMemListingRepo(testListing("listing_1", 2*24*time.Hour))
	unlockRepo := newMemUnlockRepo()
	notifier := &recordingNotifier{}
	svc := newTestUnlockService(listingRepo, unlockRepo, notifier)

	first, err := svc.Unlock(context.Background(), "listing_1", "identity_1")
	require.NoError(t, err)
	require.False(t, first.AlreadyUnlocked)

	second, err := svc.Unlock(context.Background(), "listing_1", "identity_1")
	require.NoError(t, err)
	require.True(t, second.AlreadyUnlocked)
	// The replay returns the original charge, not a re-priced one.
	require.True(t, second.AmountCharged.Equal(first.AmountCharged))
	require.Equal(t, first.UnlockedAt.Unix(), second.UnlockedAt.Unix())

	require.Equal(t, 1, unlockRepo.count())
	require.Equal(t, 1, notifier.unlockedCount(), "replay must not re-notify the owner")
}

func TestUnlockService_Unlock_DistinctIdentitiesChargedSeparately(t *testing.T) {
	listingRepo := newMemListingRepo(testListing("listing_1", 0))
	unlockRepo := newMemUnlockRepo()
	notifier := &recordingNotifier{}
	svc := newTestUnlockService(listingRepo, unlockRepo, notifier)

	_, err := svc.Unlock(context.Background(), "listing_1", "identity_1")
	require.NoError(t, err)
	res, err := svc.Unlock(context.Background(), "listing_1", "identity_2")
	require.NoError(t, err)
	require.False(t, res.AlreadyUnlocked)
	require.Equal(t, 2, unlockRepo.count())
}

// raceUnlockRepo simulates a concurrent writer landing between the replay
// check and the insert: Find misses but the insert hits the unique index.
type raceUnlockRepo struct {
	*memUnlockRepo
	winner *domain.Unlock
}

func (r *raceUnlockRepo) Find(_ context.Context, _, _ string) (*domain.Unlock, error) {
	return nil, domain.ErrUnlockNotFound
}

func (r *raceUnlockRepo) InsertIfAbsent(_ context.Context, _ *domain.Unlock) (*domain.Unlock, bool, error) {
	clone := *r.winner
	return &clone, false, nil
}

func TestUnlockService_Unlock_InsertRaceReplaysWinner(t *testing.T) {
	listingRepo := newMemListingRepo(testListing("listing_1", 24*time.Hour))
	winner := &domain.Unlock{
		ID:            "unlock_1",
		ListingID:     "listing_1",
		IdentityID:    "identity_1",
		AmountCharged: decimal.RequireFromString("18"),
		UnlockedAt:    time.Now().UTC().Add(-time.Minute),
	}
	notifier := &recordingNotifier{}
	svc := newTestUnlockService(listingRepo, &raceUnlockRepo{memUnlockRepo: newMemUnlockRepo(), winner: winner}, notifier)

	res, err := svc.Unlock(context.Background(), "listing_1", "identity_1")
	require.NoError(t, err)
	require.True(t, res.AlreadyUnlocked)
	require.True(t, res.AmountCharged.Equal(winner.AmountCharged))
	require.Equal(t, 0, notifier.unlockedCount(), "the race loser must not notify")
}

func TestUnlockService_Unlock_Concurrent(t *testing.T) {
	listingRepo := newMemListingRepo(testListing("listing_1", 24*time.Hour))
	unlockRepo := newMemUnlockRepo()
	notifier := &recordingNotifier{}
	svc := newTestUnlockService(listingRepo, unlockRepo, notifier)

	const goroutines = 16
	var wg sync.WaitGroup
	charged := make(chan bool, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Unlock(context.Background(), "listing_1", "identity_1")
			if err != nil {
				t.Errorf("unlock failed: %v", err)
				return
			}
			charged <- !res.AlreadyUnlocked
		}()
	}
	wg.Wait()
	close(charged)

	fresh := 0
	for c := range charged {
		if c {
			fresh++
		}
	}
	require.Equal(t, 1, fresh, "exactly one request may be charged fresh")
	require.Equal(t, 1, unlockRepo.count())
	require.Equal(t, 1, notifier.unlockedCount())
}

func TestUnlockService_Unlock_ExpiredListing(t *testing.T) {
	listingRepo := newMemListingRepo(testListing("listing_1", 12*24*time.Hour))
	unlockRepo := newMemUnlockRepo()
	svc := newTestUnlockService(listingRepo, unlockRepo, &recordingNotifier{})

	_, err := svc.Unlock(context.Background(), "listing_1", "identity_1")
	require.ErrorIs(t, err, domain.ErrListingExpired)
	require.Equal(t, 0, unlockRepo.count())

	// The expiry flip is persisted lazily.
	stored, err := listingRepo.FindByID(context.Background(), "listing_1")
	require.NoError(t, err)
	require.False(t, stored.Visible)
}

func TestUnlockService_Unlock_ListingNotFound(t *testing.T) {
	svc := newTestUnlockService(newMemListingRepo(), newMemUnlockRepo(), &recordingNotifier{})

	_, err := svc.Unlock(context.Background(), "missing", "identity_1")
	require.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestUnlockService_Quote_ComputesAndCaches(t *testing.T) {
	listingRepo := newMemListingRepo(testListing("listing_1", 3*24*time.Hour+time.Hour))
	cache := newMemQuoteCache()
	svc := NewUnlockService(listingRepo, newMemUnlockRepo(), newStubIdentityRepo(), cache, &recordingNotifier{}, zerolog.Nop())

	res, err := svc.Quote(context.Background(), "listing_1")
	require.NoError(t, err)
	require.True(t, res.Amount.Equal(decimal.RequireFromString("14")), "got %s", res.Amount)
	require.Equal(t, int64(3), res.ElapsedDays)
	require.Equal(t, domain.PolicyDecay, res.Policy)

	cached, ok, err := cache.Get(context.Background(), "listing_1", 3)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, cached.Equal(res.Amount))
}

func TestUnlockService_Quote_ServesCachedAmount(t *testing.T) {
	listingRepo := newMemListingRepo(testListing("listing_1", time.Hour))
	cache := newMemQuoteCache()
	require.NoError(t, cache.Set(context.Background(), "listing_1", 0, decimal.RequireFromString("12.34")))
	svc := NewUnlockService(listingRepo, newMemUnlockRepo(), newStubIdentityRepo(), cache, &recordingNotifier{}, zerolog.Nop())

	res, err := svc.Quote(context.Background(), "listing_1")
	require.NoError(t, err)
	require.True(t, res.Amount.Equal(decimal.RequireFromString("12.34")), "got %s", res.Amount)
}

func TestUnlockService_Quote_CacheDoesNotSpanDayBoundary(t *testing.T) {
	// A quote cached on day 2 must not be served on day 3, where the
	// price has stepped down.
	listingRepo := newMemListingRepo(testListing("listing_1", 3*24*time.Hour+time.Hour))
	cache := newMemQuoteCache()
	require.NoError(t, cache.Set(context.Background(), "listing_1", 2, decimal.RequireFromString("16")))
	svc := NewUnlockService(listingRepo, newMemUnlockRepo(), newStubIdentityRepo(), cache, &recordingNotifier{}, zerolog.Nop())

	res, err := svc.Quote(context.Background(), "listing_1")
	require.NoError(t, err)
	require.Equal(t, int64(3), res.ElapsedDays)
	require.True(t, res.Amount.Equal(decimal.RequireFromString("14")), "got %s", res.Amount)
}

func TestUnlockService_Quote_ExpiredListing(t *testing.T) {
	listingRepo := newMemListingRepo(testListing("listing_1", 11*24*time.Hour))
	svc := newTestUnlockService(listingRepo, newMemUnlockRepo(), &recordingNotifier{})

	_, err := svc.Quote(context.Background(), "listing_1")
	require.ErrorIs(t, err, domain.ErrListingExpired)
}

func TestUnlockService_ContactDetails_RequiresUnlock(t *testing.T) {
	listingRepo := newMemListingRepo(testListing("listing_1", time.Hour))
	unlockRepo := newMemUnlockRepo()
	svc := newTestUnlockService(listingRepo, unlockRepo, &recordingNotifier{})

	_, err := svc.ContactDetails(context.Background(), "listing_1", "identity_1")
	require.ErrorIs(t, err, domain.ErrUnlockRequired)

	_, err = svc.Unlock(context.Background(), "listing_1", "identity_1")
	require.NoError(t, err)

	contact, err := svc.ContactDetails(context.Background(), "listing_1", "identity_1")
	require.NoError(t, err)
	require.Equal(t, "mario@example.com", contact.Email)
	require.Equal(t, "3331234567", contact.Phone)
}

func TestUnlockService_History(t *testing.T) {
	listingRepo := newMemListingRepo(
		testListing("listing_1", time.Hour),
		testListing("listing_2", 2*time.Hour),
	)
	unlockRepo := newMemUnlockRepo()
	svc := newTestUnlockService(listingRepo, unlockRepo, &recordingNotifier{})

	_, err := svc.Unlock(context.Background(), "listing_1", "identity_1")
	require.NoError(t, err)
	_, err = svc.Unlock(context.Background(), "listing_2", "identity_1")
	require.NoError(t, err)
	_, err = svc.Unlock(context.Background(), "listing_1", "identity_2")
	require.NoError(t, err)

	items, err := svc.History(context.Background(), "identity_1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		require.Equal(t, "ponteggi", item.Category)
		require.Equal(t, "Milano", item.Locality)
	}
}
