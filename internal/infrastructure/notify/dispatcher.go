package notify

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/inquotus/marketplace-api/internal/api/metrics"
	"github.com/inquotus/marketplace-api/internal/core/domain"
	"github.com/inquotus/marketplace-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256

	sendAttempts = 3
	retryDelay   = 2 * time.Second
)

type jobKind string

const (
	jobListingPublished jobKind = "listing_published"
	jobListingUnlocked  jobKind = "listing_unlocked"
)

type job struct {
	kind       jobKind
	listingID  string
	unlockerID string
}

// BroadcastClaimer guards against fanning out the same listing
// announcement twice (Redis-backed).
type BroadcastClaimer interface {
	Claim(ctx context.Context, listingID string) (bool, error)
}

// Dispatcher delivers marketplace notifications on a fixed set of workers
// sharded by listing id, decoupled from the request path. Delivery is
// best-effort with a bounded retry; failures are logged and dropped, never
// propagated to the transactional caller. It implements ports.Notifier.
type Dispatcher struct {
	workers    []chan job
	listings   ports.ListingRepository
	identities ports.IdentityRepository
	claims     BroadcastClaimer
	mailer     Mailer
	log        zerolog.Logger
	retryWait  time.Duration
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(
	numWorkers int,
	listings ports.ListingRepository,
	identities ports.IdentityRepository,
	claims BroadcastClaimer,
	mailer Mailer,
	log zerolog.Logger,
) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:    make([]chan job, numWorkers),
		listings:   listings,
		identities: identities,
		claims:     claims,
		mailer:     mailer,
		log:        log,
		retryWait:  retryDelay,
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// ListingPublished queues the new-listing announcement. Non-blocking up
// to channelBuffer capacity; beyond that the job is dropped with a log.
func (d *Dispatcher) ListingPublished(listingID string) {
	d.enqueue(job{kind: jobListingPublished, listingID: listingID})
}

// ListingUnlocked queues the owner notification for an unlock.
func (d *Dispatcher) ListingUnlocked(listingID, unlockerID string) {
	d.enqueue(job{kind: jobListingUnlocked, listingID: listingID, unlockerID: unlockerID})
}

func (d *Dispatcher) enqueue(j job) {
	select {
	case d.workers[d.shardIndex(j.listingID)] <- j:
	default:
		d.log.Warn().
			Str("kind", string(j.kind)).
			Str("listing_id", j.listingID).
			Msg("notification queue full, job dropped")
		metrics.NotificationsTotal.WithLabelValues(string(j.kind), "failed").Inc()
	}
}

// shardIndex maps a listing id deterministically to a worker index,
// preserving per-listing ordering.
func (d *Dispatcher) shardIndex(listingID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(listingID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan job) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-ch:
			if !ok {
				return
			}
			if err := d.process(ctx, j); err != nil {
				d.log.Error().Err(err).
					Str("kind", string(j.kind)).
					Str("listing_id", j.listingID).
					Int("worker_id", id).
					Msg("notification delivery failed")
				metrics.NotificationsTotal.WithLabelValues(string(j.kind), "failed").Inc()
				continue
			}
			metrics.NotificationsTotal.WithLabelValues(string(j.kind), "sent").Inc()
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, j job) error {
	switch j.kind {
	case jobListingPublished:
		return d.broadcastListing(ctx, j.listingID)
	case jobListingUnlocked:
		return d.notifyOwner(ctx, j.listingID)
	default:
		return fmt.Errorf("unknown notification kind %q", j.kind)
	}
}

// broadcastListing announces a new listing to every approved unlocker
// identity. The Redis claim keeps a re-enqueued job from mailing twice.
func (d *Dispatcher) broadcastListing(ctx context.Context, listingID string) error {
	won, err := d.claims.Claim(ctx, listingID)
	if err != nil {
		d.log.Warn().Err(err).Str("listing_id", listingID).Msg("broadcast claim failed, sending anyway")
	} else if !won {
		d.log.Debug().Str("listing_id", listingID).Msg("broadcast already sent, skipping")
		return nil
	}

	listing, err := d.listings.FindByID(ctx, listingID)
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	recipients, err := d.identities.ListApprovedByRoles(ctx, domain.UnlockerRoles)
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}

	subject := "New job listing available"
	body := fmt.Sprintf(
		"A new %s job listing was just published in %s (%s). Log in to view it and unlock the contact details.",
		listing.Category, listing.Locality, listing.Region,
	)

	// One message per recipient: addresses must never be exposed to the
	// other unlockers. A failed delivery skips only that recipient.
	var failed int
	for _, r := range recipients {
		if err := d.sendWithRetry(ctx, []string{r.Email}, subject, body); err != nil {
			d.log.Warn().Err(err).Str("listing_id", listingID).Msg("broadcast delivery failed for recipient")
			failed++
		}
	}
	if failed == len(recipients) {
		return fmt.Errorf("broadcast: all %d deliveries failed", failed)
	}
	return nil
}

// notifyOwner tells the listing owner their contact details were revealed.
func (d *Dispatcher) notifyOwner(ctx context.Context, listingID string) error {
	listing, err := d.listings.FindByID(ctx, listingID)
	if err != nil {
		return fmt.Errorf("notify owner: %w", err)
	}

	subject := "Your listing was unlocked"
	body := fmt.Sprintf(
		"Your %s listing in %s was just unlocked by an interested company or professional. Log in to manage your contacts.",
		listing.Category, listing.Locality,
	)
	return d.sendWithRetry(ctx, []string{listing.Contact.Email}, subject, body)
}

// sendWithRetry attempts delivery up to sendAttempts times with a fixed
// delay between attempts.
func (d *Dispatcher) sendWithRetry(ctx context.Context, to []string, subject, body string) error {
	var lastErr error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		if lastErr = d.mailer.Send(to, subject, body); lastErr == nil {
			return nil
		}
		d.log.Warn().Err(lastErr).Int("attempt", attempt).Msg("mail delivery attempt failed")
		if attempt < sendAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.retryWait):
			}
		}
	}
	return fmt.Errorf("delivery failed after %d attempts: %w", sendAttempts, lastErr)
}
