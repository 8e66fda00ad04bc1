package ports

// Notifier queues outbound marketplace notifications. Implementations are
// asynchronous and best-effort: enqueueing never blocks on delivery and
// delivery failures never propagate back to the caller.
type Notifier interface {
	// ListingPublished announces a new listing to approved unlocker
	// identities.
	ListingPublished(listingID string)
	// ListingUnlocked tells the listing owner their contacts were revealed.
	ListingUnlocked(listingID, unlockerID string)
}
