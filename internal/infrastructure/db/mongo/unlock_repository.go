package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inquotus/marketplace-api/internal/core/domain"
)

const collectionUnlocks = "unlocks"

// UnlockRepository owns the append-only unlock ledger collection. The
// unique compound index on (listing_id, identity_id) is the authoritative
// guard against concurrent duplicate unlocks.
type UnlockRepository struct {
	col *mongo.Collection
}

func NewUnlockRepository(db *mongo.Database) *UnlockRepository {
	return &UnlockRepository{col: db.Collection(collectionUnlocks)}
}

type unlockDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ListingID     string             `bson:"listing_id"`
	IdentityID    string             `bson:"identity_id"`
	AmountCharged string             `bson:"amount_charged"`
	UnlockedAt    time.Time          `bson:"unlocked_at"`
}

func (d unlockDoc) toDomain() (*domain.Unlock, error) {
	amount, err := decimal.NewFromString(d.AmountCharged)
	if err != nil {
		return nil, fmt.Errorf("unlock %s: bad amount %q: %w", d.ID.Hex(), d.AmountCharged, err)
	}
	return &domain.Unlock{
		ID:            d.ID.Hex(),
		ListingID:     d.ListingID,
		IdentityID:    d.IdentityID,
		AmountCharged: amount,
		UnlockedAt:    d.UnlockedAt.UTC(),
	}, nil
}

// InsertIfAbsent appends a ledger row. When the unique index rejects the
// insert because a concurrent request won the race, the stored row is
// read back and returned with inserted=false — the conflict is recovered
// here, never surfaced as a failure.
func (r *UnlockRepository) InsertIfAbsent(ctx context.Context, u *domain.Unlock) (*domain.Unlock, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := unlockDoc{
		ListingID:     u.ListingID,
		IdentityID:    u.IdentityID,
		AmountCharged: u.AmountCharged.String(),
		UnlockedAt:    u.UnlockedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			existing, findErr := r.Find(ctx, u.ListingID, u.IdentityID)
			if findErr != nil {
				return nil, false, fmt.Errorf("re-read after conflict: %w", findErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("insert unlock: %w", err)
	}

	row := *u
	row.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &row, true, nil
}

func (r *UnlockRepository) Find(ctx context.Context, listingID, identityID string) (*domain.Unlock, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc unlockDoc
	err := r.col.FindOne(ctx, bson.M{"listing_id": listingID, "identity_id": identityID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUnlockNotFound
		}
		return nil, fmt.Errorf("find unlock: %w", err)
	}
	return doc.toDomain()
}

func (r *UnlockRepository) ListByIdentity(ctx context.Context, identityID string) ([]*domain.Unlock, error) {
	return r.list(ctx, bson.M{"identity_id": identityID})
}

func (r *UnlockRepository) ListAll(ctx context.Context) ([]*domain.Unlock, error) {
	return r.list(ctx, bson.M{})
}

func (r *UnlockRepository) list(ctx context.Context, query bson.M) ([]*domain.Unlock, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "unlocked_at", Value: -1}})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Unlock
	for cur.Next(ctx) {
		var doc unlockDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode unlock: %w", err)
		}
		u, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, cur.Err()
}

// EnsureIndexes creates the unique (listing_id, identity_id) index. The
// ledger's at-most-one-unlock-per-pair invariant lives here, not in
// application code.
func (r *UnlockRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "listing_id", Value: 1}, {Key: "identity_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "identity_id", Value: 1}, {Key: "unlocked_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
