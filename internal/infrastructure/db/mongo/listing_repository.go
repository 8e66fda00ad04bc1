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
	"github.com/inquotus/marketplace-api/internal/core/ports"
)

const collectionListings = "listings"

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(collectionListings)}
}

// listingDoc is the persisted shape. Money is stored as a decimal string
// to keep amounts exact.
type listingDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID       string             `bson:"owner_id"`
	Slug          string             `bson:"slug"`
	Category      string             `bson:"category"`
	Region        string             `bson:"region"`
	Province      string             `bson:"province"`
	Locality      string             `bson:"locality"`
	Description   string             `bson:"description"`
	MediaURL      string             `bson:"media_url,omitempty"`
	ContactName   string             `bson:"contact_name"`
	ContactEmail  string             `bson:"contact_email"`
	ContactPhone  string             `bson:"contact_phone"`
	BasePrice     string             `bson:"base_price"`
	PricingPolicy string             `bson:"pricing_policy"`
	Visible       bool               `bson:"visible"`
	CreatedAt     time.Time          `bson:"created_at"`
}

func (d listingDoc) toDomain() (*domain.Listing, error) {
	basePrice, err := decimal.NewFromString(d.BasePrice)
	if err != nil {
		return nil, fmt.Errorf("listing %s: bad base price %q: %w", d.ID.Hex(), d.BasePrice, err)
	}
	return &domain.Listing{
		ID:          d.ID.Hex(),
		OwnerID:     d.OwnerID,
		Slug:        d.Slug,
		Category:    d.Category,
		Region:      d.Region,
		Province:    d.Province,
		Locality:    d.Locality,
		Description: d.Description,
		MediaURL:    d.MediaURL,
		Contact: domain.ContactDetails{
			Name:  d.ContactName,
			Email: d.ContactEmail,
			Phone: d.ContactPhone,
		},
		BasePrice:     basePrice,
		PricingPolicy: domain.PricingPolicy(d.PricingPolicy),
		Visible:       d.Visible,
		CreatedAt:     d.CreatedAt.UTC(),
	}, nil
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := listingDoc{
		OwnerID:       l.OwnerID,
		Slug:          l.Slug,
		Category:      l.Category,
		Region:        l.Region,
		Province:      l.Province,
		Locality:      l.Locality,
		Description:   l.Description,
		MediaURL:      l.MediaURL,
		ContactName:   l.Contact.Name,
		ContactEmail:  l.Contact.Email,
		ContactPhone:  l.Contact.Phone,
		BasePrice:     l.BasePrice.String(),
		PricingPolicy: string(l.PricingPolicy),
		Visible:       l.Visible,
		CreatedAt:     l.CreatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}

	created := *l
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrListingNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc listingDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return doc.toDomain()
}

func (r *ListingRepository) List(ctx context.Context, filter ports.ListingFilter) ([]*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.OwnerID != "" {
		query["owner_id"] = filter.OwnerID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Region != "" {
		query["region"] = filter.Region
	}
	if filter.VisibleOnly {
		query["visible"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Listing
	for cur.Next(ctx) {
		var doc listingDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode listing: %w", err)
		}
		l, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, cur.Err()
}

// SetVisible persists the visibility flag. The write is idempotent, so
// concurrent expiry updates are safe without locking.
func (r *ListingRepository) SetVisible(ctx context.Context, id string, visible bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrListingNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"visible": visible}})
	if err != nil {
		return fmt.Errorf("set listing visibility: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("slug lookup: %w", err)
	}
	return n > 0, nil
}

// EnsureIndexes creates the indexes used by listing queries.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "visible", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
