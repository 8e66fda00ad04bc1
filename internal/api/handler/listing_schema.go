package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/inquotus/marketplace-api/internal/core/domain"
)

type createListingRequest struct {
	Category     string          `json:"category"      validate:"required"`
	Region       string          `json:"region"        validate:"required"`
	Province     string          `json:"province"      validate:"required"`
	Locality     string          `json:"locality"      validate:"required"`
	Description  string          `json:"description"   validate:"required"`
	MediaURL     string          `json:"media_url"`
	ContactName  string          `json:"contact_name"  validate:"required"`
	ContactEmail string          `json:"contact_email" validate:"required,email"`
	ContactPhone string          `json:"contact_phone" validate:"required"`
	BasePrice    decimal.Decimal `json:"base_price"`
	Policy       string          `json:"policy"        validate:"omitempty,oneof=decay flat"`
}

type listingResponse struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Category    string          `json:"category"`
	Region      string          `json:"region"`
	Province    string          `json:"province"`
	Locality    string          `json:"locality"`
	Description string          `json:"description"`
	MediaURL    string          `json:"media_url,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Policy      string          `json:"policy"`
	Visible     bool            `json:"visible"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	return listingResponse{
		ID:          l.ID,
		Slug:        l.Slug,
		Category:    l.Category,
		Region:      l.Region,
		Province:    l.Province,
		Locality:    l.Locality,
		Description: l.Description,
		MediaURL:    l.MediaURL,
		BasePrice:   l.BasePrice,
		Policy:      string(l.PricingPolicy),
		Visible:     l.Visible,
		CreatedAt:   l.CreatedAt.UTC(),
	}
}

func toListingResponses(listings []*domain.Listing) []listingResponse {
	out := make([]listingResponse, len(listings))
	for i, l := range listings {
		out[i] = toListingResponse(l)
	}
	return out
}
