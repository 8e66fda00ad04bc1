package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/inquotus/marketplace-api/internal/core/ports"
)

// AdminHandler handles operator-only endpoints.
type AdminHandler struct {
	listings ports.ListingService
	unlocks  ports.UnlockService
}

func NewAdminHandler(listings ports.ListingService, unlocks ports.UnlockService) *AdminHandler {
	return &AdminHandler{listings: listings, unlocks: unlocks}
}

type transactionResponse struct {
	UnlockID      string          `json:"unlock_id"`
	ListingID     string          `json:"listing_id"`
	Category      string          `json:"category"`
	Locality      string          `json:"locality"`
	IdentityID    string          `json:"identity_id"`
	IdentityEmail string          `json:"identity_email"`
	AmountCharged decimal.Decimal `json:"amount_charged"`
	UnlockedAt    time.Time       `json:"unlocked_at"`
}

// HideListing handles DELETE /v1/admin/listings/:id — permanently removes
// a listing from public view. The ledger rows referencing it are kept.
//
// @Summary      Hide a listing
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      204  "listing hidden"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/listings/{id} [delete]
func (h *AdminHandler) HideListing(c echo.Context) error {
	if err := h.listings.Hide(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Transactions handles GET /v1/admin/transactions — the full unlock ledger.
//
// @Summary      List all unlock transactions
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   transactionResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/admin/transactions [get]
func (h *AdminHandler) Transactions(c echo.Context) error {
	records, err := h.unlocks.Transactions(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]transactionResponse, len(records))
	for i, r := range records {
		out[i] = transactionResponse{
			UnlockID:      r.UnlockID,
			ListingID:     r.ListingID,
			Category:      r.Category,
			Locality:      r.Locality,
			IdentityID:    r.IdentityID,
			IdentityEmail: r.IdentityEmail,
			AmountCharged: r.AmountCharged,
			UnlockedAt:    r.UnlockedAt.UTC(),
		}
	}
	return c.JSON(http.StatusOK, out)
}
