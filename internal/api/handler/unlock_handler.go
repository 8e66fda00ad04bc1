package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/inquotus/marketplace-api/internal/api/metrics"
	"github.com/inquotus/marketplace-api/internal/core/domain"
	"github.com/inquotus/marketplace-api/internal/core/ports"
)

// UnlockHandler handles contact-unlock operations.
type UnlockHandler struct {
	service ports.UnlockService
}

func NewUnlockHandler(service ports.UnlockService) *UnlockHandler {
	return &UnlockHandler{service: service}
}

type unlockResponse struct {
	ListingID       string          `json:"listing_id"`
	AmountCharged   decimal.Decimal `json:"amount_charged"`
	UnlockedAt      time.Time       `json:"unlocked_at"`
	AlreadyUnlocked bool            `json:"already_unlocked"`
}

type quoteResponse struct {
	ListingID   string          `json:"listing_id"`
	Amount      decimal.Decimal `json:"amount"`
	ElapsedDays int64           `json:"elapsed_days"`
	Policy      string          `json:"policy"`
}

type contactResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type historyItemResponse struct {
	ListingID     string          `json:"listing_id"`
	Category      string          `json:"category"`
	Region        string          `json:"region"`
	Province      string          `json:"province"`
	Locality      string          `json:"locality"`
	AmountCharged decimal.Decimal `json:"amount_charged"`
	UnlockedAt    time.Time       `json:"unlocked_at"`
}

// Unlock handles POST /v1/listings/:id/unlock — pay to reveal contacts.
// Repeating the call replays the original charge; it never double-bills.
//
// @Summary      Unlock a listing's contact details
// @Tags         unlocks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  unlockResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      410  {object}  map[string]string
// @Router       /v1/listings/{id}/unlock [post]
func (h *UnlockHandler) Unlock(c echo.Context) error {
	identityID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	result, err := h.service.Unlock(c.Request().Context(), c.Param("id"), identityID)
	if err != nil {
		metrics.UnlockErrorsTotal.WithLabelValues(unlockErrorReason(err)).Inc()
		return err
	}

	if result.AlreadyUnlocked {
		metrics.UnlocksTotal.WithLabelValues("replayed").Inc()
	} else {
		metrics.UnlocksTotal.WithLabelValues("charged").Inc()
	}

	return c.JSON(http.StatusOK, unlockResponse{
		ListingID:       result.ListingID,
		AmountCharged:   result.AmountCharged,
		UnlockedAt:      result.UnlockedAt.UTC(),
		AlreadyUnlocked: result.AlreadyUnlocked,
	})
}

// Quote handles GET /v1/listings/:id/quote — preview the current price.
//
// @Summary      Quote the current unlock price
// @Tags         unlocks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  quoteResponse
// @Failure      404  {object}  map[string]string
// @Failure      410  {object}  map[string]string
// @Router       /v1/listings/{id}/quote [get]
func (h *UnlockHandler) Quote(c echo.Context) error {
	quote, err := h.service.Quote(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	metrics.QuotesTotal.WithLabelValues(string(quote.Policy)).Inc()
	return c.JSON(http.StatusOK, quoteResponse{
		ListingID:   quote.ListingID,
		Amount:      quote.Amount,
		ElapsedDays: quote.ElapsedDays,
		Policy:      string(quote.Policy),
	})
}

// Contacts handles GET /v1/listings/:id/contacts — owner contact details,
// available only after an unlock.
//
// @Summary      Get unlocked contact details
// @Tags         unlocks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  contactResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/listings/{id}/contacts [get]
func (h *UnlockHandler) Contacts(c echo.Context) error {
	identityID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	contact, err := h.service.ContactDetails(c.Request().Context(), c.Param("id"), identityID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, contactResponse{
		Name:  contact.Name,
		Email: contact.Email,
		Phone: contact.Phone,
	})
}

// History handles GET /v1/unlocks — the caller's unlock history.
//
// @Summary      List my unlocks
// @Tags         unlocks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   historyItemResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/unlocks [get]
func (h *UnlockHandler) History(c echo.Context) error {
	identityID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	items, err := h.service.History(c.Request().Context(), identityID)
	if err != nil {
		return err
	}

	out := make([]historyItemResponse, len(items))
	for i, item := range items {
		out[i] = historyItemResponse{
			ListingID:     item.ListingID,
			Category:      item.Category,
			Region:        item.Region,
			Province:      item.Province,
			Locality:      item.Locality,
			AmountCharged: item.AmountCharged,
			UnlockedAt:    item.UnlockedAt.UTC(),
		}
	}
	return c.JSON(http.StatusOK, out)
}

func unlockErrorReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrListingNotFound):
		return "listing_not_found"
	case errors.Is(err, domain.ErrListingExpired):
		return "listing_expired"
	default:
		return "internal"
	}
}
