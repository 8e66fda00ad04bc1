package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inquotus/marketplace-api/internal/api/metrics"
	"github.com/inquotus/marketplace-api/internal/core/ports"
)

// ListingHandler handles HTTP requests for job listings.
type ListingHandler struct {
	service ports.ListingService
}

func NewListingHandler(service ports.ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// Create handles POST /v1/listings — publish a new job listing.
//
// @Summary      Publish a job listing
// @Tags         listings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createListingRequest  true  "Listing details"
// @Success      201   {object}  listingResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/listings [post]
func (h *ListingHandler) Create(c echo.Context) error {
	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ownerID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	listing, err := h.service.Create(c.Request().Context(), ports.CreateListingInput{
		OwnerID:      ownerID,
		Category:     req.Category,
		Region:       req.Region,
		Province:     req.Province,
		Locality:     req.Locality,
		Description:  req.Description,
		MediaURL:     req.MediaURL,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		BasePrice:    req.BasePrice,
		Policy:       req.Policy,
	})
	if err != nil {
		return err
	}

	metrics.ListingsCreatedTotal.WithLabelValues(listing.Category).Inc()
	return c.JSON(http.StatusCreated, toListingResponse(listing))
}

// Browse handles GET /v1/listings — publicly visible listings.
//
// @Summary      Browse visible listings
// @Tags         listings
// @Produce      json
// @Param        category  query     string  false  "Filter by category"
// @Param        region    query     string  false  "Filter by region"
// @Success      200       {array}   listingResponse
// @Router       /v1/listings [get]
func (h *ListingHandler) Browse(c echo.Context) error {
	listings, err := h.service.Browse(c.Request().Context(), ports.BrowseListingsInput{
		Category: c.QueryParam("category"),
		Region:   c.QueryParam("region"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingResponses(listings))
}

// Mine handles GET /v1/listings/mine — the caller's own listings.
//
// @Summary      List my listings
// @Tags         listings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   listingResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/listings/mine [get]
func (h *ListingHandler) Mine(c echo.Context) error {
	ownerID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	listings, err := h.service.Mine(c.Request().Context(), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingResponses(listings))
}
