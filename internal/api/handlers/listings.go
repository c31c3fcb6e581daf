package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/alsk1992/Flip-God-sub007/internal/store"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

// ListingsHandler serves tracked listings and their price observations.
type ListingsHandler struct {
	store store.Store
}

// NewListingsHandler creates a new ListingsHandler.
func NewListingsHandler(s store.Store) *ListingsHandler {
	return &ListingsHandler{store: s}
}

// ListListingsInput is the input for listing tracked listings.
type ListListingsInput struct {
	Platform string `query:"platform" doc:"Filter by platform (amazon, ebay, walmart, shopify)"`
	Active   bool   `query:"active" doc:"Only return active listings"`
	Limit    int    `query:"limit" doc:"Maximum listings to return"`
}

// ListListingsOutput is the response for listing tracked listings.
type ListListingsOutput struct {
	Body []domain.Listing
}

// GetListingInput is the input for getting a single listing.
type GetListingInput struct {
	ID string `path:"id" doc:"Listing UUID"`
}

// GetListingOutput is the response for getting a single listing.
type GetListingOutput struct {
	Body domain.Listing
}

// UpsertListingInput is the input for creating or updating a listing.
type UpsertListingInput struct {
	Body domain.Listing
}

// UpsertListingOutput is the response for creating or updating a listing.
type UpsertListingOutput struct {
	Body domain.Listing
}

// ListObservationsInput is the input for listing price observations.
type ListObservationsInput struct {
	Platform string `query:"platform" doc:"Marketplace platform" required:"true"`
	SKU      string `query:"sku" doc:"Listing SKU" required:"true"`
	Limit    int    `query:"limit" doc:"Maximum observations to return"`
}

// ListObservationsOutput is the response for listing price observations.
type ListObservationsOutput struct {
	Body []domain.PricePoint
}

// ListListings returns tracked listings matching the filters.
func (h *ListingsHandler) ListListings(
	ctx context.Context,
	input *ListListingsInput,
) (*ListListingsOutput, error) {
	q := &store.ListingQuery{
		ActiveOnly: input.Active,
		Limit:      input.Limit,
	}
	if input.Platform != "" {
		p := domain.Platform(input.Platform)
		if !p.Valid() {
			return nil, huma.Error422UnprocessableEntity("unknown platform: " + input.Platform)
		}
		q.Platforms = []domain.Platform{p}
	}

	listings, err := h.store.ListEligibleListings(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing listings failed: " + err.Error())
	}
	if listings == nil {
		listings = []domain.Listing{}
	}
	return &ListListingsOutput{Body: listings}, nil
}

// GetListing returns a single listing by ID.
func (h *ListingsHandler) GetListing(
	ctx context.Context,
	input *GetListingInput,
) (*GetListingOutput, error) {
	l, err := h.store.GetListing(ctx, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("listing not found")
	}
	return &GetListingOutput{Body: *l}, nil
}

// UpsertListing creates a listing or updates the one with the same
// platform and external ID.
func (h *ListingsHandler) UpsertListing(
	ctx context.Context,
	input *UpsertListingInput,
) (*UpsertListingOutput, error) {
	l := input.Body
	if !l.Platform.Valid() {
		return nil, huma.Error422UnprocessableEntity("unknown platform: " + string(l.Platform))
	}
	if l.SKU == "" || l.ExternalID == "" {
		return nil, huma.Error422UnprocessableEntity("sku and external_id are required")
	}

	if err := h.store.UpsertListing(ctx, &l); err != nil {
		return nil, huma.Error500InternalServerError("upserting listing failed: " + err.Error())
	}
	return &UpsertListingOutput{Body: l}, nil
}

// ListObservations returns recorded competitor price observations for a
// platform and SKU, oldest first.
func (h *ListingsHandler) ListObservations(
	ctx context.Context,
	input *ListObservationsInput,
) (*ListObservationsOutput, error) {
	p := domain.Platform(input.Platform)
	if !p.Valid() {
		return nil, huma.Error422UnprocessableEntity("unknown platform: " + input.Platform)
	}

	points, err := h.store.ListPriceObservations(ctx, p, input.SKU, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing observations failed: " + err.Error())
	}
	if points == nil {
		points = []domain.PricePoint{}
	}
	return &ListObservationsOutput{Body: points}, nil
}

// RegisterListingRoutes registers listing endpoints with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "List tracked listings",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusUnprocessableEntity},
	}, h.ListListings)

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Get a listing by ID",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetListing)

	huma.Register(api, huma.Operation{
		OperationID:   "upsert-listing",
		Method:        http.MethodPost,
		Path:          "/api/v1/listings",
		Summary:       "Create or update a listing",
		Description:   "Upserts by platform and external ID.",
		Tags:          []string{"listings"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity},
	}, h.UpsertListing)

	huma.Register(api, huma.Operation{
		OperationID: "list-price-observations",
		Method:      http.MethodGet,
		Path:        "/api/v1/observations",
		Summary:     "List competitor price observations",
		Tags:        []string{"listings"},
		Errors:      []int{http.StatusUnprocessableEntity},
	}, h.ListObservations)
}
