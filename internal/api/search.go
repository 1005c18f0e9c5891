package api

import (
	"net/http"
	"strings"

	"github.com/swamy3697/Shop-Mate/internal/model"
	"github.com/swamy3697/Shop-Mate/internal/shopping"
)

// SearchHandler handles catalog search endpoints.
type SearchHandler struct {
	Service *shopping.Service
}

// createFromSearchRequest creates the item a search offered. Fields left out
// are taken from the offered candidate.
type createFromSearchRequest struct {
	Query        string   `json:"query"`
	Name         *string  `json:"name"`
	Quantity     *float64 `json:"quantity"`
	QuantityType *string  `json:"quantityType"`
	AddToList    bool     `json:"addToList"`
}

type createFromSearchResponse struct {
	Item  *model.Item         `json:"item"`
	Entry *model.ShopListItem `json:"entry,omitempty"`
}

// Search handles GET /api/search?q=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		serviceError(w, r, err, "failed to search items")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// Create handles POST /api/search/create. It fails with 409 when the query
// matches an existing item exactly.
func (h *SearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFromSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		jsonError(w, http.StatusBadRequest, "query required")
		return
	}

	session := h.Service.NewSearchSession()
	if err := session.Load(r.Context()); err != nil {
		serviceError(w, r, err, "failed to load catalog")
		return
	}
	result := session.Query(req.Query)
	if !result.OfferCreate {
		jsonError(w, http.StatusConflict, "an item with this name already exists")
		return
	}

	fields := *result.Candidate
	if req.Name != nil {
		fields.Name = *req.Name
	}
	if req.Quantity != nil {
		fields.Quantity = *req.Quantity
	}
	if req.QuantityType != nil {
		fields.QuantityType = *req.QuantityType
	}
	if err := fields.Validate(); err != nil {
		serviceError(w, r, err, "failed to create item")
		return
	}

	item, entry, err := session.Create(r.Context(), fields, req.AddToList)
	if err != nil && item == nil {
		serviceError(w, r, err, "failed to create item")
		return
	}
	if err != nil {
		serviceError(w, r, err, "item created but could not be added to the list")
		return
	}
	jsonResponse(w, http.StatusCreated, createFromSearchResponse{Item: item, Entry: entry})
}
