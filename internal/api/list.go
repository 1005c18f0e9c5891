package api

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/swamy3697/Shop-Mate/internal/model"
	"github.com/swamy3697/Shop-Mate/internal/share"
	"github.com/swamy3697/Shop-Mate/internal/shopping"
)

// ListHandler handles shopping-list endpoints.
type ListHandler struct {
	Service *shopping.Service
	Font    share.Font
}

// addToListRequest either references a catalog item by itemId, with the
// other fields overriding it, or describes a free-standing entry.
type addToListRequest struct {
	ItemID       string   `json:"itemId"`
	Name         *string  `json:"name"`
	Quantity     *float64 `json:"quantity"`
	QuantityType *string  `json:"quantityType"`
}

type clearListResponse struct {
	Removed int    `json:"removed"`
	Error   string `json:"error,omitempty"`
}

// List handles GET /api/list.
func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.List(r.Context())
	if err != nil {
		serviceError(w, r, err, "failed to list entries")
		return
	}
	jsonResponse(w, http.StatusOK, entries)
}

// Add handles POST /api/list.
func (h *ListHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addToListRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		entry *model.ShopListItem
		err   error
	)
	if req.ItemID != "" {
		entry, err = h.Service.AddFromCatalog(r.Context(), req.ItemID, model.ItemPatch{
			Name:         req.Name,
			Quantity:     req.Quantity,
			QuantityType: req.QuantityType,
		})
	} else {
		fields := model.ItemFields{Quantity: model.DefaultQuantity, QuantityType: model.DefaultQuantityType}
		if req.Name != nil {
			fields.Name = *req.Name
		}
		if req.Quantity != nil {
			fields.Quantity = *req.Quantity
		}
		if req.QuantityType != nil {
			fields.QuantityType = *req.QuantityType
		}
		entry, err = h.Service.AddToList(r.Context(), fields)
	}
	if err != nil {
		serviceError(w, r, err, "failed to add entry")
		return
	}
	jsonResponse(w, http.StatusCreated, entry)
}

// Clear handles DELETE /api/list. On a partial failure the response carries
// the number of entries already removed.
func (h *ListHandler) Clear(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Service.ClearList(r.Context())
	if err != nil {
		slog.Error("failed to clear list", "removed", len(removed), "error", err)
		jsonResponse(w, http.StatusInternalServerError, clearListResponse{
			Removed: len(removed),
			Error:   "failed to clear list",
		})
		return
	}
	jsonResponse(w, http.StatusOK, clearListResponse{Removed: len(removed)})
}

// Update handles PUT /api/list/{id}.
func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.ListItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.Service.UpdateListEntry(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		serviceError(w, r, err, "failed to update entry")
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

// Delete handles DELETE /api/list/{id}. Deleting an unknown entry succeeds.
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.DeleteListEntry(r.Context(), r.PathValue("id")); err != nil {
		serviceError(w, r, err, "failed to delete entry")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "entry deleted"})
}

// Toggle handles POST /api/list/{id}/toggle.
func (h *ListHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Service.ToggleListEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err, "failed to toggle entry")
		return
	}
	jsonResponse(w, http.StatusOK, entry)
}

// GetImage handles GET /api/list/{id}/image.
func (h *ListHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.List(r.Context())
	if err != nil {
		serviceError(w, r, err, "failed to get image")
		return
	}
	id := r.PathValue("id")
	for _, e := range entries {
		if e.ID == id {
			serveImage(w, r, h.Service, e.ImagePath)
			return
		}
	}
	jsonError(w, http.StatusNotFound, "not found")
}

// ShareText handles GET /api/list/share.txt.
func (h *ListHandler) ShareText(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.List(r.Context())
	if err != nil {
		serviceError(w, r, err, "failed to list entries")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(share.Text(entries)))
}

// SharePDF handles GET /api/list/share.pdf.
func (h *ListHandler) SharePDF(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.List(r.Context())
	if err != nil {
		serviceError(w, r, err, "failed to list entries")
		return
	}

	var buf bytes.Buffer
	if err := share.PDF(&buf, entries, h.Font); err != nil {
		serviceError(w, r, err, "failed to render pdf")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="shopping-list.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
