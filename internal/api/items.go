package api

import (
	"net/http"
	"path/filepath"

	"github.com/swamy3697/Shop-Mate/internal/model"
	"github.com/swamy3697/Shop-Mate/internal/shopping"
)

// maxUploadSize bounds image upload bodies.
const maxUploadSize = 10 << 20

// ItemsHandler handles catalog endpoints.
type ItemsHandler struct {
	Service *shopping.Service
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Items(r.Context())
	if err != nil {
		serviceError(w, r, err, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ItemFields
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.CreateItem(r.Context(), req, nil)
	if err != nil {
		serviceError(w, r, err, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.Item(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Service.UpdateItem(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		serviceError(w, r, err, "failed to update item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}. Deleting an unknown item succeeds.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		serviceError(w, r, err, "failed to delete item")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	item, err := h.Service.SetItemImage(r.Context(), r.PathValue("id"), file)
	if err != nil {
		serviceError(w, r, err, "failed to save image")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.Item(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err, "failed to get image")
		return
	}
	serveImage(w, r, h.Service, item.ImagePath)
}

// DeleteImage handles DELETE /api/items/{id}/image.
func (h *ItemsHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.ClearItemImage(r.Context(), r.PathValue("id"))
	if err != nil {
		serviceError(w, r, err, "failed to delete image")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// AddToList handles POST /api/items/{id}/list. The optional body adjusts the
// entry's name, quantity or unit.
func (h *ItemsHandler) AddToList(w http.ResponseWriter, r *http.Request) {
	var patch model.ItemPatch
	if err := decodeOptionalJSON(r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.Service.AddFromCatalog(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		serviceError(w, r, err, "failed to add item to list")
		return
	}
	jsonResponse(w, http.StatusCreated, entry)
}

// serveImage writes the stored image at path, or 404 when there is none.
func serveImage(w http.ResponseWriter, r *http.Request, svc *shopping.Service, path string) {
	if path == "" {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	f, err := svc.Media().Open(path)
	if err != nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		serviceError(w, r, err, "failed to read image")
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}
