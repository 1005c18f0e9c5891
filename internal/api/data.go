package api

import (
	"log/slog"
	"net/http"

	"github.com/swamy3697/Shop-Mate/internal/shopping"
)

// DataHandler handles whole-store operations.
type DataHandler struct {
	Service *shopping.Service
}

// Reset handles DELETE /api/data: the catalog, the list and all images are
// removed. The account stays.
func (h *DataHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.ResetAll(r.Context()); err != nil {
		serviceError(w, r, err, "failed to clear data")
		return
	}

	claims := GetClaims(r.Context())
	if claims != nil {
		slog.Info("all data cleared", "user", claims.Username)
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "all data cleared"})
}
