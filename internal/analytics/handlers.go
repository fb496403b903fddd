package analytics

import (
	"net/http"

	"github.com/noah-isme/drinkpos/internal/common"
	"github.com/noah-isme/drinkpos/internal/menu"
)

// Handler exposes analytics read endpoints.
type Handler struct {
	Svc *Service
}

func (h *Handler) configured(w http.ResponseWriter) bool {
	if h.Svc == nil || h.Svc.Stats == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return false
	}
	return true
}

// Summary returns every aggregated sales figure.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	sum, err := h.Svc.Summary(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sum})
}

// TopAddons returns the best-selling add-ons, three unless limit says otherwise.
func (h *Handler) TopAddons(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), TopAddonsLimit)
	if limit <= 0 {
		limit = TopAddonsLimit
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Stats.TopAddons(limit)})
}

// Unsold lists catalog drinks with no recorded sales.
func (h *Handler) Unsold(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	var keys []menu.Key
	if h.Svc.Catalog != nil {
		keys = h.Svc.Catalog()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Stats.Unsold(keys)})
}
