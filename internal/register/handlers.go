package register

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/drinkpos/internal/common"
	"github.com/noah-isme/drinkpos/internal/menu"
	"github.com/noah-isme/drinkpos/internal/receipt"
)

const defaultOrdersPerPage = 20

// Handler wires the register to HTTP.
type Handler struct {
	Svc *Service
	// Recent serves stored receipts when the redis receipt store is in use.
	Recent *receipt.RedisStore
}

// Routes returns the ordering API. checkout wraps the checkout endpoint only, which is where
// idempotency and rate limiting belong.
func (h *Handler) Routes(checkout ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/menu", h.Menu)
	r.Get("/menu/categories", h.Categories)

	r.Route("/carts", func(c chi.Router) {
		c.Post("/", h.CreateCart)
		c.Get("/{id}", h.GetCart)
		c.Delete("/{id}", h.CloseCart)
		c.Post("/{id}/items", h.AddItem)
		c.Delete("/{id}/items/{index}", h.RemoveItem)
		c.Get("/{id}/quote", h.Quote)
		c.With(checkout...).Post("/{id}/checkout", h.Checkout)
	})

	r.Get("/orders", h.Orders)
	r.Get("/orders/{id}", h.Order)
	r.Get("/orders/{id}/receipt", h.Receipt)
	r.Get("/receipts/recent", h.RecentReceipts)
	return r
}

func (h *Handler) configured(w http.ResponseWriter) bool {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "register not configured", nil)
		return false
	}
	return true
}

// Menu lists drinks, filtered by the optional category query parameter.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	drinks, err := h.Svc.Menu(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	if drinks == nil {
		drinks = []menu.Drink{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": drinks})
}

// Categories lists the drink categories in menu order.
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": menu.Categories()})
}

// CreateCart opens an empty cart.
func (h *Handler) CreateCart(w http.ResponseWriter, _ *http.Request) {
	if !h.configured(w) {
		return
	}
	cv, err := h.Svc.Cart(h.Svc.OpenCart())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": cv})
}

// GetCart returns the cart contents.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	cv, err := h.Svc.Cart(id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cv})
}

// CloseCart discards a cart.
func (h *Handler) CloseCart(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Svc.CloseCart(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem appends a drink line. Quantity defaults to one when omitted.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	payload := ItemInput{Quantity: 1}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	idx, cv, err := h.Svc.AddItem(id, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"index": idx, "cart": cv}})
}

// RemoveItem deletes the line at the given zero-based index.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "index must be an integer", nil)
		return
	}
	cv, err := h.Svc.RemoveItem(id, index)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cv})
}

// Quote previews totals and every promotion's evaluation.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	q, err := h.Svc.Quote(id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": q})
}

// Checkout finalizes the cart into an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	o, err := h.Svc.Checkout(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+o.ID.String())
	common.JSON(w, http.StatusCreated, map[string]any{"data": o})
}

// Orders lists finalized orders oldest first.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	page, perPage := common.ParsePagination(r, defaultOrdersPerPage)
	orders, total := h.Svc.Orders(common.Offset(page, perPage), perPage)
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": common.NewPagination(page, perPage, total),
	})
}

// Order returns one finalized order.
func (h *Handler) Order(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	o, err := h.Svc.Order(id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Receipt renders an order's receipt as plain text.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w) {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	text, err := h.Svc.Receipt(id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// RecentReceipts returns the newest stored receipts.
func (h *Handler) RecentReceipts(w http.ResponseWriter, r *http.Request) {
	if h.Recent == nil || h.Recent.Client == nil {
		common.JSONError(w, http.StatusNotFound, "RECEIPTS_NOT_STORED", "receipts are not kept in redis", nil)
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 10)
	if limit <= 0 || limit > common.MaxPerPage {
		limit = 10
	}
	texts, err := h.Recent.Recent(r.Context(), int64(limit))
	if err != nil {
		common.JSONError(w, http.StatusBadGateway, "RECEIPT_STORE_ERROR", "could not read receipts", nil)
		return
	}
	if texts == nil {
		texts = []string{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": texts})
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}
