package inventory

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meditrack/meditrack-backend/internal/apperror"
)

// Handler exposes inventory HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Post("/items", h.createItem)                     // POST   /api/v1/inventory/items
		r.Get("/items", h.listItems)                       // GET    /api/v1/inventory/items
		r.Get("/items/low-stock", h.lowStock)              // GET    /api/v1/inventory/items/low-stock
		r.Get("/items/out-of-stock", h.outOfStock)         // GET    /api/v1/inventory/items/out-of-stock
		r.Get("/items/search", h.search)                   // GET    /api/v1/inventory/items/search?q=
		r.Get("/items/barcode/{barcode}", h.getByBarcode)  // GET    /api/v1/inventory/items/barcode/{barcode}
		r.Get("/items/{id}", h.getItem)                    // GET    /api/v1/inventory/items/{id}
		r.Patch("/items/{id}", h.updateItem)               // PATCH  /api/v1/inventory/items/{id}
		r.Delete("/items/{id}", h.deleteItem)              // DELETE /api/v1/inventory/items/{id}
		r.Post("/items/{id}/restore", h.restoreItem)       // POST   /api/v1/inventory/items/{id}/restore
		r.Delete("/items/{id}/purge", h.purgeItem)         // DELETE /api/v1/inventory/items/{id}/purge

		r.Put("/items/{id}/stock", h.setStock)             // PUT    /api/v1/inventory/items/{id}/stock
		r.Post("/items/{id}/stock/adjust", h.adjustStock)  // POST   /api/v1/inventory/items/{id}/stock/adjust

		r.Get("/items/{id}/barcodes", h.listBarcodes)      // GET    /api/v1/inventory/items/{id}/barcodes
		r.Post("/items/{id}/barcodes", h.addBarcode)       // POST   /api/v1/inventory/items/{id}/barcodes
		r.Post("/items/{id}/barcodes/{barcodeId}/primary", h.setPrimaryBarcode)
		r.Patch("/barcodes/{barcodeId}", h.updateBarcode)  // PATCH  /api/v1/inventory/barcodes/{barcodeId}
		r.Delete("/barcodes/{barcodeId}", h.removeBarcode) // DELETE /api/v1/inventory/barcodes/{barcodeId}

		r.Get("/items/{id}/stock-history", h.stockHistory)
		r.Get("/items/{id}/stock-history/latest", h.latestStockEntry)
		r.Get("/items/{id}/stock-history/statistics", h.stockHistoryStatistics)
		r.Get("/items/{id}/price-history", h.priceHistory)

		r.Get("/statistics", h.statistics)                 // GET    /api/v1/inventory/statistics
	})
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errorBody(err))
		return
	}
	view, err := h.service.CreateItem(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, view)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, view)
}

func (h *Handler) getByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := chi.URLParam(r, "barcode")
	view, err := h.service.GetItemByBarcode(r.Context(), barcode)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, view)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errorBody(err))
		return
	}
	medicine, err := h.service.UpdateItem(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, medicine)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "item deleted"})
}

func (h *Handler) restoreItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	view, err := h.service.RestoreItem(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, view)
}

func (h *Handler) purgeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.PurgeItem(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "item purged"})
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errorBody(err))
		return
	}
	stock, err := h.service.SetStock(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, stock)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req AdjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errorBody(err))
		return
	}
	stock, err := h.service.AdjustStock(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, stock)
}

func (h *Handler) listBarcodes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	barcodes, err := h.service.ListBarcodes(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, barcodes)
}

func (h *Handler) addBarcode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req BarcodeInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errorBody(err))
		return
	}
	barcode, err := h.service.AddBarcode(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, barcode)
}

func (h *Handler) updateBarcode(w http.ResponseWriter, r *http.Request) {
	barcodeID, ok := pathID(w, r, "barcodeId")
	if !ok {
		return
	}
	var req UpdateBarcodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, errorBody(err))
		return
	}
	barcode, err := h.service.UpdateBarcode(r.Context(), barcodeID, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, barcode)
}

func (h *Handler) removeBarcode(w http.ResponseWriter, r *http.Request) {
	barcodeID, ok := pathID(w, r, "barcodeId")
	if !ok {
		return
	}
	if err := h.service.RemoveBarcode(r.Context(), barcodeID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "barcode removed"})
}

func (h *Handler) setPrimaryBarcode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	barcodeID, ok := pathID(w, r, "barcodeId")
	if !ok {
		return
	}
	if err := h.service.SetPrimaryBarcode(r.Context(), id, barcodeID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "primary barcode set"})
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListActive(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, views)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.LowStock(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, views)
}

func (h *Handler) outOfStock(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.OutOfStock(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, views)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		respond(w, http.StatusBadRequest, map[string]string{"error": "query parameter q is required"})
		return
	}
	views, err := h.service.Search(r.Context(), term)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, views)
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStatistics(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, stats)
}

func (h *Handler) stockHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.service.StockHistory(r.Context(), id, queryLimit(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, entries)
}

func (h *Handler) latestStockEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entry, err := h.service.LatestStockEntry(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if entry == nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "no stock history recorded for this item"})
		return
	}
	respond(w, http.StatusOK, entry)
}

func (h *Handler) stockHistoryStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stats, err := h.service.StockHistoryStatistics(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, stats)
}

func (h *Handler) priceHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.service.PriceHistory(r.Context(), id, queryLimit(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, entries)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name + ": must be a uuid"})
		return uuid.Nil, false
	}
	return id, true
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func statusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindInvalidOperation:
		return http.StatusUnprocessableEntity
	case apperror.KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, statusFor(err), map[string]string{"error": apperror.MessageOf(err)})
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
