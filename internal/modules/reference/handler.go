package reference

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meditrack/meditrack-backend/internal/apperror"
)

// Handler exposes reference data HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/reference", func(r chi.Router) {
		r.Post("/forms", h.createForm)            // POST   /api/v1/reference/forms
		r.Get("/forms", h.listForms)              // GET    /api/v1/reference/forms?active=true
		r.Get("/forms/code/{code}", h.getFormByCode)
		r.Get("/forms/{id}", h.getForm)           // GET    /api/v1/reference/forms/{id}
		r.Put("/forms/{id}", h.updateForm)        // PUT    /api/v1/reference/forms/{id}
		r.Delete("/forms/{id}", h.deleteForm)     // DELETE /api/v1/reference/forms/{id}

		r.Post("/manufacturers", h.createManufacturer)
		r.Get("/manufacturers", h.listManufacturers)
		r.Get("/manufacturers/search", h.searchManufacturers)
		r.Get("/manufacturers/{id}", h.getManufacturer)
		r.Put("/manufacturers/{id}", h.updateManufacturer)
		r.Delete("/manufacturers/{id}", h.deleteManufacturer)
	})
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	var req FormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	form, err := h.service.CreateForm(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, form)
}

func (h *Handler) getForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	form, err := h.service.GetForm(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, form)
}

func (h *Handler) getFormByCode(w http.ResponseWriter, r *http.Request) {
	form, err := h.service.GetFormByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, form)
}

func (h *Handler) updateForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req FormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	form, err := h.service.UpdateForm(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, form)
}

func (h *Handler) deleteForm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteForm(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "form deleted"})
}

func (h *Handler) listForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.service.ListForms(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, forms)
}

func (h *Handler) createManufacturer(w http.ResponseWriter, r *http.Request) {
	var req ManufacturerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	maker, err := h.service.CreateManufacturer(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, maker)
}

func (h *Handler) getManufacturer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	maker, err := h.service.GetManufacturer(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, maker)
}

func (h *Handler) updateManufacturer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ManufacturerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	maker, err := h.service.UpdateManufacturer(r.Context(), id, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, maker)
}

func (h *Handler) deleteManufacturer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteManufacturer(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "manufacturer deleted"})
}

func (h *Handler) listManufacturers(w http.ResponseWriter, r *http.Request) {
	makers, err := h.service.ListManufacturers(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, makers)
}

func (h *Handler) searchManufacturers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		respond(w, http.StatusBadRequest, map[string]string{"error": "query parameter q is required"})
		return
	}
	makers, err := h.service.SearchManufacturers(r.Context(), term)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, makers)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid id: must be a uuid"})
		return uuid.Nil, false
	}
	return id, true
}

func respondError(w http.ResponseWriter, err error) {
	var status int
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindConflict:
		status = http.StatusConflict
	case apperror.KindInvalidOperation:
		status = http.StatusUnprocessableEntity
	case apperror.KindBadRequest:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	respond(w, status, map[string]string{"error": apperror.MessageOf(err)})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
