// internal/reminders/handler.go
package reminders

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler exposes the sweeps to the external scheduler.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the sweep trigger endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sweeps/due-soon", h.handleDueSoon)
	r.Post("/sweeps/overdue-fines", h.handleOverdueFines)
}

func (h *Handler) handleDueSoon(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.service.RunDueSoonSweep(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcomes)
}

func (h *Handler) handleOverdueFines(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomRate *decimal.Decimal `json:"custom_rate,omitempty"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	outcomes, err := h.service.RunOverdueFineSweep(r.Context(), req.CustomRate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcomes)
}
