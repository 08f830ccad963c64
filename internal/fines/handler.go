// internal/fines/handler.go
package fines

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleGetRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.service.DailyRate(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"daily_fine_amount": rate.StringFixed(2)})
}

func (h *Handler) HandleSetRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DailyFineAmount decimal.Decimal `json:"daily_fine_amount"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.SetDailyRate(r.Context(), req.DailyFineAmount); err != nil {
		if errors.Is(err, ErrInvalidRate) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
