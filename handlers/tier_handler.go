package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/services"
)

type TierHandler struct {
	tierService services.TierService
}

func NewTierHandler(ts services.TierService) *TierHandler {
	return &TierHandler{tierService: ts}
}

// RegisterHandler обрабатывает POST /tiers (только оператор)
func (h *TierHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var input models.TierSpec
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	cfg, err := input.Config()
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tierService.RegisterTier(r.Context(), cfg); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	tier, err := h.tierService.GetTier(r.Context(), cfg.TierID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tier": tier}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /tiers
func (h *TierHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.tierService.ListTiers(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tiers": tiers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler обрабатывает GET /tiers/{tierID}
func (h *TierHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	tierID, err := getUint8FromURL(r, "tierID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tier, err := h.tierService.GetTier(r.Context(), tierID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tier": tier}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
