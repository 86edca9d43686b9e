package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/tournament-engine/services"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
)

type InstanceHandler struct {
	engine  services.TournamentEngine
	history services.HistoryService
}

// NewInstanceHandler: history может быть nil, тогда журнал недоступен.
func NewInstanceHandler(engine services.TournamentEngine, history services.HistoryService) *InstanceHandler {
	return &InstanceHandler{engine: engine, history: history}
}

// ListHandler обрабатывает GET /tiers/{tierID}/instances
func (h *InstanceHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tierID, err := getUint8FromURL(r, "tierID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	instances, err := h.engine.ListInstances(r.Context(), tierID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"instances": instances}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler обрабатывает GET /tiers/{tierID}/instances/{instanceID}
func (h *InstanceHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	tierID, instanceID, err := getSlotFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.engine.GetInstance(r.Context(), tierID, instanceID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"instance": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// EnrollHandler обрабатывает POST /tiers/{tierID}/instances/{instanceID}/enroll
func (h *InstanceHandler) EnrollHandler(w http.ResponseWriter, r *http.Request) {
	var input valueInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	value, err := input.amount()
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.slotAction(w, r, http.StatusCreated, func(ctx context.Context, caller common.Address, tierID, instanceID uint8) error {
		return h.engine.Enroll(ctx, caller, tierID, instanceID, value)
	})
}

// ForceStartHandler обрабатывает POST .../force-start
func (h *InstanceHandler) ForceStartHandler(w http.ResponseWriter, r *http.Request) {
	h.slotAction(w, r, http.StatusOK, h.engine.ForceStart)
}

// ClaimAbandonedPoolHandler обрабатывает POST .../claim-abandoned
func (h *InstanceHandler) ClaimAbandonedPoolHandler(w http.ResponseWriter, r *http.Request) {
	h.slotAction(w, r, http.StatusOK, h.engine.ClaimAbandonedPool)
}

// ResetEnrollmentWindowHandler обрабатывает POST .../reset-window
func (h *InstanceHandler) ResetEnrollmentWindowHandler(w http.ResponseWriter, r *http.Request) {
	h.slotAction(w, r, http.StatusOK, h.engine.ResetEnrollmentWindow)
}

// slotAction выполняет операцию над слотом от имени игрока и отвечает его текущим видом.
func (h *InstanceHandler) slotAction(w http.ResponseWriter, r *http.Request, status int, op func(ctx context.Context, caller common.Address, tierID, instanceID uint8) error) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	tierID, instanceID, err := getSlotFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := op(r.Context(), caller, tierID, instanceID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	view, err := h.engine.GetInstance(r.Context(), tierID, instanceID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, status, jsonResponse{"instance": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// EventsHandler обрабатывает GET .../events?cycle=&limit=
func (h *InstanceHandler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		notFoundResponse(w, r, "event history is not available")
		return
	}
	tierID, instanceID, err := getSlotFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var cycle *uint64
	if raw := r.URL.Query().Get("cycle"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid cycle query parameter"))
			return
		}
		cycle = &v
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	evs, err := h.history.InstanceEvents(r.Context(), tierID, instanceID, cycle, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": evs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CycleHandler обрабатывает GET .../cycles/{cycle}
func (h *InstanceHandler) CycleHandler(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		notFoundResponse(w, r, "cycle history is not available")
		return
	}
	tierID, instanceID, err := getSlotFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	cycle, err := strconv.ParseUint(chi.URLParam(r, "cycle"), 10, 64)
	if err != nil {
		badRequestResponse(w, r, errors.New("invalid cycle in URL path"))
		return
	}

	hist, err := h.history.Cycle(r.Context(), tierID, instanceID, cycle)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"cycle": hist}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
