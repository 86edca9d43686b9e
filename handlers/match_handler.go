package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
	"github.com/ethereum/go-ethereum/common"
)

type MatchHandler struct {
	engine services.TournamentEngine
}

func NewMatchHandler(engine services.TournamentEngine) *MatchHandler {
	return &MatchHandler{engine: engine}
}

type moveInput struct {
	Move json.RawMessage `json:"move"`
}

// GetHandler обрабатывает GET /matches/{matchID}
func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.engine.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StalledHandler обрабатывает GET /matches/stalled
func (h *MatchHandler) StalledHandler(w http.ResponseWriter, r *http.Request) {
	views, err := h.engine.ListStalledMatches(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": views}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MoveHandler обрабатывает POST /matches/{matchID}/moves
func (h *MatchHandler) MoveHandler(w http.ResponseWriter, r *http.Request) {
	var input moveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.Move) == 0 {
		badRequestResponse(w, r, errors.New("move is required"))
		return
	}
	h.matchAction(w, r, func(ctx context.Context, caller common.Address, id common.Hash) error {
		return h.engine.SubmitMove(ctx, caller, id, input.Move)
	})
}

// ReportHandler обрабатывает POST /matches/{matchID}/report. Вызвать может кто угодно.
func (h *MatchHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.engine.ReportMatchResult(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondMatch(w, r, matchID)
}

// ClaimTimeoutHandler обрабатывает POST .../claim-timeout (ML1)
func (h *MatchHandler) ClaimTimeoutHandler(w http.ResponseWriter, r *http.Request) {
	h.matchAction(w, r, h.engine.ClaimTimeoutWin)
}

// ForceEliminateHandler обрабатывает POST .../force-eliminate (ML2)
func (h *MatchHandler) ForceEliminateHandler(w http.ResponseWriter, r *http.Request) {
	h.matchAction(w, r, h.engine.ForceEliminateStalledMatch)
}

// ClaimSlotHandler обрабатывает POST .../claim-slot (ML3)
func (h *MatchHandler) ClaimSlotHandler(w http.ResponseWriter, r *http.Request) {
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
	h.matchAction(w, r, func(ctx context.Context, caller common.Address, id common.Hash) error {
		return h.engine.ClaimStalledSlot(ctx, caller, id, value)
	})
}

func (h *MatchHandler) matchAction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, caller common.Address, id common.Hash) error) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	matchID, err := getMatchIDFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := op(r.Context(), caller, matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondMatch(w, r, matchID)
}

// respondMatch отвечает видом матча. После финала слот сбрасывается и
// матча уже нет: тогда отвечаем только id.
func (h *MatchHandler) respondMatch(w http.ResponseWriter, r *http.Request, matchID common.Hash) {
	view, err := h.engine.GetMatch(r.Context(), matchID)
	if errors.Is(err, services.ErrNotFound) {
		if err := writeJSON(w, http.StatusOK, jsonResponse{"match_id": matchID, "settled": true}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
