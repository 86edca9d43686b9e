package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
)

type PlayerHandler struct {
	views   services.ViewService
	raffle  services.RaffleService
	history services.HistoryService
}

func NewPlayerHandler(views services.ViewService, raffle services.RaffleService, history services.HistoryService) *PlayerHandler {
	return &PlayerHandler{views: views, raffle: raffle, history: history}
}

// GetHandler обрабатывает GET /players/{address}
func (h *PlayerHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	addr, err := getAddressFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.views.GetPlayer(r.Context(), addr)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordsHandler обрабатывает GET /players/{address}/records?limit=
// Без журнала отдаёт записи из памяти движка.
func (h *PlayerHandler) RecordsHandler(w http.ResponseWriter, r *http.Request) {
	addr, err := getAddressFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if h.history == nil {
		view, err := h.views.GetPlayer(r.Context(), addr)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		recs := view.Records
		if limit > 0 && len(recs) > limit {
			recs = recs[len(recs)-limit:]
		}
		if err := writeJSON(w, http.StatusOK, jsonResponse{"records": recs}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	recs, err := h.history.PlayerRecords(r.Context(), addr, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"records": recs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PayoutsHandler обрабатывает GET /players/{address}/payouts
func (h *PlayerHandler) PayoutsHandler(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		notFoundResponse(w, r, "payout history is not available")
		return
	}
	addr, err := getAddressFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	payouts, err := h.history.PlayerPayouts(r.Context(), addr)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"payouts": payouts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// BalanceHandler обрабатывает GET /players/{address}/balance
func (h *PlayerHandler) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	addr, err := getAddressFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	balance, err := h.views.GetBalance(r.Context(), addr)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"address": addr, "balance": balance}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LeaderboardHandler обрабатывает GET /leaderboard
func (h *PlayerHandler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	board, err := h.views.GetLeaderboard(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RaffleHandler обрабатывает GET /raffle
func (h *PlayerHandler) RaffleHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.views.GetRaffle(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"raffle": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RaffleHistoryHandler обрабатывает GET /raffle/history
func (h *PlayerHandler) RaffleHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		notFoundResponse(w, r, "raffle history is not available")
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	evs, err := h.history.RaffleEvents(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": evs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExecuteRaffleHandler обрабатывает POST /raffle/execute
func (h *PlayerHandler) ExecuteRaffleHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	if err := h.raffle.ExecuteRaffle(r.Context(), caller); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.RaffleHandler(w, r)
}
