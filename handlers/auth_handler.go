package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
)

const (
	defaultTokenTTL = 24 * time.Hour
	maxTokenTTL     = 30 * 24 * time.Hour
)

// AuthHandler выдаёт токены игрокам. Адрес подтверждает кошелёк-шлюз
// оператора, поэтому маршрут закрыт ключом оператора.
type AuthHandler struct {
	jwtSecret []byte
	clock     clockwork.Clock
}

func NewAuthHandler(jwtSecret string, clock clockwork.Clock) *AuthHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AuthHandler{jwtSecret: []byte(jwtSecret), clock: clock}
}

type tokenInput struct {
	Address string `json:"address"`
	TTL     string `json:"ttl,omitempty"`
}

// IssueTokenHandler обрабатывает POST /auth/tokens
func (h *AuthHandler) IssueTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input tokenInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !common.IsHexAddress(input.Address) {
		badRequestResponse(w, r, fmt.Errorf("address must be a hex address, got %q", input.Address))
		return
	}
	addr := common.HexToAddress(input.Address)
	if addr == (common.Address{}) {
		badRequestResponse(w, r, errors.New("address must not be zero"))
		return
	}

	ttl := defaultTokenTTL
	if input.TTL != "" {
		d, err := time.ParseDuration(input.TTL)
		if err != nil || d <= 0 || d > maxTokenTTL {
			badRequestResponse(w, r, fmt.Errorf("ttl must be a duration between 0 and %s", maxTokenTTL))
			return
		}
		ttl = d
	}

	now := h.clock.Now()
	token, err := middleware.IssueToken(h.jwtSecret, addr, ttl, now)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"token":      token,
		"address":    addr,
		"expires_at": now.Add(ttl).UTC(),
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
