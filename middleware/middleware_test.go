package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var secret = []byte("test-secret")

func echoCaller(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, err := GetCallerFromContext(r.Context())
		require.NoError(t, err)
		_, _ = io.WriteString(w, addr.Hex())
	})
}

func TestAuthenticate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Authenticate(secret, logger)(echoCaller(t))
	player := common.HexToAddress("0x00000000000000000000000000000000000000a1")

	valid, err := IssueToken(secret, player, time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := IssueToken(secret, player, time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	foreign, err := IssueToken([]byte("other"), player, time.Hour, time.Now())
	require.NoError(t, err)
	zero, err := IssueToken(secret, common.Address{}, time.Hour, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"foreign secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"zero address", "Bearer " + zero, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, player.Hex(), rr.Body.String())
			}
		})
	}
}

func TestRequireOperatorKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("operator"), bcrypt.MinCost)
	require.NoError(t, err)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	call := func(h http.Handler, key string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if key != "" {
			req.Header.Set(OperatorKeyHeader, key)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	guarded := RequireOperatorKey(string(hash))(ok)
	assert.Equal(t, http.StatusNoContent, call(guarded, "operator"))
	assert.Equal(t, http.StatusForbidden, call(guarded, "guess"))
	assert.Equal(t, http.StatusForbidden, call(guarded, ""))
	assert.Equal(t, http.StatusForbidden, call(RequireOperatorKey("")(ok), "operator"))
}

func TestGetCallerFromContextWithoutClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetCallerFromContext(req.Context())
	assert.Error(t, err)

	addr := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	got, err := GetCallerFromContext(WithCaller(req.Context(), addr))
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

func TestHashOperatorKey(t *testing.T) {
	hash, err := HashOperatorKey("rotate-me")
	require.NoError(t, err)
	assert.True(t, CheckOperatorKey("rotate-me", hash))
	assert.False(t, CheckOperatorKey("rotate-you", hash))

	_, err = HashOperatorKey("")
	assert.Error(t, err)
}
