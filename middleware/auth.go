package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const (
	userContextKey contextKey = "user"

	// OperatorKeyHeader carries the plain operator key checked against OPERATOR_KEY_HASH.
	OperatorKeyHeader = "X-Operator-Key"
)

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Authenticate проверяет Bearer токен и кладёт claims в контекст запроса.
func Authenticate(secret []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secret, nil
			})
			if err != nil {
				logger.DebugContext(r.Context(), "Token rejected", slog.Any("error", err))
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if _, err := callerFromClaims(claims); err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOperatorKey пропускает только запросы с ключом оператора.
// Пустой hash закрывает маршрут полностью.
func RequireOperatorKey(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				writeError(w, http.StatusForbidden, "operator access is not configured")
				return
			}
			key := r.Header.Get(OperatorKeyHeader)
			if key == "" || !CheckOperatorKey(key, hash) {
				writeError(w, http.StatusForbidden, "invalid operator key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func CheckOperatorKey(key, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
	return err == nil
}

// HashOperatorKey produces the value expected in OPERATOR_KEY_HASH.
func HashOperatorKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("operator key must not be empty")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(b), err
}
