package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v4"
)

// Имена JWT claims
const (
	jwtClaimAddress = "address"
	jwtClaimExpires = "exp"
	jwtClaimIssued  = "iat"
)

// GetCallerFromContext возвращает адрес игрока из проверенного токена.
func GetCallerFromContext(ctx context.Context) (common.Address, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return common.Address{}, errors.New("caller claims not found in context or invalid type")
	}
	return callerFromClaims(claims)
}

func callerFromClaims(claims jwt.MapClaims) (common.Address, error) {
	raw, ok := claims[jwtClaimAddress]
	if !ok {
		return common.Address{}, fmt.Errorf("missing '%s' claim in token", jwtClaimAddress)
	}
	s, ok := raw.(string)
	if !ok {
		return common.Address{}, fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimAddress, raw)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid '%s' claim: %q is not a hex address", jwtClaimAddress, s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("invalid '%s' claim: zero address", jwtClaimAddress)
	}
	return addr, nil
}

// WithCaller puts addr into ctx the way Authenticate does.
func WithCaller(ctx context.Context, addr common.Address) context.Context {
	return context.WithValue(ctx, userContextKey, jwt.MapClaims{jwtClaimAddress: addr.Hex()})
}

// IssueToken signs an HS256 token for addr valid for ttl.
func IssueToken(secret []byte, addr common.Address, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		jwtClaimAddress: addr.Hex(),
		jwtClaimExpires: now.Add(ttl).Unix(),
		jwtClaimIssued:  now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
