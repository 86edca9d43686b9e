package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.ErrorContext(r.Context(), "Error writing error JSON response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Internal server error",
		slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "the requested resource could not be found"
	}
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP преобразует ошибки движка в HTTP-ответы.
// Порядок важен: конкретные ошибки проверяются раньше своих классов.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, repositories.ErrPlayerStatsNotFound):
		notFoundResponse(w, r, err.Error())

	// Таймер ещё не истёк: повторить позже
	case errors.Is(err, services.ErrTimerNotElapsed):
		errorResponse(w, r, http.StatusTooEarly, err.Error())
	case errors.Is(err, services.ErrPrecedenceViolation):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrTierExists),
		errors.Is(err, services.ErrReentrantCall):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrUnauthorized):
		forbiddenResponse(w, r, err.Error())

	case errors.Is(err, services.ErrValueMismatch),
		errors.Is(err, services.ErrIllegalMove),
		errors.Is(err, services.ErrInvalidTierConfig):
		badRequestResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}

// callerFromRequest достаёт адрес игрока; при ошибке ответ уже отправлен.
func callerFromRequest(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	caller, err := middleware.GetCallerFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return common.Address{}, false
	}
	return caller, true
}

func getUint8FromURL(r *http.Request, paramName string) (uint8, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}
	v, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, raw)
	}
	return uint8(v), nil
}

func getSlotFromURL(r *http.Request) (tierID, instanceID uint8, err error) {
	if tierID, err = getUint8FromURL(r, "tierID"); err != nil {
		return 0, 0, err
	}
	if instanceID, err = getUint8FromURL(r, "instanceID"); err != nil {
		return 0, 0, err
	}
	return tierID, instanceID, nil
}

func getMatchIDFromURL(r *http.Request) (common.Hash, error) {
	raw := chi.URLParam(r, "matchID")
	b, err := hexutil.Decode(raw)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid matchID: %q", raw)
	}
	return common.BytesToHash(b), nil
}

func getAddressFromURL(r *http.Request) (common.Address, error) {
	raw := chi.URLParam(r, "address")
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address: %q", raw)
	}
	return common.HexToAddress(raw), nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s query parameter", name)
	}
	return v, nil
}

// valueInput is the body of every paid operation: wei as a decimal string.
type valueInput struct {
	ValueWei string `json:"value_wei"`
}

func (in valueInput) amount() (*big.Int, error) {
	v, ok := new(big.Int).SetString(in.ValueWei, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("value_wei must be a non-negative decimal amount, got %q", in.ValueWei)
	}
	return v, nil
}
