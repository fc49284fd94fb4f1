package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"cashflow/internal/core"
	"cashflow/internal/log"
)

const maxBodyBytes = 1 << 16

// requestError is a malformed request rejected before reaching the ledger.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func unprocessable(format string, args ...any) error {
	return &requestError{status: http.StatusUnprocessableEntity, msg: fmt.Sprintf(format, args...)}
}

var validationErrors = []error{
	core.ErrInvalidAmount, core.ErrInvalidAccount, core.ErrInvalidDirection,
	core.ErrInvalidKind, core.ErrEmptyName, core.ErrInvalidDueDay,
	core.ErrInvalidSettings, core.ErrInvalidMonth, core.ErrInvalidText,
}

// statusFor maps a ledger error onto an HTTP status and the error category
// used in logs.
func statusFor(err error) (int, string) {
	var re *requestError
	if errors.As(err, &re) {
		return re.status, log.ErrorTypeValidation
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity, log.ErrorTypeValidation
		}
	}
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, log.ErrorTypeNotFound
	case errors.Is(err, core.ErrInsufficientFunds):
		return http.StatusConflict, log.ErrorTypeConflict
	}
	var se *core.StorageError
	if errors.As(err, &se) {
		return http.StatusInternalServerError, log.ErrorTypeDatabase
	}
	return http.StatusInternalServerError, log.ErrorTypeInternal
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as JSON. Server-side failures are logged in full
// and reported to the client without internals.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, errType := statusFor(err)
	logger := log.FromContext(r.Context())
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			log.NewFields().WithError(err).WithErrorType(errType).WithRequest(r.Method, r.URL.Path, r.URL.RawQuery).ToSlice()...)
		msg = "internal error"
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err.Error(), log.FieldErrorType, errType)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if dec.More() {
		return badRequest("invalid request body: trailing data")
	}
	return nil
}

// amountText accepts an amount as a JSON string ("12,34") or number (12.34)
// and keeps the literal text for core.ParseAmount.
type amountText string

func (a *amountText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountText(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	*a = amountText(b)
	return nil
}

func (a amountText) parse() (decimal.Decimal, error) {
	d, err := core.ParseAmount(string(a))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", err, string(a))
	}
	return d, nil
}

// parseRate reads a non-negative decimal such as a percentage or threshold.
// Zero is allowed here, unlike amounts.
func parseRate(field string, a amountText) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(string(a)), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q", core.ErrInvalidSettings, field, string(a))
	}
	return d, nil
}

func parseOptionalDate(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, unprocessable("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}
