package handler

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	dErrors "evonft/pkg/domain-errors"
)

// AcquireRareRequest is the body of POST /rare/acquire. Amount is decoded as
// a raw number so negative and fractional values reach Validate and fail
// with invalid_amount instead of a decode error.
type AcquireRareRequest struct {
	Amount json.Number `json:"amount"`

	amount uint64
}

// Validate checks presence and sign. Zero passes through and is rejected by
// the ledger itself.
func (r *AcquireRareRequest) Validate() error {
	raw := strings.TrimSpace(r.Amount.String())
	if raw == "" {
		return dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	if strings.HasPrefix(raw, "-") {
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be positive")
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return dErrors.New(dErrors.CodeInvalidAmount, "amount is too large")
		}
		return dErrors.New(dErrors.CodeInvalidAmount, "amount must be a whole number")
	}
	r.amount = n
	return nil
}

// Value is the validated amount.
func (r *AcquireRareRequest) Value() uint64 {
	return r.amount
}
