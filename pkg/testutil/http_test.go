package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "evonft/pkg/domain-errors"
	"evonft/pkg/platform/httputil"
)

func TestAssertLedgerError_MatchesWriteError(t *testing.T) {
	for _, tt := range []struct {
		err    error
		status int
		code   string
	}{
		{dErrors.New(dErrors.CodeInvalidAmount, "amount must be a whole number"), http.StatusBadRequest, "invalid_amount"},
		{dErrors.New(dErrors.CodeMaxStageReached, "asset is final"), http.StatusConflict, "max_stage_reached"},
		{dErrors.New(dErrors.CodeInternal, "disk on fire"), http.StatusInternalServerError, "internal_error"},
	} {
		t.Run(tt.code, func(t *testing.T) {
			rr := httptest.NewRecorder()
			httputil.WriteError(rr, tt.err)
			AssertLedgerError(t, rr, tt.status, tt.code)
		})
	}
}

func TestDecodeJSON_LeavesBodyReadable(t *testing.T) {
	rr := httptest.NewRecorder()
	httputil.WriteJSON(rr, http.StatusOK, map[string]any{"stage": 2, "owner": "alice"})

	AssertJSONField(t, rr, "stage", float64(2))
	AssertJSONField(t, rr, "owner", "alice")
	decoded := DecodeJSON[struct {
		Stage uint8 `json:"stage"`
	}](t, rr)
	assert.Equal(t, uint8(2), decoded.Stage)
}

func TestNewJSONRequest(t *testing.T) {
	req := NewJSONRequest(t, http.MethodPost, "/rare/acquire", map[string]int{"amount": 3})
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	var got map[string]int
	require.NoError(t, decodeRequest(req, &got))
	assert.Equal(t, 3, got["amount"])

	empty := NewJSONRequest(t, http.MethodPost, "/assets", nil)
	assert.Zero(t, empty.ContentLength)

	assert.Equal(t, "Bearer tok", WithBearer(NewRequest(t, http.MethodGet, "/metrics"), "tok").Header.Get("Authorization"))
}

func decodeRequest(req *http.Request, v any) error {
	return json.NewDecoder(req.Body).Decode(v)
}
