// Package handler exposes the evolution engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"evonft/internal/evolution/metadata"
	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
	dErrors "evonft/pkg/domain-errors"
	audit "evonft/pkg/platform/audit"
	"evonft/pkg/platform/httputil"
	"evonft/pkg/platform/middleware/auth"
	"evonft/pkg/platform/middleware/request"
	"evonft/pkg/requestcontext"
)

// Ledger is the engine surface the handlers use.
type Ledger interface {
	Apply(ctx context.Context, cmd models.Command) (models.Result, error)
	GetAsset(ctx context.Context, assetID id.AssetID) (*models.Asset, error)
	GetOwnedAsset(ctx context.Context, identity id.OwnerID) (id.AssetID, error)
	GetStage(ctx context.Context, assetID id.AssetID) (models.Stage, error)
	GetTokenURI(ctx context.Context, assetID id.AssetID) (string, error)
	RareBalance(ctx context.Context, owner id.OwnerID) (uint64, error)
	Journal(ctx context.Context, from uint64, limit int) ([]models.JournalEntry, error)
	Digest(ctx context.Context) (string, error)
}

// Handler serves the ledger entry points. Mutations act for the caller
// identity the auth middleware put in the context.
type Handler struct {
	ledger    Ledger
	validator auth.CallerValidator
	logger    *slog.Logger
	auditLog  audit.Reader
}

type Option func(*Handler)

// WithAuditLog mounts GET /audit over the given reader.
func WithAuditLog(reader audit.Reader) Option {
	return func(h *Handler) {
		h.auditLog = reader
	}
}

func New(ledger Ledger, validator auth.CallerValidator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{ledger: ledger, validator: validator, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireCaller(h.validator, h.logger))
		r.Post("/assets", h.handleIssue)
		r.Post("/assets/activity", h.handleRecordActivity)
		r.Post("/assets/evolve", h.handleEvolve)
		r.Post("/rare/acquire", h.handleAcquireRare)
	})

	r.Get("/assets/{id}", h.handleGetAsset)
	r.Get("/assets/{id}/stage", h.handleGetStage)
	r.Get("/assets/{id}/token-uri", h.handleGetTokenURI)
	r.Get("/owners/{owner}/asset", h.handleGetOwnedAsset)
	r.Get("/owners/{owner}/rare", h.handleGetRareBalance)
	r.Get("/journal", h.handleJournal)
	r.Get("/state/digest", h.handleDigest)
	if h.auditLog != nil {
		r.Get("/audit", h.handleAudit)
	}
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	res, ok := h.apply(w, r, models.Command{Kind: models.CommandIssue})
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, AssetResponse{ID: res.AssetID, Stage: res.Stage})
}

func (h *Handler) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	res, ok := h.apply(w, r, models.Command{Kind: models.CommandRecordActivity})
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StageResponse{AssetID: res.AssetID, Stage: res.Stage})
}

func (h *Handler) handleEvolve(w http.ResponseWriter, r *http.Request) {
	res, ok := h.apply(w, r, models.Command{Kind: models.CommandEvolveWithRare})
	if !ok {
		return
	}
	balance := res.Balance
	httputil.WriteJSON(w, http.StatusOK, AssetResponse{ID: res.AssetID, Stage: res.Stage, Balance: &balance})
}

func (h *Handler) handleAcquireRare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[AcquireRareRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	res, ok := h.apply(w, r, models.Command{Kind: models.CommandAcquireRare, Amount: req.Value()})
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Owner: requestcontext.Caller(ctx), Balance: res.Balance})
}

// apply fills the caller from context and runs cmd, writing the error
// response on failure.
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, cmd models.Command) (models.Result, bool) {
	ctx := r.Context()
	cmd.Caller = requestcontext.Caller(ctx)
	if cmd.Caller.IsNil() {
		h.logger.ErrorContext(ctx, "caller missing from context despite auth middleware",
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return models.Result{}, false
	}
	res, err := h.ledger.Apply(ctx, cmd)
	if err != nil {
		h.writeError(ctx, w, err)
		return models.Result{}, false
	}
	return res, true
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	asset, err := h.ledger.GetAsset(ctx, assetID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	uri, err := metadata.RenderURI(asset.Stage)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	activity := asset.Activity
	httputil.WriteJSON(w, http.StatusOK, AssetResponse{
		ID:       asset.ID,
		Owner:    asset.Owner,
		Stage:    asset.Stage,
		Activity: &activity,
		TokenURI: uri,
	})
}

func (h *Handler) handleGetStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	stage, err := h.ledger.GetStage(ctx, assetID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StageResponse{AssetID: assetID, Stage: stage})
}

func (h *Handler) handleGetTokenURI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID, ok := h.assetIDParam(w, r)
	if !ok {
		return
	}
	uri, err := h.ledger.GetTokenURI(ctx, assetID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TokenURIResponse{AssetID: assetID, TokenURI: uri})
}

func (h *Handler) handleGetOwnedAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.ownerParam(w, r)
	if !ok {
		return
	}
	assetID, err := h.ledger.GetOwnedAsset(ctx, owner)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OwnerAssetResponse{Owner: owner, AssetID: assetID})
}

func (h *Handler) handleGetRareBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, ok := h.ownerParam(w, r)
	if !ok {
		return
	}
	balance, err := h.ledger.RareBalance(ctx, owner)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Owner: owner, Balance: balance})
}

func (h *Handler) handleJournal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	from, err := uintQuery(r, "from", 1)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	limit, err := pageLimit(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	entries, err := h.ledger.Journal(ctx, from, limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	resp := JournalResponse{Entries: entries}
	if len(entries) == limit {
		resp.Next = entries[len(entries)-1].Sequence + 1
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := pageLimit(r)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	var events []audit.Event
	if raw := r.URL.Query().Get("owner"); raw != "" {
		owner, err := id.ParseOwnerID(raw)
		if err != nil {
			h.writeError(ctx, w, err)
			return
		}
		events, err = h.auditLog.ListBySubject(ctx, owner)
		if err != nil {
			h.writeError(ctx, w, err)
			return
		}
		events = events[max(len(events)-limit, 0):]
	} else {
		events, err = h.auditLog.ListRecent(ctx, limit)
		if err != nil {
			h.writeError(ctx, w, err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, newAuditResponse(events))
}

func (h *Handler) handleDigest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	digest, err := h.ledger.Digest(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DigestResponse{Digest: digest})
}

func (h *Handler) assetIDParam(w http.ResponseWriter, r *http.Request) (id.AssetID, bool) {
	assetID, err := id.ParseAssetID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return 0, false
	}
	return assetID, true
}

func (h *Handler) ownerParam(w http.ResponseWriter, r *http.Request) (id.OwnerID, bool) {
	owner, err := id.ParseOwnerID(chi.URLParam(r, "owner"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return "", false
	}
	return owner, true
}

func uintQuery(r *http.Request, name string, fallback uint64) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, name+" must be a non-negative integer")
	}
	return n, nil
}

const maxPageLimit = 1000

func pageLimit(r *http.Request) (int, error) {
	limit, err := uintQuery(r, "limit", 100)
	if err != nil {
		return 0, err
	}
	if limit == 0 || limit > maxPageLimit {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 1000")
	}
	return int(limit), nil
}

// writeError logs at a level that matches the failure: ledger rejections
// are routine, anything uncoded is a server fault.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	requestID := request.GetRequestID(ctx)
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed", "request_id", requestID, "error", err)
	} else {
		h.logger.DebugContext(ctx, "request rejected", "request_id", requestID, "error", err)
	}
	httputil.WriteError(w, err)
}
