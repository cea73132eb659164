package handler

import (
	"time"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
	audit "evonft/pkg/platform/audit"
)

type AssetResponse struct {
	ID       id.AssetID   `json:"asset_id"`
	Owner    id.OwnerID   `json:"owner,omitempty"`
	Stage    models.Stage `json:"stage"`
	Activity *uint64      `json:"activity,omitempty"`
	TokenURI string       `json:"token_uri,omitempty"`
	Balance  *uint64      `json:"balance,omitempty"`
}

type StageResponse struct {
	AssetID id.AssetID   `json:"asset_id"`
	Stage   models.Stage `json:"stage"`
}

type TokenURIResponse struct {
	AssetID  id.AssetID `json:"asset_id"`
	TokenURI string     `json:"token_uri"`
}

type OwnerAssetResponse struct {
	Owner   id.OwnerID `json:"owner"`
	AssetID id.AssetID `json:"asset_id"`
}

type BalanceResponse struct {
	Owner   id.OwnerID `json:"owner"`
	Balance uint64     `json:"balance"`
}

type JournalResponse struct {
	Entries []models.JournalEntry `json:"entries"`
	// Next is the sequence to request for the following page; zero when the
	// page was the last one.
	Next uint64 `json:"next,omitempty"`
}

type DigestResponse struct {
	Digest string `json:"digest"`
}

type AuditEventResponse struct {
	Category  audit.EventCategory `json:"category"`
	Action    string              `json:"action"`
	Owner     id.OwnerID          `json:"owner"`
	AssetID   id.AssetID          `json:"asset_id,omitempty"`
	Stage     uint8               `json:"stage,omitempty"`
	Amount    uint64              `json:"amount,omitempty"`
	Balance   uint64              `json:"balance,omitempty"`
	Sequence  uint64              `json:"sequence,omitempty"`
	Reason    string              `json:"reason,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type AuditResponse struct {
	Events []AuditEventResponse `json:"events"`
}

func newAuditResponse(events []audit.Event) AuditResponse {
	resp := AuditResponse{Events: make([]AuditEventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, AuditEventResponse{
			Category:  e.Category,
			Action:    e.Action,
			Owner:     e.Subject,
			AssetID:   e.AssetID,
			Stage:     e.Stage,
			Amount:    e.Amount,
			Balance:   e.Balance,
			Sequence:  e.Sequence,
			Reason:    e.Reason,
			RequestID: e.RequestID,
			Timestamp: e.Timestamp,
		})
	}
	return resp
}
