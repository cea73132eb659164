package audit

import (
	"context"
	"time"

	id "evonft/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryLedger covers events that change balances or ownership:
	// issuance, acquisition, burn. These are never sampled.
	CategoryLedger EventCategory = "ledger"

	// CategoryProgression covers stage transitions and activity accounting.
	CategoryProgression EventCategory = "progression"

	// CategoryRejection covers commands refused by an invariant check.
	CategoryRejection EventCategory = "rejection"
)

// Event is emitted after a command commits (or is rejected). Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Subject is the owner identity the command ran for.
	Subject id.OwnerID
	Action  string
	AssetID id.AssetID
	Stage   uint8
	Amount  uint64
	Balance uint64
	// Sequence is the journal sequence of the committed command; zero for rejections.
	Sequence  uint64
	Reason    string
	RequestID string
}

type AuditEvent string

const (
	EventAssetIssued      AuditEvent = "asset_issued"
	EventActivityRecorded AuditEvent = "activity_recorded"
	EventStageAdvanced    AuditEvent = "stage_advanced"
	EventRareAcquired     AuditEvent = "rare_acquired"
	EventRareBurned       AuditEvent = "rare_burned"
	EventCommandRejected  AuditEvent = "command_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAssetIssued:      CategoryLedger,
	EventRareAcquired:     CategoryLedger,
	EventRareBurned:       CategoryLedger,
	EventActivityRecorded: CategoryProgression,
	EventStageAdvanced:    CategoryProgression,
	EventCommandRejected:  CategoryRejection,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryProgression.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryProgression
}

// Store persists audit events. It is append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject id.OwnerID) ([]Event, error)
}

// Reader serves the audit trail back to operators, oldest event first.
type Reader interface {
	ListBySubject(ctx context.Context, subject id.OwnerID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// OutboxRecord is an audit event waiting in a transactional outbox.
type OutboxRecord struct {
	ID    string
	Event Event
}
