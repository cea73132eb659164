package engine

import (
	"context"
	"strconv"

	"evonft/internal/evolution/models"
	dErrors "evonft/pkg/domain-errors"
	"evonft/pkg/platform/audit"
	"evonft/pkg/requestcontext"
)

// committed runs the post-commit side effects. None of them can fail the
// command: the ledger already holds the result.
func (e *Engine) committed(ctx context.Context, cmd models.Command, out outcome) {
	for _, event := range committedEvents(cmd, out) {
		e.logAudit(ctx, event)
	}
	e.recordMetrics(cmd, out)

	if e.mirror != nil {
		if err := e.mirror.Mirror(ctx, out.entry); err != nil && e.logger != nil {
			e.logger.WarnContext(ctx, "journal mirror failed",
				"sequence", out.entry.Sequence,
				"error", err,
			)
		}
	}
}

func (e *Engine) rejected(ctx context.Context, cmd models.Command, err error) {
	code := dErrors.CodeOf(err)
	if e.metrics != nil {
		e.metrics.IncrementFailure(string(cmd.Kind), string(code))
	}
	if code == dErrors.CodeInternal || code == dErrors.CodeTimeout {
		if e.logger != nil {
			e.logger.ErrorContext(ctx, "command failed",
				"kind", cmd.Kind,
				"caller", cmd.Caller,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return
	}
	e.logAudit(ctx, audit.Event{
		Subject: cmd.Caller,
		Action:  string(audit.EventCommandRejected),
		Amount:  cmd.Amount,
		Reason:  string(cmd.Kind) + ":" + string(code),
	})
}

func committedEvents(cmd models.Command, out outcome) []audit.Event {
	base := audit.Event{
		Subject:  cmd.Caller,
		AssetID:  out.result.AssetID,
		Stage:    uint8(out.result.Stage),
		Balance:  out.result.Balance,
		Sequence: out.result.Sequence,
	}
	with := func(action audit.AuditEvent, amount uint64, reason string) audit.Event {
		ev := base
		ev.Action = string(action)
		ev.Amount = amount
		ev.Reason = reason
		return ev
	}

	var events []audit.Event
	switch cmd.Kind {
	case models.CommandIssue:
		events = append(events, with(audit.EventAssetIssued, 0, ""))
	case models.CommandRecordActivity:
		events = append(events, with(audit.EventActivityRecorded, 0, ""))
	case models.CommandAcquireRare:
		events = append(events, with(audit.EventRareAcquired, cmd.Amount, ""))
	case models.CommandEvolveWithRare:
		events = append(events, with(audit.EventRareBurned, 1, ""))
	}
	if out.transition != nil && out.transition.Advanced() {
		events = append(events, with(audit.EventStageAdvanced, 0, out.cause))
	}
	return events
}

func (e *Engine) recordMetrics(cmd models.Command, out outcome) {
	if e.metrics == nil {
		return
	}
	switch cmd.Kind {
	case models.CommandIssue:
		e.metrics.AssetsIssued.Inc()
	case models.CommandRecordActivity:
		e.metrics.ActivityRecorded.Inc()
	case models.CommandAcquireRare:
		e.metrics.RareAcquired.Add(float64(cmd.Amount))
	case models.CommandEvolveWithRare:
		e.metrics.RareBurned.Inc()
	}
	if out.transition != nil && out.transition.Advanced() {
		e.metrics.IncrementStageTransition(out.cause, strconv.Itoa(int(out.transition.To)))
	}
}

// logAudit writes the event to the structured log and, when configured, the
// audit publisher. Publisher errors are logged and dropped.
func (e *Engine) logAudit(ctx context.Context, event audit.Event) {
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if e.logger != nil {
		e.logger.InfoContext(ctx, event.Action,
			"log_type", "audit",
			"owner", event.Subject,
			"asset_id", event.AssetID,
			"stage", event.Stage,
			"amount", event.Amount,
			"balance", event.Balance,
			"sequence", event.Sequence,
			"reason", event.Reason,
			"request_id", event.RequestID,
		)
	}
	if e.auditPublisher == nil {
		return
	}
	if err := e.auditPublisher.Emit(ctx, event); err != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
