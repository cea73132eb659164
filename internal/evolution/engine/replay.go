package engine

import (
	"context"
	"fmt"

	"evonft/internal/evolution/models"
	dErrors "evonft/pkg/domain-errors"
)

// Step is the outcome of one replayed command.
type Step struct {
	Command models.Command
	Result  models.Result
	Err     error
}

// Replay applies cmds in order to a fresh in-memory engine. Rejected commands
// are recorded in their Step and replay continues, as it would live; only
// infrastructure failures abort.
func Replay(ctx context.Context, cmds []models.Command, opts ...Option) (*Engine, []Step, error) {
	e, err := NewInMemory(opts...)
	if err != nil {
		return nil, nil, err
	}
	steps := make([]Step, 0, len(cmds))
	for _, cmd := range cmds {
		res, err := e.Apply(ctx, cmd)
		if err != nil && isInfrastructure(err) {
			return nil, steps, err
		}
		steps = append(steps, Step{Command: cmd, Result: res, Err: err})
	}
	return e, steps, nil
}

// Verify replays the engine's own journal into a fresh engine and checks
// that every entry reproduces its recorded result and the final digests
// match. Mutations committed while Verify runs show up as a digest mismatch.
func (e *Engine) Verify(ctx context.Context) (string, error) {
	fresh, err := NewInMemory()
	if err != nil {
		return "", err
	}

	from := uint64(1)
	for {
		entries, err := e.Journal(ctx, from, MaxJournalPage)
		if err != nil {
			return "", err
		}
		for _, entry := range entries {
			res, err := fresh.Apply(ctx, entry.Command())
			if err != nil {
				return "", dErrors.Wrap(err, dErrors.CodeInvariantViolation,
					fmt.Sprintf("journal entry %d does not replay", entry.Sequence))
			}
			if res.Sequence != entry.Sequence || res.AssetID != entry.AssetID ||
				res.Stage != entry.Stage || res.Balance != entry.Balance {
				return "", dErrors.New(dErrors.CodeInvariantViolation,
					fmt.Sprintf("journal entry %d replays to a different result", entry.Sequence))
			}
		}
		if len(entries) < MaxJournalPage {
			break
		}
		from = entries[len(entries)-1].Sequence + 1
	}

	want, err := e.Digest(ctx)
	if err != nil {
		return "", err
	}
	got, err := fresh.Digest(ctx)
	if err != nil {
		return "", err
	}
	if got != want {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "replayed state digest differs from live state")
	}
	return want, nil
}

func isInfrastructure(err error) bool {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeTimeout:
		return true
	}
	return false
}
