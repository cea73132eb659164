package models

import (
	"fmt"
	"strconv"

	dErrors "evonft/pkg/domain-errors"
)

// Stage is the progression level of an asset, 1 (initial) through 3 (final).
type Stage uint8

const (
	StageInitial      Stage = 1
	StageIntermediate Stage = 2
	StageFinal        Stage = 3

	MinStage = StageInitial
	MaxStage = StageFinal
)

// Activity thresholds are inclusive lower bounds.
const (
	IntermediateActivityThreshold uint64 = 3
	FinalActivityThreshold        uint64 = 10
)

// StageForActivity maps an activity count onto the stage it justifies:
// [0,3) -> 1, [3,10) -> 2, [10,inf) -> 3.
func StageForActivity(count uint64) Stage {
	switch {
	case count >= FinalActivityThreshold:
		return StageFinal
	case count >= IntermediateActivityThreshold:
		return StageIntermediate
	default:
		return StageInitial
	}
}

// ParseStage validates a stage taken from an untrusted source.
func ParseStage(s string) (Stage, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || !Stage(n).IsValid() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("stage must be between %d and %d", MinStage, MaxStage))
	}
	return Stage(n), nil
}

func (s Stage) IsValid() bool {
	return s >= MinStage && s <= MaxStage
}

// IsFinal reports whether no further evolution is possible.
func (s Stage) IsFinal() bool {
	return s >= MaxStage
}

// Next returns the following stage, saturating at MaxStage.
func (s Stage) Next() Stage {
	if s >= MaxStage {
		return MaxStage
	}
	return s + 1
}

// Name is the display name used in metadata.
func (s Stage) Name() string {
	switch s {
	case StageInitial:
		return "Hatchling"
	case StageIntermediate:
		return "Fledgling"
	case StageFinal:
		return "Ascendant"
	default:
		return "Unknown"
	}
}

func (s Stage) String() string {
	return strconv.Itoa(int(s))
}
