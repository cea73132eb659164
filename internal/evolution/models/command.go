package models

import (
	id "evonft/pkg/domain"
)

// CommandKind names one of the closed set of mutating entry points.
type CommandKind string

const (
	CommandIssue          CommandKind = "issue"
	CommandRecordActivity CommandKind = "record_activity"
	CommandAcquireRare    CommandKind = "acquire_rare"
	CommandEvolveWithRare CommandKind = "evolve_with_rare"
)

// CommandKinds lists every kind in a stable order.
var CommandKinds = []CommandKind{
	CommandIssue,
	CommandRecordActivity,
	CommandAcquireRare,
	CommandEvolveWithRare,
}

func (k CommandKind) IsValid() bool {
	switch k {
	case CommandIssue, CommandRecordActivity, CommandAcquireRare, CommandEvolveWithRare:
		return true
	}
	return false
}

// Command is one mutating request. Amount is only read by CommandAcquireRare.
type Command struct {
	Kind   CommandKind `json:"kind" yaml:"op"`
	Caller id.OwnerID  `json:"caller" yaml:"caller"`
	Amount uint64      `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// Result is what a committed command produced. Fields that a kind does not
// touch are zero.
type Result struct {
	Kind     CommandKind `json:"kind"`
	Sequence uint64      `json:"sequence"`
	AssetID  id.AssetID  `json:"asset_id,omitempty"`
	Stage    Stage       `json:"stage,omitempty"`
	Balance  uint64      `json:"balance"`
}

// JournalEntry is a committed command and its result, in commit order.
// Replaying the commands of a journal in sequence order reproduces the state.
type JournalEntry struct {
	Sequence uint64      `json:"sequence"`
	Kind     CommandKind `json:"kind"`
	Caller   id.OwnerID  `json:"caller"`
	Amount   uint64      `json:"amount,omitempty"`
	AssetID  id.AssetID  `json:"asset_id,omitempty"`
	Stage    Stage       `json:"stage,omitempty"`
	Balance  uint64      `json:"balance"`
}

// Command returns the command that produced the entry.
func (e JournalEntry) Command() Command {
	return Command{Kind: e.Kind, Caller: e.Caller, Amount: e.Amount}
}
