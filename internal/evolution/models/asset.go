package models

import (
	id "evonft/pkg/domain"
)

// Asset is the evolving collectible record. Assets are created by issuance
// and never destroyed.
type Asset struct {
	ID       id.AssetID `json:"id"`
	Owner    id.OwnerID `json:"owner"`
	Stage    Stage      `json:"stage"`
	Activity uint64     `json:"activity"`
}

// NewAsset returns a freshly issued asset at the initial stage.
func NewAsset(assetID id.AssetID, owner id.OwnerID) *Asset {
	return &Asset{
		ID:       assetID,
		Owner:    owner,
		Stage:    StageInitial,
		Activity: 0,
	}
}

// Clone returns a copy so callers can mutate without touching store state.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Transition describes a stage change (or non-change) caused by one command.
type Transition struct {
	AssetID  id.AssetID
	From     Stage
	To       Stage
	Activity uint64
}

// Advanced reports whether the stage moved.
func (t Transition) Advanced() bool {
	return t.To > t.From
}

// RareBalance is one owner's holding of the companion rare asset.
type RareBalance struct {
	Owner   id.OwnerID `json:"owner"`
	Balance uint64     `json:"balance"`
}
