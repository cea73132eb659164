package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// State is a canonical snapshot of the ledger: assets ordered by id and
// balances ordered by owner. Zero balances are omitted so an owner that
// acquired and burned everything hashes the same as one that never held any.
type State struct {
	Assets   []Asset       `json:"assets"`
	Balances []RareBalance `json:"balances"`
}

// Canonicalize sorts and filters the snapshot in place.
func (s *State) Canonicalize() {
	sort.Slice(s.Assets, func(i, j int) bool { return s.Assets[i].ID < s.Assets[j].ID })

	balances := s.Balances[:0]
	for _, b := range s.Balances {
		if b.Balance > 0 {
			balances = append(balances, b)
		}
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Owner < balances[j].Owner })
	s.Balances = balances

	if s.Assets == nil {
		s.Assets = []Asset{}
	}
	if s.Balances == nil {
		s.Balances = []RareBalance{}
	}
}

// Digest is the hex SHA-256 of the canonical JSON encoding.
func (s State) Digest() (string, error) {
	c := State{
		Assets:   append([]Asset(nil), s.Assets...),
		Balances: append([]RareBalance(nil), s.Balances...),
	}
	c.Canonicalize()
	raw, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
