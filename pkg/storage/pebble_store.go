package storage

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	"github.com/raullenchai/sushiswap-settlement/pkg/settlement"
)

// PebbleStore persists order fill state and fill records.
// It implements settlement.StateStore, so the engine's book survives
// restarts: an order half-filled before a crash resumes with the same
// cumulative amount.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// SaveOrderState persists an order's fill state, keyed by digest.
func (s *PebbleStore) SaveOrderState(hash common.Hash, st *settlement.OrderState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal order state: %w", err)
	}
	if err := s.db.Set(orderStateKey(hash), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save order state: %w", err)
	}
	return nil
}

// LoadOrderState loads an order's fill state.
// Returns nil if the digest has never been touched.
func (s *PebbleStore) LoadOrderState(hash common.Hash) (*settlement.OrderState, error) {
	data, closer, err := s.db.Get(orderStateKey(hash))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order state: %w", err)
	}
	defer closer.Close()

	var st settlement.OrderState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order state: %w", err)
	}
	if st.FilledAmountIn == nil {
		st.FilledAmountIn = new(big.Int)
	}
	return &st, nil
}

// AppendFill persists one fill record. The fill log is an observability
// trail, not settlement state, so NoSync is acceptable here.
func (s *PebbleStore) AppendFill(rec *settlement.FillRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal fill record: %w", err)
	}
	if err := s.db.Set(fillKey(rec.Hash, rec.Timestamp), data, pebble.NoSync); err != nil {
		return fmt.Errorf("failed to save fill record: %w", err)
	}
	return nil
}

// LoadFills loads all fills committed against an order, oldest first.
func (s *PebbleStore) LoadFills(hash common.Hash) ([]*settlement.FillRecord, error) {
	prefix := fillPrefix(hash)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var fills []*settlement.FillRecord
	for iter.First(); iter.Valid(); iter.Next() {
		var rec settlement.FillRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue // Skip invalid entries
		}
		fills = append(fills, &rec)
	}
	return fills, nil
}

var _ settlement.StateStore = (*PebbleStore)(nil)
