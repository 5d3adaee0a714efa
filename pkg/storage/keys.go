package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Key schema for Pebble storage:
//
//   os:<hash>                  → OrderState
//   fill:<hash>:<timestamp>    → FillRecord
//
// Fill timestamps are zero-padded (20 digits, nanoseconds) so prefix scans
// return fills in execution order.

const (
	prefixOrderState = "os:"
	prefixFill       = "fill:"
)

// orderStateKey returns the key for an order's fill state.
// Format: "os:{hash}"
func orderStateKey(hash common.Hash) []byte {
	return append([]byte(prefixOrderState), hash[:]...)
}

// fillKey returns the key for one fill record.
// Format: "fill:{hash}:{timestamp}"
func fillKey(hash common.Hash, timestamp int64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", prefixFill, hash.Hex(), timestamp))
}

// fillPrefix returns the prefix for all fills of an order.
// Format: "fill:{hash}:"
func fillPrefix(hash common.Hash) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixFill, hash.Hex()))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
