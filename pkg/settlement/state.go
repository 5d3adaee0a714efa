package settlement

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/raullenchai/sushiswap-settlement/pkg/crypto"
)

// OrderState is the mutable per-order record, one per distinct order digest,
// created lazily on first touch and never deleted.
type OrderState struct {
	Status         Status   `json:"status"`
	FilledAmountIn *big.Int `json:"filledAmountIn"` // Cumulative, monotonically non-decreasing
}

// FillRecord is the durable trace of one successful fill.
type FillRecord struct {
	Hash      common.Hash    `json:"hash"`
	Filler    common.Address `json:"filler"`
	AmountIn  *big.Int       `json:"amountIn"`  // Portion of the order consumed by this fill
	AmountOut *big.Int       `json:"amountOut"` // Realized swap output
	Reward    *big.Int       `json:"reward"`    // Incentive minted to the filler
	Timestamp int64          `json:"timestamp"` // Unix nanoseconds
}

// StateStore persists order states and fill records.
// LoadOrderState returns (nil, nil) when the digest has never been touched.
type StateStore interface {
	SaveOrderState(hash common.Hash, st *OrderState) error
	LoadOrderState(hash common.Hash) (*OrderState, error)
	AppendFill(rec *FillRecord) error
}

// Book tracks fill state for every order the engine has seen.
//
// All admission checks and commits for a given digest run under that
// digest's lock, so no concurrent fill attempt can observe a half-updated
// status/filledAmountIn pair, and the sum of committed fills can never
// exceed the order's amountIn. The store, when present, is write-through;
// records are reloaded from it on a cold lookup.
type Book struct {
	mu     sync.Mutex
	states map[common.Hash]*OrderState
	locks  map[common.Hash]*sync.Mutex
	store  StateStore // optional; nil keeps the book memory-only
}

// NewBook creates a fill-state book. store may be nil.
func NewBook(store StateStore) *Book {
	return &Book{
		states: make(map[common.Hash]*OrderState),
		locks:  make(map[common.Hash]*sync.Mutex),
		store:  store,
	}
}

// Lock acquires the per-digest lock and returns its release function.
// The caller holds it across the whole admit → execute → commit sequence.
func (b *Book) Lock(hash common.Hash) func() {
	b.mu.Lock()
	l, ok := b.locks[hash]
	if !ok {
		l = &sync.Mutex{}
		b.locks[hash] = l
	}
	b.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// get returns the live record for a digest, consulting the store on a cold
// lookup. Returns nil when the digest has never been touched.
func (b *Book) get(hash common.Hash) (*OrderState, error) {
	b.mu.Lock()
	st, ok := b.states[hash]
	b.mu.Unlock()
	if ok {
		return st, nil
	}
	if b.store == nil {
		return nil, nil
	}
	st, err := b.store.LoadOrderState(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load order state: %w", err)
	}
	if st != nil {
		b.mu.Lock()
		b.states[hash] = st
		b.mu.Unlock()
	}
	return st, nil
}

// State returns a copy of the current record for external queries.
// A never-touched digest reads as {StatusInvalid, 0}.
func (b *Book) State(hash common.Hash) OrderState {
	l := b.Lock(hash)
	defer l()
	st, err := b.get(hash)
	if err != nil || st == nil {
		return OrderState{Status: StatusInvalid, FilledAmountIn: new(big.Int)}
	}
	return OrderState{
		Status:         st.Status,
		FilledAmountIn: new(big.Int).Set(st.FilledAmountIn),
	}
}

// Admit decides whether a fill attempt of amountToFillIn against order may
// proceed to execution. Caller must hold the digest's lock.
//
// Side effects, per attempt:
//   - First touch activates the record: nil → {StatusFillable, 0}.
//   - A fillable order past its deadline is persisted as StatusExpired.
//   - An over-fill attempt (filled + amountToFillIn > amountIn) returns
//     StatusInvalid with no change, leaving the record untouched.
//
// Only a return of exactly StatusFillable permits execution; the amount is
// not committed here but by Commit after the swap succeeds.
func (b *Book) Admit(hash common.Hash, order *crypto.LimitOrder, amountToFillIn *big.Int, now time.Time) (Status, error) {
	st, err := b.get(hash)
	if err != nil {
		return StatusInvalid, err
	}
	if st == nil {
		// First-touch activation.
		st = &OrderState{Status: StatusFillable, FilledAmountIn: new(big.Int)}
		if err := b.put(hash, st); err != nil {
			return StatusInvalid, err
		}
	}

	if st.Status.Terminal() {
		return st.Status, nil
	}
	if st.Status != StatusFillable {
		return StatusInvalid, nil
	}

	if order.Deadline.Cmp(big.NewInt(now.Unix())) < 0 {
		st.Status = StatusExpired
		if err := b.put(hash, st); err != nil {
			return StatusInvalid, err
		}
		return StatusExpired, nil
	}

	newFilled := new(big.Int).Add(st.FilledAmountIn, amountToFillIn)
	if newFilled.Cmp(order.AmountIn) > 0 {
		// Over-fill: rejected outright, nothing partially applied.
		return StatusInvalid, nil
	}
	return StatusFillable, nil
}

// Commit records a successfully executed fill of amountFilledIn.
// Caller must hold the digest's lock and have received StatusFillable from
// Admit for the same amount in the same critical section.
func (b *Book) Commit(hash common.Hash, order *crypto.LimitOrder, amountFilledIn *big.Int) (OrderState, error) {
	st, err := b.get(hash)
	if err != nil {
		return OrderState{}, err
	}
	if st == nil || st.Status != StatusFillable {
		return OrderState{}, fmt.Errorf("commit without admission: status=%v", st)
	}

	st.FilledAmountIn = new(big.Int).Add(st.FilledAmountIn, amountFilledIn)
	if st.FilledAmountIn.Cmp(order.AmountIn) == 0 {
		st.Status = StatusFilled
	}
	if err := b.put(hash, st); err != nil {
		return OrderState{}, err
	}
	return OrderState{Status: st.Status, FilledAmountIn: new(big.Int).Set(st.FilledAmountIn)}, nil
}

// RecordFill appends a fill record to the store, if one is configured.
func (b *Book) RecordFill(rec *FillRecord) error {
	if b.store == nil {
		return nil
	}
	return b.store.AppendFill(rec)
}

func (b *Book) put(hash common.Hash, st *OrderState) error {
	b.mu.Lock()
	b.states[hash] = st
	b.mu.Unlock()
	if b.store == nil {
		return nil
	}
	if err := b.store.SaveOrderState(hash, st); err != nil {
		return fmt.Errorf("failed to save order state: %w", err)
	}
	return nil
}
