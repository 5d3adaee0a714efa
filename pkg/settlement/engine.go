package settlement

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/raullenchai/sushiswap-settlement/pkg/amm"
	"github.com/raullenchai/sushiswap-settlement/pkg/crypto"
	"github.com/raullenchai/sushiswap-settlement/pkg/util"
)

var (
	errAmountToFill = errors.New("amountToFillIn must be positive")
	errEmptyPath    = errors.New("path must have at least two hops")
	errPathFrom     = errors.New("path must start at fromToken")
	errPathTo       = errors.New("path must end at toToken")
)

// FillRequest is one fill attempt against a signed order: the order itself,
// the maker's signature over its digest, the portion of amountIn this call
// intends to consume, and the asset path to route the swap through.
type FillRequest struct {
	Order          crypto.LimitOrder
	Signature      []byte
	AmountToFillIn *big.Int
	Path           []common.Address
}

// FillEvent is emitted exactly once per successful fill, never on failure.
type FillEvent struct {
	Hash      common.Hash
	Filler    common.Address
	AmountIn  *big.Int // Portion of the order consumed by this fill
	AmountOut *big.Int // Realized swap output
	Reward    *big.Int // Incentive minted to the filler (zero when pricing failed)
	Timestamp int64    // Unix nanoseconds
}

// Engine validates fill requests end-to-end, delegates execution to the
// swap router, advances fill state only on success, and pays the filler's
// reward. Every failure mode short of a storage fault is absorbed into a
// zero result so batch callers are unaffected by one bad fill.
type Engine struct {
	hasher   *crypto.OrderHasher
	book     *Book
	router   amm.Router
	reserves amm.ReserveSource
	minter   amm.Minter
	params   *Params
	clock    util.Clock
	log      *zap.SugaredLogger

	// OnFill, when set, observes every successful fill.
	OnFill func(FillEvent)
}

// NewEngine wires the orchestrator. clock may be nil (real time).
func NewEngine(hasher *crypto.OrderHasher, book *Book, router amm.Router, reserves amm.ReserveSource, minter amm.Minter, params *Params, clock util.Clock, log *zap.SugaredLogger) *Engine {
	if clock == nil {
		clock = util.RealClock{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{
		hasher:   hasher,
		book:     book,
		router:   router,
		reserves: reserves,
		minter:   minter,
		params:   params,
		clock:    clock,
		log:      log,
	}
}

// Book exposes the fill-state book for the public read surface.
func (e *Engine) Book() *Book { return e.book }

// Hasher exposes the order hasher, whose domain is part of the public
// read surface.
func (e *Engine) Hasher() *crypto.OrderHasher { return e.hasher }

// Params exposes the engine parameters for the public read surface.
func (e *Engine) Params() *Params { return e.params }

// Hash computes an order's digest under the engine's domain.
func (e *Engine) Hash(order *crypto.LimitOrder) (common.Hash, error) {
	return e.hasher.Hash(order)
}

// FillOrder attempts one fill, submitted by filler, and returns the
// realized output amount. Every rejection path (malformed request, bad
// signature, inadmissible state, swap failure) returns zero with no state
// change beyond expiry, which persists, and no event.
func (e *Engine) FillOrder(filler common.Address, req *FillRequest) *big.Int {
	zero := new(big.Int)

	hash, err := e.hasher.Hash(&req.Order)
	if err != nil {
		e.log.Warnw("order_hash_failed", "err", err)
		return zero
	}
	if err := e.validateRequest(req); err != nil {
		e.log.Debugw("fill_rejected", "hash", hash.Hex(), "reason", err.Error())
		return zero
	}
	if !crypto.VerifyMaker(req.Order.Maker, hash, req.Signature) {
		e.log.Debugw("fill_rejected", "hash", hash.Hex(), "reason", "invalid signature")
		return zero
	}

	// Admission, execution, and commit are one critical section per digest:
	// concurrent fillers racing on the same order serialize here, so the
	// sum of committed fills can never exceed the order's amountIn.
	unlock := e.book.Lock(hash)
	defer unlock()

	status, err := e.book.Admit(hash, &req.Order, req.AmountToFillIn, e.clock.Now())
	if err != nil {
		e.log.Errorw("admit_failed", "hash", hash.Hex(), "err", err)
		return zero
	}
	if status != StatusFillable {
		e.log.Debugw("fill_rejected", "hash", hash.Hex(), "status", status.String())
		return zero
	}

	// Pro-rated minimum output for this partial fill. Integer truncation is
	// intentional: the floor may round down slightly on small fills.
	minOut := new(big.Int).Mul(req.Order.AmountOutMin, req.AmountToFillIn)
	minOut.Div(minOut, req.Order.AmountIn)

	amountOut, err := e.router.SwapExactTokensForTokens(req.Order.Maker, req.AmountToFillIn, minOut, req.Path, req.Order.Recipient, req.Order.Deadline)
	if err != nil {
		// Absorbed locally: a rejected swap mutates nothing and pays nothing.
		e.log.Debugw("swap_failed", "hash", hash.Hex(), "err", err)
		return zero
	}

	state, err := e.book.Commit(hash, &req.Order, req.AmountToFillIn)
	if err != nil {
		e.log.Errorw("commit_failed", "hash", hash.Hex(), "err", err)
		return zero
	}

	// The swap is already executed and committed; a reward-side fault must
	// not void it, so pricing or mint errors degrade to a zero reward.
	reward := e.payReward(filler, req.Order.ToToken, amountOut, hash)

	ev := FillEvent{
		Hash:      hash,
		Filler:    filler,
		AmountIn:  new(big.Int).Set(req.AmountToFillIn),
		AmountOut: new(big.Int).Set(amountOut),
		Reward:    reward,
		Timestamp: e.clock.Now().UnixNano(),
	}
	if err := e.book.RecordFill(&FillRecord{
		Hash:      ev.Hash,
		Filler:    ev.Filler,
		AmountIn:  ev.AmountIn,
		AmountOut: ev.AmountOut,
		Reward:    ev.Reward,
		Timestamp: ev.Timestamp,
	}); err != nil {
		e.log.Errorw("fill_record_failed", "hash", hash.Hex(), "err", err)
	}

	e.log.Infow("order_filled",
		"hash", hash.Hex(),
		"filler", filler.Hex(),
		"amount_in", req.AmountToFillIn.String(),
		"amount_out", amountOut.String(),
		"reward", reward.String(),
		"status", state.Status.String())

	if e.OnFill != nil {
		e.OnFill(ev)
	}
	return amountOut
}

// FillOrders applies FillOrder independently to each request, preserving
// input order in the output. One element's failure (a zero result) never
// aborts or rolls back its siblings: explicit best-effort batch semantics.
func (e *Engine) FillOrders(filler common.Address, reqs []*FillRequest) []*big.Int {
	out := make([]*big.Int, len(reqs))
	for i, req := range reqs {
		out[i] = e.FillOrder(filler, req)
	}
	return out
}

// validateRequest fails closed on any structurally malformed request.
func (e *Engine) validateRequest(req *FillRequest) error {
	if err := req.Order.Validate(); err != nil {
		return err
	}
	if req.AmountToFillIn == nil || req.AmountToFillIn.Sign() <= 0 {
		return errAmountToFill
	}
	if len(req.Path) < 2 {
		return errEmptyPath
	}
	if req.Path[0] != req.Order.FromToken {
		return errPathFrom
	}
	if req.Path[len(req.Path)-1] != req.Order.ToToken {
		return errPathTo
	}
	return nil
}
