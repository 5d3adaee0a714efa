package tests

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/raullenchai/sushiswap-settlement/pkg/amm"
	"github.com/raullenchai/sushiswap-settlement/pkg/crypto"
	"github.com/raullenchai/sushiswap-settlement/pkg/settlement"
	"github.com/raullenchai/sushiswap-settlement/pkg/storage"
)

var (
	dai   = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	usdc  = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	sushi = common.HexToAddress("0x6B3595068778DD592e39A122f4f5a5cF09C90fE2")
	owner = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	relay = common.HexToAddress("0x00000000000000000000000000000000000000f1")
)

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type node struct {
	engine   *settlement.Engine
	exchange *amm.MemoryExchange
	hasher   *crypto.OrderHasher
	clock    *manualClock
}

// newNode assembles a working settlement stack against a pebble database at
// dbPath, mirroring how the devnet binary wires the pieces together.
func newNode(t *testing.T, dbPath string) *node {
	t.Helper()
	store, err := storage.NewPebbleStore(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := &manualClock{t: time.Unix(1_700_000_000, 0)}
	exchange := amm.NewMemoryExchange(clock)
	million := big.NewInt(1_000_000)
	if err := exchange.CreatePool(dai, usdc, million, million); err != nil {
		t.Fatalf("failed to create swap pool: %v", err)
	}
	if err := exchange.CreatePool(usdc, weth, million, million); err != nil {
		t.Fatalf("failed to create pricing pool: %v", err)
	}

	hasher := crypto.NewOrderHasher(crypto.DefaultDomain())
	params := settlement.NewParams(owner, weth, sushi, new(big.Int).Set(settlement.RewardRateScale))
	book := settlement.NewBook(store)
	engine := settlement.NewEngine(hasher, book, exchange, exchange, exchange, params, clock, nil)
	return &node{engine: engine, exchange: exchange, hasher: hasher, clock: clock}
}

func signedRequest(t *testing.T, n *node, maker *crypto.Signer, amountIn, amountOutMin, fill int64) *settlement.FillRequest {
	t.Helper()
	order := &crypto.LimitOrder{
		Maker:        maker.Address(),
		FromToken:    dai,
		ToToken:      usdc,
		AmountIn:     big.NewInt(amountIn),
		AmountOutMin: big.NewInt(amountOutMin),
		Recipient:    maker.Address(),
		Deadline:     big.NewInt(n.clock.Now().Add(time.Hour).Unix()),
	}
	digest, err := n.hasher.Hash(order)
	if err != nil {
		t.Fatalf("failed to hash order: %v", err)
	}
	sig, err := maker.SignDigest(digest)
	if err != nil {
		t.Fatalf("failed to sign order: %v", err)
	}
	return &settlement.FillRequest{
		Order:          *order,
		Signature:      sig,
		AmountToFillIn: big.NewInt(fill),
		Path:           []common.Address{dai, usdc},
	}
}

// TestSignFillRoundtrip runs the full path a relayer sees: a maker signs an
// order offline, the relayer submits it, and swap output, fill state, reward
// mint, and the durable fill log all line up.
func TestSignFillRoundtrip(t *testing.T) {
	n := newNode(t, t.TempDir())
	maker, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	n.exchange.Fund(dai, maker.Address(), big.NewInt(1000))

	req := signedRequest(t, n, maker, 500, 100, 500)
	out := n.engine.FillOrder(relay, req)
	if out.Sign() <= 0 {
		t.Fatalf("fill failed")
	}

	hash, _ := n.hasher.Hash(&req.Order)
	st := n.engine.Book().State(hash)
	if st.Status != settlement.StatusFilled {
		t.Errorf("status = %s, want filled", st.Status)
	}
	if got := n.exchange.BalanceOf(usdc, maker.Address()); got.Cmp(out) != 0 {
		t.Errorf("maker received %s USDC, want %s", got, out)
	}
	if got := n.exchange.BalanceOf(sushi, relay); got.Cmp(out) != 0 {
		t.Errorf("relayer reward = %s, want %s", got, out)
	}
}

// TestFillStateSurvivesRestart half-fills an order, discards the in-memory
// book, and rebuilds a fresh one over the same database. The cumulative fill
// must resume where it stopped: only the remaining capacity admits.
func TestFillStateSurvivesRestart(t *testing.T) {
	store, err := storage.NewPebbleStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()
	maker, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	clock := &manualClock{t: time.Unix(1_700_000_000, 0)}
	exchange := amm.NewMemoryExchange(clock)
	million := big.NewInt(1_000_000)
	if err := exchange.CreatePool(dai, usdc, million, million); err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	exchange.Fund(dai, maker.Address(), big.NewInt(1000))

	hasher := crypto.NewOrderHasher(crypto.DefaultDomain())
	params := settlement.NewParams(owner, weth, sushi, nil)
	engine1 := settlement.NewEngine(hasher, settlement.NewBook(store), exchange, exchange, exchange, params, clock, nil)

	n := &node{engine: engine1, exchange: exchange, hasher: hasher, clock: clock}
	req := signedRequest(t, n, maker, 100, 10, 60)
	if out := engine1.FillOrder(relay, req); out.Sign() <= 0 {
		t.Fatalf("first fill failed")
	}
	hash, _ := hasher.Hash(&req.Order)

	// Restart: a new book over the same store must reload the half-filled
	// record on first touch.
	engine2 := settlement.NewEngine(hasher, settlement.NewBook(store), exchange, exchange, exchange, params, clock, nil)
	st := engine2.Book().State(hash)
	if st.Status != settlement.StatusFillable || st.FilledAmountIn.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("resumed state = %s/%s, want fillable/60", st.Status, st.FilledAmountIn)
	}

	// Another 60 would over-fill; 40 completes the order. The clock ticks so
	// the second fill record lands on a distinct log key. Both requests reuse
	// the original order and signature, only the fill portion differs.
	clock.advance(time.Second)
	req60 := *req
	req60.AmountToFillIn = big.NewInt(60)
	if out := engine2.FillOrder(relay, &req60); out.Sign() != 0 {
		t.Fatalf("over-fill after restart returned %s, want 0", out)
	}
	req40 := *req
	req40.AmountToFillIn = big.NewInt(40)
	if out := engine2.FillOrder(relay, &req40); out.Sign() <= 0 {
		t.Fatalf("completing fill after restart failed")
	}
	if st := engine2.Book().State(hash); st.Status != settlement.StatusFilled {
		t.Errorf("status after completion = %s, want filled", st.Status)
	}

	// The durable fill log carries both successful fills.
	fills, err := store.LoadFills(hash)
	if err != nil {
		t.Fatalf("LoadFills: %v", err)
	}
	if len(fills) != 2 {
		t.Errorf("fill records = %d, want 2", len(fills))
	}
}

// TestBatchMixedFills submits a relayer batch with one unfillable element in
// the middle and checks the siblings settle.
func TestBatchMixedFills(t *testing.T) {
	n := newNode(t, t.TempDir())
	maker, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	n.exchange.Fund(dai, maker.Address(), big.NewInt(10_000))

	good1 := signedRequest(t, n, maker, 100, 10, 100)
	bad := signedRequest(t, n, maker, 200, 10, 200)
	bad.Signature[0] ^= 0xff
	good2 := signedRequest(t, n, maker, 300, 10, 300)

	outs := n.engine.FillOrders(relay, []*settlement.FillRequest{good1, bad, good2})
	if outs[0].Sign() <= 0 || outs[2].Sign() <= 0 {
		t.Errorf("sibling fills failed: %s, %s", outs[0], outs[2])
	}
	if outs[1].Sign() != 0 {
		t.Errorf("bad fill returned %s, want 0", outs[1])
	}
}
