package amm

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	tokA   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tokB   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	tokC   = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	trader = common.HexToAddress("0x1111111111111111111111111111111111111111")
	sink   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type stubClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stubClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func newFundedExchange(t *testing.T) (*MemoryExchange, *stubClock) {
	t.Helper()
	clock := &stubClock{t: time.Unix(1_700_000_000, 0)}
	x := NewMemoryExchange(clock)
	million := big.NewInt(1_000_000)
	if err := x.CreatePool(tokA, tokB, million, million); err != nil {
		t.Fatalf("CreatePool A/B: %v", err)
	}
	if err := x.CreatePool(tokB, tokC, million, million); err != nil {
		t.Fatalf("CreatePool B/C: %v", err)
	}
	x.Fund(tokA, trader, big.NewInt(10_000))
	return x, clock
}

func futureDeadline(clock *stubClock) *big.Int {
	return big.NewInt(clock.Now().Add(time.Hour).Unix())
}

func TestSwapSingleHop(t *testing.T) {
	x, clock := newFundedExchange(t)

	out, err := x.SwapExactTokensForTokens(trader, big.NewInt(1000), big.NewInt(1), []common.Address{tokA, tokB}, sink, futureDeadline(clock))
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	// 1000*997*1e6 / (1e6*1000 + 1000*997) = 996.00... -> 996
	if out.Cmp(big.NewInt(996)) != 0 {
		t.Errorf("amountOut = %s, want 996", out)
	}
	if got := x.BalanceOf(tokA, trader); got.Cmp(big.NewInt(9000)) != 0 {
		t.Errorf("trader tokA after swap = %s, want 9000", got)
	}
	if got := x.BalanceOf(tokB, sink); got.Cmp(out) != 0 {
		t.Errorf("recipient tokB = %s, want %s", got, out)
	}

	rA, rB, err := x.Reserves(tokA, tokB)
	if err != nil {
		t.Fatalf("Reserves: %v", err)
	}
	if rA.Cmp(big.NewInt(1_001_000)) != 0 || rB.Cmp(big.NewInt(1_000_000-996)) != 0 {
		t.Errorf("reserves after swap = %s/%s, want 1001000/999004", rA, rB)
	}
}

func TestSwapMultiHop(t *testing.T) {
	x, clock := newFundedExchange(t)

	out, err := x.SwapExactTokensForTokens(trader, big.NewInt(1000), big.NewInt(1), []common.Address{tokA, tokB, tokC}, sink, futureDeadline(clock))
	if err != nil {
		t.Fatalf("multi-hop swap failed: %v", err)
	}
	// Two hops, each shaving the 0.3% fee plus slippage.
	if out.Cmp(big.NewInt(996)) >= 0 || out.Sign() <= 0 {
		t.Errorf("two-hop output = %s, want positive and below single-hop 996", out)
	}
	if got := x.BalanceOf(tokC, sink); got.Cmp(out) != 0 {
		t.Errorf("recipient tokC = %s, want %s", got, out)
	}
	// The intermediate asset never settles anywhere.
	if got := x.BalanceOf(tokB, sink); got.Sign() != 0 {
		t.Errorf("recipient holds intermediate tokB = %s, want 0", got)
	}
	if got := x.BalanceOf(tokB, trader); got.Sign() != 0 {
		t.Errorf("trader holds intermediate tokB = %s, want 0", got)
	}
}

func TestSwapMinOutFailureLeavesStateUntouched(t *testing.T) {
	x, clock := newFundedExchange(t)

	_, err := x.SwapExactTokensForTokens(trader, big.NewInt(1000), big.NewInt(10_000), []common.Address{tokA, tokB, tokC}, sink, futureDeadline(clock))
	if err == nil {
		t.Fatal("swap above achievable output succeeded")
	}
	if got := x.BalanceOf(tokA, trader); got.Cmp(big.NewInt(10_000)) != 0 {
		t.Errorf("trader balance mutated by failed swap: %s", got)
	}
	rA, rB, _ := x.Reserves(tokA, tokB)
	if rA.Cmp(big.NewInt(1_000_000)) != 0 || rB.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Errorf("reserves mutated by failed swap: %s/%s", rA, rB)
	}
}

func TestSwapDeadline(t *testing.T) {
	x, clock := newFundedExchange(t)
	past := big.NewInt(clock.Now().Add(-time.Minute).Unix())

	if _, err := x.SwapExactTokensForTokens(trader, big.NewInt(100), nil, []common.Address{tokA, tokB}, sink, past); err == nil {
		t.Error("swap past deadline succeeded")
	}
	// Nil deadline means no constraint.
	if _, err := x.SwapExactTokensForTokens(trader, big.NewInt(100), nil, []common.Address{tokA, tokB}, sink, nil); err != nil {
		t.Errorf("swap with nil deadline failed: %v", err)
	}
}

func TestSwapInsufficientBalance(t *testing.T) {
	x, clock := newFundedExchange(t)
	if _, err := x.SwapExactTokensForTokens(trader, big.NewInt(20_000), nil, []common.Address{tokA, tokB}, sink, futureDeadline(clock)); err == nil {
		t.Error("swap beyond trader balance succeeded")
	}
}

func TestSwapUnknownPool(t *testing.T) {
	x, clock := newFundedExchange(t)
	if _, err := x.SwapExactTokensForTokens(trader, big.NewInt(100), nil, []common.Address{tokA, tokC}, sink, futureDeadline(clock)); err == nil {
		t.Error("swap through missing A/C pool succeeded")
	}
}

func TestReservesOrderFollowsArguments(t *testing.T) {
	x, _ := newFundedExchange(t)
	if err := x.CreatePool(tokA, tokC, big.NewInt(10), big.NewInt(20)); err != nil {
		t.Fatalf("CreatePool: %v", err)
	}

	rA, rC, err := x.Reserves(tokA, tokC)
	if err != nil {
		t.Fatalf("Reserves(A, C): %v", err)
	}
	if rA.Cmp(big.NewInt(10)) != 0 || rC.Cmp(big.NewInt(20)) != 0 {
		t.Errorf("Reserves(A, C) = %s/%s, want 10/20", rA, rC)
	}

	rC, rA, err = x.Reserves(tokC, tokA)
	if err != nil {
		t.Fatalf("Reserves(C, A): %v", err)
	}
	if rC.Cmp(big.NewInt(20)) != 0 || rA.Cmp(big.NewInt(10)) != 0 {
		t.Errorf("Reserves(C, A) = %s/%s, want 20/10", rC, rA)
	}

	if _, _, err := x.Reserves(tokA, tokA); err == nil {
		t.Error("Reserves on identical pair succeeded")
	}
}

func TestMint(t *testing.T) {
	x, _ := newFundedExchange(t)
	if err := x.Mint(tokC, sink, big.NewInt(500)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := x.Mint(tokC, sink, big.NewInt(250)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if got := x.BalanceOf(tokC, sink); got.Cmp(big.NewInt(750)) != 0 {
		t.Errorf("minted balance = %s, want 750", got)
	}
	if err := x.Mint(tokC, sink, big.NewInt(-1)); err == nil {
		t.Error("negative mint succeeded")
	}
}

func TestCreatePoolRejectsBadInput(t *testing.T) {
	x, _ := newFundedExchange(t)
	if err := x.CreatePool(tokA, tokA, big.NewInt(1), big.NewInt(1)); err == nil {
		t.Error("identical-token pool accepted")
	}
	if err := x.CreatePool(tokA, tokC, big.NewInt(0), big.NewInt(1)); err == nil {
		t.Error("zero-reserve pool accepted")
	}
}
