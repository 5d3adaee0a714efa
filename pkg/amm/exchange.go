package amm

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/raullenchai/sushiswap-settlement/pkg/util"
)

// MemoryExchange is an in-process constant-product exchange implementing
// Router, ReserveSource, and Minter. It backs the devnet node and tests;
// in production these interfaces point at on-chain facilities instead.
type MemoryExchange struct {
	mu       sync.Mutex
	pools    map[pairKey]*pool
	balances map[common.Address]map[common.Address]*big.Int // token → holder → balance
	clock    util.Clock
}

type pairKey [2]common.Address

type pool struct {
	token0, token1     common.Address
	reserve0, reserve1 *big.Int
}

// NewMemoryExchange creates an empty exchange. clock may be nil, which
// defaults to the real clock.
func NewMemoryExchange(clock util.Clock) *MemoryExchange {
	if clock == nil {
		clock = util.RealClock{}
	}
	return &MemoryExchange{
		pools:    make(map[pairKey]*pool),
		balances: make(map[common.Address]map[common.Address]*big.Int),
		clock:    clock,
	}
}

func orderedPair(a, b common.Address) (pairKey, bool) {
	if a == b {
		return pairKey{}, false
	}
	if a.Cmp(b) < 0 {
		return pairKey{a, b}, true
	}
	return pairKey{b, a}, true
}

// CreatePool registers a pair with initial reserves, replacing any existing
// pool for the pair.
func (x *MemoryExchange) CreatePool(tokenA, tokenB common.Address, reserveA, reserveB *big.Int) error {
	key, ok := orderedPair(tokenA, tokenB)
	if !ok {
		return fmt.Errorf("identical pair tokens")
	}
	if reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return fmt.Errorf("pool reserves must be positive")
	}
	p := &pool{token0: tokenA, token1: tokenB, reserve0: new(big.Int).Set(reserveA), reserve1: new(big.Int).Set(reserveB)}
	if tokenA != key[0] {
		p.token0, p.token1 = tokenB, tokenA
		p.reserve0, p.reserve1 = p.reserve1, p.reserve0
	}
	x.mu.Lock()
	x.pools[key] = p
	x.mu.Unlock()
	return nil
}

// Fund credits holder with amount of token, creating the balance entry as
// needed. Used to seed maker balances on the devnet and in tests.
func (x *MemoryExchange) Fund(token, holder common.Address, amount *big.Int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.credit(token, holder, amount)
}

// BalanceOf returns holder's balance of token.
func (x *MemoryExchange) BalanceOf(token, holder common.Address) *big.Int {
	x.mu.Lock()
	defer x.mu.Unlock()
	if m, ok := x.balances[token]; ok {
		if bal, ok := m[holder]; ok {
			return new(big.Int).Set(bal)
		}
	}
	return new(big.Int)
}

// Reserves implements ReserveSource: reserves for the pair, in the order
// the tokens are given.
func (x *MemoryExchange) Reserves(tokenA, tokenB common.Address) (*big.Int, *big.Int, error) {
	key, ok := orderedPair(tokenA, tokenB)
	if !ok {
		return nil, nil, fmt.Errorf("identical pair tokens")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	p, ok := x.pools[key]
	if !ok {
		return nil, nil, fmt.Errorf("pool %s/%s not found", tokenA.Hex(), tokenB.Hex())
	}
	if tokenA == p.token0 {
		return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1), nil
	}
	return new(big.Int).Set(p.reserve1), new(big.Int).Set(p.reserve0), nil
}

// Mint implements Minter.
func (x *MemoryExchange) Mint(token, recipient common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid mint amount")
	}
	x.mu.Lock()
	x.credit(token, recipient, amount)
	x.mu.Unlock()
	return nil
}

// SwapExactTokensForTokens implements Router. The whole multi-hop swap is
// planned against current reserves first and applied only if the final
// output meets amountOutMin, so a failed swap leaves no state behind.
func (x *MemoryExchange) SwapExactTokensForTokens(maker common.Address, amountIn, amountOutMin *big.Int, path []common.Address, recipient common.Address, deadline *big.Int) (*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("path too short")
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amountIn must be positive")
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if deadline != nil && deadline.Cmp(big.NewInt(x.clock.Now().Unix())) < 0 {
		return nil, fmt.Errorf("swap deadline passed")
	}
	if bal := x.balanceLocked(path[0], maker); bal.Cmp(amountIn) < 0 {
		return nil, fmt.Errorf("insufficient %s balance: have %s, need %s", path[0].Hex(), bal, amountIn)
	}

	// Plan every hop before mutating anything.
	type hop struct {
		p                   *pool
		inIs0               bool
		amountIn, amountOut *big.Int
	}
	hops := make([]hop, 0, len(path)-1)
	amount := new(big.Int).Set(amountIn)
	for i := 0; i+1 < len(path); i++ {
		key, ok := orderedPair(path[i], path[i+1])
		if !ok {
			return nil, fmt.Errorf("invalid hop %s -> %s", path[i].Hex(), path[i+1].Hex())
		}
		p, ok := x.pools[key]
		if !ok {
			return nil, fmt.Errorf("pool %s/%s not found", path[i].Hex(), path[i+1].Hex())
		}
		inIs0 := path[i] == p.token0
		reserveIn, reserveOut := p.reserve0, p.reserve1
		if !inIs0 {
			reserveIn, reserveOut = p.reserve1, p.reserve0
		}
		out := getAmountOut(amount, reserveIn, reserveOut)
		if out.Sign() <= 0 {
			return nil, fmt.Errorf("insufficient liquidity in %s/%s", path[i].Hex(), path[i+1].Hex())
		}
		hops = append(hops, hop{p: p, inIs0: inIs0, amountIn: amount, amountOut: out})
		amount = out
	}
	if amountOutMin != nil && amount.Cmp(amountOutMin) < 0 {
		return nil, fmt.Errorf("output %s below minimum %s", amount, amountOutMin)
	}

	// Apply: debit the maker, shift reserves, credit the recipient.
	x.debit(path[0], maker, amountIn)
	for _, h := range hops {
		if h.inIs0 {
			h.p.reserve0.Add(h.p.reserve0, h.amountIn)
			h.p.reserve1.Sub(h.p.reserve1, h.amountOut)
		} else {
			h.p.reserve1.Add(h.p.reserve1, h.amountIn)
			h.p.reserve0.Sub(h.p.reserve0, h.amountOut)
		}
	}
	x.credit(path[len(path)-1], recipient, amount)
	return amount, nil
}

// getAmountOut is the constant-product quote with the canonical 0.3% fee:
// out = in*997*reserveOut / (reserveIn*1000 + in*997).
func getAmountOut(amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return new(big.Int)
	}
	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	numerator := new(big.Int).Mul(inWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(1000))
	denominator.Add(denominator, inWithFee)
	return numerator.Div(numerator, denominator)
}

// credit/debit/balanceLocked require x.mu held.

func (x *MemoryExchange) credit(token, holder common.Address, amount *big.Int) {
	m, ok := x.balances[token]
	if !ok {
		m = make(map[common.Address]*big.Int)
		x.balances[token] = m
	}
	bal, ok := m[holder]
	if !ok {
		bal = new(big.Int)
		m[holder] = bal
	}
	bal.Add(bal, amount)
}

func (x *MemoryExchange) debit(token, holder common.Address, amount *big.Int) {
	x.balances[token][holder].Sub(x.balances[token][holder], amount)
}

func (x *MemoryExchange) balanceLocked(token, holder common.Address) *big.Int {
	if m, ok := x.balances[token]; ok {
		if bal, ok := m[holder]; ok {
			return bal
		}
	}
	return new(big.Int)
}

var (
	_ Router        = (*MemoryExchange)(nil)
	_ ReserveSource = (*MemoryExchange)(nil)
	_ Minter        = (*MemoryExchange)(nil)
)
