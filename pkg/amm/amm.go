// Package amm declares the external swap, pricing, and mint facilities the
// settlement engine delegates to. The engine never reimplements them; it
// consumes these fixed call contracts and treats failures as opaque.
package amm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Router executes a swap of exactly amountIn of path[0] into path[len-1]
// along the given path, crediting the output to recipient. It returns the
// realized output amount, or an error when the minimum output cannot be
// met, the path is invalid, or the deadline has passed. The maker's funds
// are the source of the input amount.
type Router interface {
	SwapExactTokensForTokens(maker common.Address, amountIn, amountOutMin *big.Int, path []common.Address, recipient common.Address, deadline *big.Int) (*big.Int, error)
}

// ReserveSource reports the current pool reserves for a pair, in the order
// the tokens are given. Queried once per successful fill to price rewards.
type ReserveSource interface {
	Reserves(tokenA, tokenB common.Address) (reserveA, reserveB *big.Int, err error)
}

// Minter mints amount of token to recipient. Assumed to succeed for an
// authorized caller.
type Minter interface {
	Mint(token, recipient common.Address, amount *big.Int) error
}
