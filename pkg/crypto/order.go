package crypto

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// LimitOrder is a maker's signed intent to sell up to AmountIn of FromToken
// for at least a pro-rated share of AmountOutMin of ToToken, until Deadline.
// This is the typed data structure makers sign in their wallets; fillers
// submit it verbatim alongside the maker's signature.
type LimitOrder struct {
	Maker        common.Address // Signer and owner of the traded funds
	FromToken    common.Address // Asset being sold
	ToToken      common.Address // Asset being bought
	AmountIn     *big.Int       // Total quantity sellable across all fills
	AmountOutMin *big.Int       // Minimum output for the entire order (scaled pro-rata per fill)
	Recipient    common.Address // Beneficiary of the swap output
	Deadline     *big.Int       // Absolute expiry (Unix seconds)
}

// Validate checks the structural invariants every well-formed order satisfies:
// all address fields non-zero, all numeric fields non-nil and positive.
func (o *LimitOrder) Validate() error {
	if o.Maker == (common.Address{}) {
		return fmt.Errorf("zero maker address")
	}
	if o.FromToken == (common.Address{}) {
		return fmt.Errorf("zero fromToken address")
	}
	if o.ToToken == (common.Address{}) {
		return fmt.Errorf("zero toToken address")
	}
	if o.Recipient == (common.Address{}) {
		return fmt.Errorf("zero recipient address")
	}
	if o.AmountIn == nil || o.AmountIn.Sign() <= 0 {
		return fmt.Errorf("amountIn must be positive")
	}
	if o.AmountOutMin == nil || o.AmountOutMin.Sign() <= 0 {
		return fmt.Errorf("amountOutMin must be positive")
	}
	if o.Deadline == nil || o.Deadline.Sign() <= 0 {
		return fmt.Errorf("deadline must be positive")
	}
	return nil
}
