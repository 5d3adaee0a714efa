package settlement

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// quoteNative converts a fill's output amount into its network-native-asset
// equivalent using the pool reserves between toToken and the native asset:
// value = amountOut * reserveNative / reserveToToken.
func (e *Engine) quoteNative(toToken common.Address, amountOut *big.Int) (*big.Int, error) {
	reserveTo, reserveNative, err := e.reserves.Reserves(toToken, e.params.NativeToken())
	if err != nil {
		return nil, err
	}
	// A drained pool quotes nothing; without this check the division below
	// would panic after the fill has already committed.
	if reserveTo == nil || reserveTo.Sign() <= 0 || reserveNative == nil {
		return nil, fmt.Errorf("no liquidity in %s/%s", toToken.Hex(), e.params.NativeToken().Hex())
	}
	value := new(big.Int).Mul(amountOut, reserveNative)
	return value.Div(value, reserveTo), nil
}

// payReward prices a fill's output in the native asset, applies the current
// reward rate, and mints the result to the filler who submitted the fill
// (not the order's recipient). Monotonic in amountOut and in the rate; a
// rate of zero always yields zero.
//
// Called only after the swap has executed and the fill state committed, so
// a pricing or mint fault degrades to a zero reward instead of voiding the
// fill; it never propagates.
func (e *Engine) payReward(filler, toToken common.Address, amountOut *big.Int, hash common.Hash) *big.Int {
	zero := new(big.Int)

	rate := e.params.RewardRate()
	if rate.Sign() == 0 {
		return zero
	}
	if toToken == e.params.NativeToken() {
		// Output is already native-denominated; no conversion needed.
		return e.mintReward(filler, amountOut, rate, hash)
	}

	value, err := e.quoteNative(toToken, amountOut)
	if err != nil {
		e.log.Warnw("reward_pricing_failed", "hash", hash.Hex(), "err", err)
		return zero
	}
	return e.mintReward(filler, value, rate, hash)
}

func (e *Engine) mintReward(filler common.Address, nativeValue, rate *big.Int, hash common.Hash) *big.Int {
	reward := new(big.Int).Mul(nativeValue, rate)
	reward.Div(reward, RewardRateScale)
	if reward.Sign() == 0 {
		return reward
	}
	if err := e.minter.Mint(e.params.RewardToken(), filler, reward); err != nil {
		e.log.Warnw("reward_mint_failed", "hash", hash.Hex(), "err", err)
		return new(big.Int)
	}
	return reward
}
