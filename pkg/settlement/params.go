package settlement

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// RewardRateScale is the fixed-point scale of the reward rate (1e18).
var RewardRateScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ErrNotOwner is returned when a non-owner calls an admin mutator.
var ErrNotOwner = fmt.Errorf("caller is not the owner")

// Params holds the engine's owner-controlled parameters. The native token
// and owner are fixed at construction; reward token and reward rate are
// owner-gated and take effect immediately for subsequent fills.
type Params struct {
	mu          sync.RWMutex
	owner       common.Address
	nativeToken common.Address // Network-native asset the reward is priced against
	rewardToken common.Address
	rewardRate  *big.Int // Reward per filled native-asset value, RewardRateScale fixed-point
}

// NewParams creates the parameter set. rewardRate may be zero (no rewards).
func NewParams(owner, nativeToken, rewardToken common.Address, rewardRate *big.Int) *Params {
	if rewardRate == nil {
		rewardRate = new(big.Int)
	}
	return &Params{
		owner:       owner,
		nativeToken: nativeToken,
		rewardToken: rewardToken,
		rewardRate:  new(big.Int).Set(rewardRate),
	}
}

// Owner returns the admin address.
func (p *Params) Owner() common.Address { return p.owner }

// NativeToken returns the asset rewards are priced against.
func (p *Params) NativeToken() common.Address { return p.nativeToken }

// RewardToken returns the token currently minted as filler incentive.
func (p *Params) RewardToken() common.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rewardToken
}

// RewardRate returns the current fixed-point reward rate.
func (p *Params) RewardRate() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.rewardRate)
}

// SetRewardToken replaces the reward token. Owner only; no further
// validation, mirroring the administrative surface it models.
func (p *Params) SetRewardToken(caller, token common.Address) error {
	if caller != p.owner {
		return ErrNotOwner
	}
	p.mu.Lock()
	p.rewardToken = token
	p.mu.Unlock()
	return nil
}

// SetRewardRate replaces the reward rate. Owner only.
// Fills already committed are unaffected.
func (p *Params) SetRewardRate(caller common.Address, rate *big.Int) error {
	if caller != p.owner {
		return ErrNotOwner
	}
	if rate == nil {
		rate = new(big.Int)
	}
	p.mu.Lock()
	p.rewardRate = new(big.Int).Set(rate)
	p.mu.Unlock()
	return nil
}
