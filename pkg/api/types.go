package api

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/raullenchai/sushiswap-settlement/pkg/crypto"
	"github.com/raullenchai/sushiswap-settlement/pkg/settlement"
)

// API request/response types for REST endpoints and WebSocket messages

// OrderPayload is the wire form of a limit order. Addresses are 0x-hex,
// amounts are decimal strings.
type OrderPayload struct {
	Maker        string `json:"maker"`
	FromToken    string `json:"fromToken"`
	ToToken      string `json:"toToken"`
	AmountIn     string `json:"amountIn"`
	AmountOutMin string `json:"amountOutMin"`
	Recipient    string `json:"recipient"`
	Deadline     string `json:"deadline"`
}

// FillSubmission is one fill attempt: the signed order plus this call's
// portion and routing path. Filler receives the reward.
type FillSubmission struct {
	Order          OrderPayload `json:"order"`
	Signature      string       `json:"signature"` // 0x-hex, 65 bytes
	AmountToFillIn string       `json:"amountToFillIn"`
	Path           []string     `json:"path"`
	Filler         string       `json:"filler"`
}

// BatchFillSubmission submits several fills as one best-effort batch.
type BatchFillSubmission struct {
	Filler string           `json:"filler"`
	Fills  []FillSubmission `json:"fills"`
}

// FillResult reports one fill attempt's outcome. AmountOut is "0" on every
// rejection path.
type FillResult struct {
	Hash      string `json:"hash"`
	AmountOut string `json:"amountOut"`
	Filled    bool   `json:"filled"`
}

// OrderStateInfo is the public read surface for one order digest.
type OrderStateInfo struct {
	Hash           string `json:"hash"`
	Status         string `json:"status"`
	FilledAmountIn string `json:"filledAmountIn"`
}

// FillInfo is one committed fill from the durable fill log.
type FillInfo struct {
	Filler    string `json:"filler"`
	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`
	Reward    string `json:"reward"`
	Timestamp int64  `json:"timestamp"`
}

// EngineParams is the public view of the engine's configuration.
type EngineParams struct {
	ChainID     string `json:"chainId"`
	EngineAddr  string `json:"engineAddr"`
	Owner       string `json:"owner"`
	NativeToken string `json:"nativeToken"`
	RewardToken string `json:"rewardToken"`
	RewardRate  string `json:"rewardRate"`
}

// AdminTokenRequest updates the reward token. Caller must be the owner.
type AdminTokenRequest struct {
	Caller string `json:"caller"`
	Token  string `json:"token"`
}

// AdminRateRequest updates the reward rate. Caller must be the owner.
type AdminRateRequest struct {
	Caller string `json:"caller"`
	Rate   string `json:"rate"`
}

// DevnetFundRequest credits a holder on the in-process exchange.
type DevnetFundRequest struct {
	Token  string `json:"token"`
	Holder string `json:"holder"`
	Amount string `json:"amount"`
}

// FillUpdate is broadcast over WebSocket for every successful fill.
type FillUpdate struct {
	Type      string `json:"type"` // "fill"
	Hash      string `json:"hash"`
	Filler    string `json:"filler"`
	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`
	Reward    string `json:"reward"`
	Timestamp int64  `json:"timestamp"`
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func decodeHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("hash must be %d bytes, got %d", common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// ToOrder converts the wire form into the signable order.
func (p *OrderPayload) ToOrder() (crypto.LimitOrder, error) {
	var o crypto.LimitOrder
	var err error
	if o.Maker, err = parseAddress(p.Maker); err != nil {
		return o, err
	}
	if o.FromToken, err = parseAddress(p.FromToken); err != nil {
		return o, err
	}
	if o.ToToken, err = parseAddress(p.ToToken); err != nil {
		return o, err
	}
	if o.Recipient, err = parseAddress(p.Recipient); err != nil {
		return o, err
	}
	if o.AmountIn, err = parseAmount(p.AmountIn); err != nil {
		return o, err
	}
	if o.AmountOutMin, err = parseAmount(p.AmountOutMin); err != nil {
		return o, err
	}
	if o.Deadline, err = parseAmount(p.Deadline); err != nil {
		return o, err
	}
	return o, nil
}

// FromOrder converts an order into its wire form.
func FromOrder(o *crypto.LimitOrder) OrderPayload {
	return OrderPayload{
		Maker:        o.Maker.Hex(),
		FromToken:    o.FromToken.Hex(),
		ToToken:      o.ToToken.Hex(),
		AmountIn:     o.AmountIn.String(),
		AmountOutMin: o.AmountOutMin.String(),
		Recipient:    o.Recipient.Hex(),
		Deadline:     o.Deadline.String(),
	}
}

// toFillRequest builds the engine request from a submission.
func (f *FillSubmission) toFillRequest() (*settlement.FillRequest, common.Address, error) {
	order, err := f.Order.ToOrder()
	if err != nil {
		return nil, common.Address{}, err
	}
	sig, err := hexutil.Decode(f.Signature)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("invalid signature: %w", err)
	}
	amount, err := parseAmount(f.AmountToFillIn)
	if err != nil {
		return nil, common.Address{}, err
	}
	path := make([]common.Address, len(f.Path))
	for i, hop := range f.Path {
		if path[i], err = parseAddress(hop); err != nil {
			return nil, common.Address{}, err
		}
	}
	filler, err := parseAddress(f.Filler)
	if err != nil {
		return nil, common.Address{}, err
	}
	return &settlement.FillRequest{
		Order:          order,
		Signature:      sig,
		AmountToFillIn: amount,
		Path:           path,
	}, filler, nil
}
