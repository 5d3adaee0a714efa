package gossip

import (
	"bytes"
	"encoding/gob"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/raullenchai/sushiswap-settlement/pkg/settlement"
)

func init() {
	gob.Register(FillWire{})
}

// FillWire is the gob form of a fill announcement. Amounts travel as
// big-endian bytes so the encoding is independent of big.Int internals.
type FillWire struct {
	Hash      [32]byte
	Filler    [20]byte
	AmountIn  []byte
	AmountOut []byte
	Reward    []byte
	Timestamp int64
}

func toWire(ev settlement.FillEvent) FillWire {
	var w FillWire
	copy(w.Hash[:], ev.Hash[:])
	copy(w.Filler[:], ev.Filler[:])
	w.AmountIn = ev.AmountIn.Bytes()
	w.AmountOut = ev.AmountOut.Bytes()
	w.Reward = ev.Reward.Bytes()
	w.Timestamp = ev.Timestamp
	return w
}

func fromWire(w FillWire) settlement.FillEvent {
	return settlement.FillEvent{
		Hash:      common.Hash(w.Hash),
		Filler:    common.Address(w.Filler),
		AmountIn:  new(big.Int).SetBytes(w.AmountIn),
		AmountOut: new(big.Int).SetBytes(w.AmountOut),
		Reward:    new(big.Int).SetBytes(w.Reward),
		Timestamp: w.Timestamp,
	}
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(b []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}
