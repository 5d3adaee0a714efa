package crypto

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func testOrder(maker common.Address) *LimitOrder {
	return &LimitOrder{
		Maker:        maker,
		FromToken:    common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
		ToToken:      common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		AmountIn:     big.NewInt(1000),
		AmountOutMin: big.NewInt(500),
		Recipient:    maker,
		Deadline:     big.NewInt(1900000000),
	}
}

func TestHashDeterministic(t *testing.T) {
	signer, _ := GenerateKey()
	hasher := NewOrderHasher(DefaultDomain())
	order := testOrder(signer.Address())

	h1, err := hasher.Hash(order)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	h2, err := hasher.Hash(order)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hash not stable: %s != %s", h1.Hex(), h2.Hex())
	}
	if h1 == (common.Hash{}) {
		t.Error("hash is zero")
	}
}

func TestHashChangesWithFields(t *testing.T) {
	signer, _ := GenerateKey()
	hasher := NewOrderHasher(DefaultDomain())
	base := testOrder(signer.Address())
	baseHash, _ := hasher.Hash(base)

	mutations := map[string]func(o *LimitOrder){
		"maker":        func(o *LimitOrder) { o.Maker = common.HexToAddress("0x01") },
		"fromToken":    func(o *LimitOrder) { o.FromToken = common.HexToAddress("0x02") },
		"toToken":      func(o *LimitOrder) { o.ToToken = common.HexToAddress("0x03") },
		"amountIn":     func(o *LimitOrder) { o.AmountIn = big.NewInt(1001) },
		"amountOutMin": func(o *LimitOrder) { o.AmountOutMin = big.NewInt(501) },
		"recipient":    func(o *LimitOrder) { o.Recipient = common.HexToAddress("0x04") },
		"deadline":     func(o *LimitOrder) { o.Deadline = big.NewInt(1900000001) },
	}

	for field, mutate := range mutations {
		order := *base
		mutate(&order)
		h, err := hasher.Hash(&order)
		if err != nil {
			t.Fatalf("failed to hash with %s changed: %v", field, err)
		}
		if h == baseHash {
			t.Errorf("hash unchanged when %s changed", field)
		}
	}
}

func TestHashReplayScoped(t *testing.T) {
	signer, _ := GenerateKey()
	order := testOrder(signer.Address())

	base := DefaultDomain()
	baseHash, _ := NewOrderHasher(base).Hash(order)

	// Same fields, different network.
	otherChain := base
	otherChain.ChainID = big.NewInt(1)
	h, _ := NewOrderHasher(otherChain).Hash(order)
	if h == baseHash {
		t.Error("hash identical across chain ids; cross-network replay possible")
	}

	// Same fields, different engine deployment.
	otherEngine := base
	otherEngine.VerifyingContract = common.HexToAddress("0x05")
	h, _ = NewOrderHasher(otherEngine).Hash(order)
	if h == baseHash {
		t.Error("hash identical across engine deployments; cross-deployment replay possible")
	}
}

func TestOrderValidate(t *testing.T) {
	signer, _ := GenerateKey()
	if err := testOrder(signer.Address()).Validate(); err != nil {
		t.Fatalf("valid order rejected: %v", err)
	}

	cases := map[string]func(o *LimitOrder){
		"zero maker":     func(o *LimitOrder) { o.Maker = common.Address{} },
		"zero fromToken": func(o *LimitOrder) { o.FromToken = common.Address{} },
		"zero toToken":   func(o *LimitOrder) { o.ToToken = common.Address{} },
		"zero recipient": func(o *LimitOrder) { o.Recipient = common.Address{} },
		"nil amountIn":   func(o *LimitOrder) { o.AmountIn = nil },
		"zero amountIn":  func(o *LimitOrder) { o.AmountIn = big.NewInt(0) },
		"zero outMin":    func(o *LimitOrder) { o.AmountOutMin = big.NewInt(0) },
		"zero deadline":  func(o *LimitOrder) { o.Deadline = big.NewInt(0) },
	}
	for name, mutate := range cases {
		order := *testOrder(signer.Address())
		mutate(&order)
		if err := order.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
