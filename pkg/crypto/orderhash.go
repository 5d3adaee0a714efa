package crypto

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Domain is the EIP-712 domain separator for order hashing.
// ChainID and VerifyingContract bind a signed order to exactly one network
// and one settlement engine deployment: the same order fields signed for a
// different chain or a different engine produce a different digest, so a
// signature can never be replayed across deployments.
type Domain struct {
	Name              string         // Protocol name (e.g., "SushiSettlement")
	Version           string         // Protocol version (e.g., "1")
	ChainID           *big.Int       // Network identifier
	VerifyingContract common.Address // Settlement engine deployment identity
}

// DefaultDomain returns the domain used by the local devnet.
func DefaultDomain() Domain {
	return Domain{
		Name:              "SushiSettlement",
		Version:           "1",
		ChainID:           big.NewInt(1337),
		VerifyingContract: common.Address{},
	}
}

// OrderHasher computes the deterministic EIP-712 digest of a LimitOrder.
// The digest doubles as the order's unique key and as the signed message.
type OrderHasher struct {
	domain Domain
}

// NewOrderHasher creates an order hasher bound to the given domain.
func NewOrderHasher(domain Domain) *OrderHasher {
	return &OrderHasher{domain: domain}
}

// Domain returns the hasher's domain separator.
func (h *OrderHasher) Domain() Domain { return h.domain }

// Hash computes the order digest according to EIP-712.
// Pure function of the order's fields plus the hasher's domain; two calls
// with the same inputs always yield the same digest.
func (h *OrderHasher) Hash(order *LimitOrder) (common.Hash, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"LimitOrder": []apitypes.Type{
				{Name: "maker", Type: "address"},
				{Name: "fromToken", Type: "address"},
				{Name: "toToken", Type: "address"},
				{Name: "amountIn", Type: "uint256"},
				{Name: "amountOutMin", Type: "uint256"},
				{Name: "recipient", Type: "address"},
				{Name: "deadline", Type: "uint256"},
			},
		},
		PrimaryType: "LimitOrder",
		Domain: apitypes.TypedDataDomain{
			Name:              h.domain.Name,
			Version:           h.domain.Version,
			ChainId:           (*math.HexOrDecimal256)(h.domain.ChainID),
			VerifyingContract: h.domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"maker":        order.Maker.Hex(),
			"fromToken":    order.FromToken.Hex(),
			"toToken":      order.ToToken.Hex(),
			"amountIn":     order.AmountIn.String(),
			"amountOutMin": order.AmountOutMin.String(),
			"recipient":    order.Recipient.Hex(),
			"deadline":     order.Deadline.String(),
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash domain: %w", err)
	}

	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash order: %w", err)
	}

	// Final digest: keccak256("\x19\x01" || domainSeparator || typedDataHash)
	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	return crypto.Keccak256Hash(rawData), nil
}
