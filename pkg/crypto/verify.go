package crypto

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// signedMessagePrefix is the standard human-readable-message prefix some
// wallet tooling prepends before signing a 32-byte digest (EIP-191).
const signedMessagePrefix = "\x19Ethereum Signed Message:\n32"

// PrefixedDigest wraps a raw order digest the way prefix-signing wallets do:
// keccak256("\x19Ethereum Signed Message:\n32" || digest).
func PrefixedDigest(digest common.Hash) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signedMessagePrefix))
	h.Write(digest[:])
	var out common.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// VerifyMaker authenticates that maker signed the given order digest.
// Two acceptance paths, tried in order:
//  1. Direct: the signature was produced over the raw digest.
//  2. Prefixed: the signature was produced over PrefixedDigest(digest),
//     for wallets that refuse to sign raw 32-byte payloads.
//
// Both paths are equally valid authentication of the same order.
// Returns false on any malformed or mismatched signature; never panics.
func VerifyMaker(maker common.Address, digest common.Hash, signature []byte) bool {
	if maker == (common.Address{}) || len(signature) != 65 {
		return false
	}
	sig := normalizeSig(signature)
	if sig == nil {
		return false
	}

	if addr, err := RecoverAddress(digest.Bytes(), sig); err == nil && addr == maker {
		return true
	}

	wrapped := PrefixedDigest(digest)
	if addr, err := RecoverAddress(wrapped.Bytes(), sig); err == nil && addr == maker {
		return true
	}
	return false
}

// normalizeSig maps the recovery byte from the conventional 27/28 form to the
// 0/1 form ecrecover expects. Out-of-range values are a verification failure.
func normalizeSig(signature []byte) []byte {
	sig := make([]byte, 65)
	copy(sig, signature)
	switch {
	case sig[64] == 27 || sig[64] == 28:
		sig[64] -= 27
	case sig[64] == 0 || sig[64] == 1:
		// already normalized
	default:
		return nil
	}
	return sig
}
