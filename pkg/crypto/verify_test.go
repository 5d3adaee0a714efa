package crypto

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestVerifyMakerRawDigest(t *testing.T) {
	signer, _ := GenerateKey()
	hasher := NewOrderHasher(DefaultDomain())
	digest, _ := hasher.Hash(testOrder(signer.Address()))

	sig, err := signer.SignDigest(digest)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length = %d, want 65", len(sig))
	}
	if !VerifyMaker(signer.Address(), digest, sig) {
		t.Error("raw-digest signature rejected")
	}
}

func TestVerifyMakerPrefixedDigest(t *testing.T) {
	signer, _ := GenerateKey()
	hasher := NewOrderHasher(DefaultDomain())
	digest, _ := hasher.Hash(testOrder(signer.Address()))

	// Wallet-style signing: the tooling wraps the digest with the standard
	// message prefix before signing. Must be accepted as equally valid.
	sig, err := signer.SignPrefixedDigest(digest)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if !VerifyMaker(signer.Address(), digest, sig) {
		t.Error("prefixed signature rejected")
	}
}

func TestVerifyMakerWrongSigner(t *testing.T) {
	signer, _ := GenerateKey()
	other, _ := GenerateKey()
	hasher := NewOrderHasher(DefaultDomain())
	digest, _ := hasher.Hash(testOrder(signer.Address()))

	sig, _ := signer.SignDigest(digest)
	if VerifyMaker(other.Address(), digest, sig) {
		t.Error("signature verified against wrong signer")
	}
}

func TestVerifyMakerMalformedSignature(t *testing.T) {
	signer, _ := GenerateKey()
	hasher := NewOrderHasher(DefaultDomain())
	digest, _ := hasher.Hash(testOrder(signer.Address()))
	sig, _ := signer.SignDigest(digest)

	// Corrupted R
	corrupted := make([]byte, 65)
	copy(corrupted, sig)
	corrupted[0] ^= 0xff
	if VerifyMaker(signer.Address(), digest, corrupted) {
		t.Error("corrupted signature accepted")
	}

	// Out-of-range recovery byte
	badV := make([]byte, 65)
	copy(badV, sig)
	badV[64] = 99
	if VerifyMaker(signer.Address(), digest, badV) {
		t.Error("out-of-range recovery byte accepted")
	}

	// Wrong length
	if VerifyMaker(signer.Address(), digest, sig[:64]) {
		t.Error("truncated signature accepted")
	}
	if VerifyMaker(signer.Address(), digest, nil) {
		t.Error("nil signature accepted")
	}

	// Zero maker never verifies
	if VerifyMaker(common.Address{}, digest, sig) {
		t.Error("zero maker accepted")
	}
}

func TestPrefixedDigestDiffers(t *testing.T) {
	signer, _ := GenerateKey()
	hasher := NewOrderHasher(DefaultDomain())
	digest, _ := hasher.Hash(testOrder(signer.Address()))

	if PrefixedDigest(digest) == digest {
		t.Error("prefixed digest equals raw digest")
	}
}
