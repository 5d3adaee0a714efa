package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/raullenchai/sushiswap-settlement/pkg/api"
	"github.com/raullenchai/sushiswap-settlement/pkg/crypto"
)

func main() {
	// Step 1: Generate or load key
	fmt.Println("Generating new keypair...")
	signer, err := crypto.GenerateKey()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Address: %s\n", signer.Address().Hex())
	fmt.Printf("Private Key: %s (KEEP SECRET!)\n\n", signer.PrivateKeyHex())

	// Step 2: Create order
	order := &crypto.LimitOrder{
		Maker:        signer.Address(),
		FromToken:    common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
		ToToken:      common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		AmountIn:     big.NewInt(1_000_000),
		AmountOutMin: big.NewInt(500),
		Recipient:    signer.Address(),
		Deadline:     big.NewInt(time.Now().Add(24 * time.Hour).Unix()),
	}

	fmt.Println("Order Details:")
	fmt.Printf("  FromToken: %s\n", order.FromToken.Hex())
	fmt.Printf("  ToToken: %s\n", order.ToToken.Hex())
	fmt.Printf("  AmountIn: %s\n", order.AmountIn.String())
	fmt.Printf("  AmountOutMin: %s\n", order.AmountOutMin.String())
	fmt.Printf("  Deadline: %s\n\n", order.Deadline.String())

	// Step 3: Hash and sign
	hasher := crypto.NewOrderHasher(crypto.DefaultDomain())
	digest, err := hasher.Hash(order)
	if err != nil {
		fmt.Printf("Error hashing: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Order Hash: %s\n", digest.Hex())

	signature, err := signer.SignDigest(digest)
	if err != nil {
		fmt.Printf("Error signing: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Signature: 0x%x\n\n", signature)

	// Step 4: Verify both acceptance paths
	fmt.Println("Verifying signature...")
	if !crypto.VerifyMaker(order.Maker, digest, signature) {
		fmt.Println("✗ Raw-digest signature INVALID")
		os.Exit(1)
	}
	fmt.Println("✓ Raw-digest signature VALID")

	prefixed, _ := signer.SignPrefixedDigest(digest)
	if !crypto.VerifyMaker(order.Maker, digest, prefixed) {
		fmt.Println("✗ Prefixed signature INVALID")
		os.Exit(1)
	}
	fmt.Println("✓ Prefixed signature VALID (wallet-style signing works too)")
	fmt.Println()

	// Step 5: Build a submittable fill request
	fill := api.FillSubmission{
		Order:          api.FromOrder(order),
		Signature:      fmt.Sprintf("0x%x", signature),
		AmountToFillIn: order.AmountIn.String(),
		Path:           []string{order.FromToken.Hex(), order.ToToken.Hex()},
		Filler:         signer.Address().Hex(),
	}
	fillJSON, err := json.MarshalIndent(fill, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Fund the maker on a devnet node first:")
	fmt.Printf("  POST http://localhost:8080/api/v1/devnet/fund\n")
	fmt.Printf("  {\"token\": %q, \"holder\": %q, \"amount\": %q}\n\n",
		order.FromToken.Hex(), order.Maker.Hex(), order.AmountIn.String())

	fmt.Println("To submit a fill against this order:")
	fmt.Println("  POST http://localhost:8080/api/v1/fill")
	fmt.Println("  Content-Type: application/json")
	fmt.Println("  Body:")
	fmt.Println(string(fillJSON))
}
