package tonwallet

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo"
)

func localCellSigner(priv ed25519.PrivateKey) *CellSigner {
	return &CellSigner{sign: func(_ context.Context, cell []byte) ([]byte, error) {
		hash := sha256.Sum256(cell)
		return ed25519.Sign(priv, hash[:]), nil
	}}
}

func TestBuildAndVerifyProof(t *testing.T) {
	words := testMnemonic(t)
	pub, priv, err := DeriveKeyPair(words)
	require.NoError(t, err)

	w := Wallet{
		PublicKey: hex.EncodeToString(pub),
		Address:   tongo.MustParseAccountID("0:0000000000000000000000000000000000000000000000000000000000000000"),
		Network:   -239,
	}

	proof, err := BuildProof(context.Background(), w, localCellSigner(priv), "dapp.example.org", "nonce-123")
	require.NoError(t, err)
	assert.Equal(t, "dapp.example.org", proof.Domain.Value)
	assert.EqualValues(t, len("dapp.example.org"), proof.Domain.LengthBytes)
	assert.Equal(t, "nonce-123", proof.Payload)

	assert.True(t, VerifyProof(pub, w.Address, proof))
}

func TestVerifyProofRejectsTampering(t *testing.T) {
	words := testMnemonic(t)
	pub, priv, err := DeriveKeyPair(words)
	require.NoError(t, err)

	addr := tongo.MustParseAccountID("0:0000000000000000000000000000000000000000000000000000000000000000")
	w := Wallet{Address: addr}

	proof, err := BuildProof(context.Background(), w, localCellSigner(priv), "dapp.example.org", "nonce-123")
	require.NoError(t, err)

	tampered := *proof
	tampered.Domain = ProofDomain{LengthBytes: uint32(len("evil.example.org")), Value: "evil.example.org"}
	assert.False(t, VerifyProof(pub, addr, &tampered))

	tampered = *proof
	tampered.Payload = "other-nonce"
	assert.False(t, VerifyProof(pub, addr, &tampered))

	otherAddr := tongo.MustParseAccountID("0:1111111111111111111111111111111111111111111111111111111111111111")
	assert.False(t, VerifyProof(pub, otherAddr, proof))
}
