package tonwallet

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/tonkeeper/tongo"
)

const (
	tonProofPrefix   string = "ton-proof-item-v2/"
	tonConnectPrefix string = "ton-connect"
)

// ProofDomain identifies the dApp host the proof was issued for.
type ProofDomain struct {
	LengthBytes uint32 `json:"lengthBytes"`
	Value       string `json:"value"`
}

// Proof is the ton_proof attestation of address ownership.
type Proof struct {
	Timestamp uint64      `json:"timestamp"`
	Domain    ProofDomain `json:"domain"`
	Signature []byte      `json:"signature"`
	Payload   string      `json:"payload"`
}

// proofMessage assembles the bytes whose sha256 hash is signed:
// sha256("ton-proof-item-v2/" | workchain | address | domain | timestamp |
// payload) wrapped in 0xffff | "ton-connect".
func proofMessage(addr tongo.AccountID, domain ProofDomain, timestamp uint64, payload string) []byte {
	wc := make([]byte, 4)
	binary.BigEndian.PutUint32(wc, uint32(addr.Workchain))

	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, timestamp)

	dl := make([]byte, 4)
	binary.LittleEndian.PutUint32(dl, domain.LengthBytes)

	m := []byte(tonProofPrefix)
	m = append(m, wc...)
	m = append(m, addr.Address[:]...)
	m = append(m, dl...)
	m = append(m, []byte(domain.Value)...)
	m = append(m, ts...)
	m = append(m, []byte(payload)...)
	h := sha256.Sum256(m)

	full := []byte{0xff, 0xff}
	full = append(full, []byte(tonConnectPrefix)...)
	full = append(full, h[:]...)

	return full
}

// BuildProof signs an ownership proof for the wallet address over the given
// dApp payload and domain.
func BuildProof(ctx context.Context, w Wallet, signer *CellSigner, domain, payload string) (*Proof, error) {
	d := ProofDomain{LengthBytes: uint32(len(domain)), Value: domain}
	timestamp := uint64(time.Now().Unix())

	sig, err := signer.SignCell(ctx, proofMessage(w.Address, d, timestamp, payload))
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to sign proof: %w", err)
	}

	return &Proof{Timestamp: timestamp, Domain: d, Signature: sig, Payload: payload}, nil
}

// VerifyProof checks a ton_proof signature against the wallet public key.
func VerifyProof(pubkey ed25519.PublicKey, addr tongo.AccountID, p *Proof) bool {
	hash := sha256.Sum256(proofMessage(addr, p.Domain, p.Timestamp, p.Payload))

	return ed25519.Verify(pubkey, hash[:], p.Signature)
}
