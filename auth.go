package tonwallet

import (
	"context"
	"fmt"
)

// AuthKind enumerates the credential-access methods a wallet can be
// configured with.
type AuthKind string

const (
	AuthNone           AuthKind = "none"
	AuthPassword       AuthKind = "password"
	AuthKeychain       AuthKind = "keychain"
	AuthSigner         AuthKind = "signer"
	AuthSignerDeeplink AuthKind = "signer-deeplink"
	AuthLedger         AuthKind = "ledger"
)

// AuthState is the configured authorization method of one wallet. A wallet
// has exactly one at a time; it is written elsewhere and read-only here.
type AuthState struct {
	Kind      AuthKind `json:"kind" msgpack:"kind"`
	PublicKey string   `json:"publicKey" msgpack:"public_key"`
}

// ResolveAuth maps a wallet public key to its configured auth method. Pure
// read, no side effects.
func ResolveAuth(ctx context.Context, storage Storage, pubkey string) (*AuthState, error) {
	auth, err := storage.GetAuth(ctx, pubkey)
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to resolve auth for wallet: %w", err)
	}

	return auth, nil
}
