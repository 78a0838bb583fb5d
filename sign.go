package tonwallet

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Signer is a capability-tagged signing callable. Exactly two variants
// exist: CellSigner takes a serialized message payload, LedgerSigner takes a
// derivation path plus a structured transaction. The capability is fixed at
// construction; callers type-switch before invoking.
type Signer interface {
	signer()
}

// CellSigner signs an opaque serialized cell and returns a raw signature.
type CellSigner struct {
	sign func(ctx context.Context, cell []byte) ([]byte, error)
}

func (s *CellSigner) signer() {}

func (s *CellSigner) SignCell(ctx context.Context, cell []byte) ([]byte, error) {
	return s.sign(ctx, cell)
}

// LedgerSigner signs a structured transaction on a hardware device.
type LedgerSigner struct {
	sign func(ctx context.Context, path []uint32, tx *Transaction) (*LedgerSignResult, error)
}

func (s *LedgerSigner) signer() {}

func (s *LedgerSigner) SignTransaction(ctx context.Context, path []uint32, tx *Transaction) (*LedgerSignResult, error) {
	return s.sign(ctx, path, tx)
}

// LedgerSignResult is the object-shaped reply from the ledger channel.
type LedgerSignResult struct {
	Signature     []byte `json:"signature"`
	SignedMessage []byte `json:"signedMessage,omitempty"`
}

type remoteSignParams struct {
	PublicKey string `json:"publicKey"`
	Cell      string `json:"cell"`
}

type ledgerSignParams struct {
	PublicKey   string       `json:"publicKey"`
	Path        []uint32     `json:"path"`
	Transaction *Transaction `json:"transaction"`
}

// Navigator changes the application's current navigation target. The signer
// deep-link flow uses it to hand control to an external application; the
// effect is deliberate and irreversible.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

const deeplinkAbortDelay = 2 * time.Second

// SignerFactory builds the Signer appropriate to a wallet's configured auth
// method.
type SignerFactory struct {
	storage       Storage
	channel       *PairedChannel
	secrets       *SecretProvider
	nav           Navigator
	log           *zap.Logger
	deeplinkDelay time.Duration
}

type signerFactoryOption = func(*SignerFactory)

func NewSignerFactory(storage Storage, channel *PairedChannel, secrets *SecretProvider, options ...signerFactoryOption) *SignerFactory {
	f := &SignerFactory{
		storage:       storage,
		channel:       channel,
		secrets:       secrets,
		log:           zap.NewNop(),
		deeplinkDelay: deeplinkAbortDelay,
	}
	for _, opt := range options {
		opt(f)
	}

	return f
}

func WithNavigator(nav Navigator) signerFactoryOption {
	return func(f *SignerFactory) {
		f.nav = nav
	}
}

func WithSignerLogger(log *zap.Logger) signerFactoryOption {
	return func(f *SignerFactory) {
		f.log = log
	}
}

// WithDeeplinkDelay overrides the fixed delay before the deep-link branch
// aborts.
func WithDeeplinkDelay(d time.Duration) signerFactoryOption {
	return func(f *SignerFactory) {
		f.deeplinkDelay = d
	}
}

// CreateSigner resolves the wallet's auth state and dispatches to the
// matching backend.
func (f *SignerFactory) CreateSigner(ctx context.Context, pubkey string) (Signer, error) {
	auth, err := ResolveAuth(ctx, f.storage, pubkey)
	if err != nil {
		return nil, err
	}

	switch auth.Kind {
	case AuthSigner:
		return &CellSigner{sign: f.remoteSign(auth)}, nil
	case AuthSignerDeeplink:
		return &CellSigner{sign: f.deeplinkSign(auth)}, nil
	case AuthLedger:
		return &LedgerSigner{sign: f.ledgerSign(auth)}, nil
	case AuthNone, AuthPassword, AuthKeychain:
		return &CellSigner{sign: f.localSign(auth)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedAuthMethod, auth.Kind)
	}
}

// remoteSign round-trips the cell through the paired signer application.
// The cell travels base64-encoded; the signature comes back as a hex string.
func (f *SignerFactory) remoteSign(auth *AuthState) func(context.Context, []byte) ([]byte, error) {
	return func(ctx context.Context, cell []byte) ([]byte, error) {
		res, err := f.channel.Request(ctx, TopicSigner, remoteSignParams{
			PublicKey: auth.PublicKey,
			Cell:      base64.StdEncoding.EncodeToString(cell),
		})
		if err != nil {
			return nil, err
		}

		encoded, ok := res.(string)
		if !ok {
			return nil, fmt.Errorf("%w: signature expected to be a string, got %T", ErrRemoteSigner, res)
		}
		sig, err := hex.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse signature: %w", ErrRemoteSigner, err)
		}

		return sig, nil
	}
}

// ledgerSign round-trips the derivation path and transaction through the
// hardware device channel. The reply must be object-shaped.
func (f *SignerFactory) ledgerSign(auth *AuthState) func(context.Context, []uint32, *Transaction) (*LedgerSignResult, error) {
	return func(ctx context.Context, path []uint32, tx *Transaction) (*LedgerSignResult, error) {
		res, err := f.channel.Request(ctx, TopicLedger, ledgerSignParams{
			PublicKey:   auth.PublicKey,
			Path:        path,
			Transaction: tx,
		})
		if err != nil {
			return nil, err
		}

		switch r := res.(type) {
		case *LedgerSignResult:
			return r, nil
		case LedgerSignResult:
			return &r, nil
		case json.RawMessage:
			var out LedgerSignResult
			if err := json.Unmarshal(r, &out); err != nil {
				return nil, fmt.Errorf("%w: malformed ledger result: %w", ErrRemoteSigner, err)
			}
			return &out, nil
		case string:
			return nil, fmt.Errorf("%w: ledger result expected to be object-shaped", ErrRemoteSigner)
		default:
			return nil, fmt.Errorf("%w: unsupported ledger result type %T", ErrRemoteSigner, res)
		}
	}
}

// deeplinkSign persists the pending payload, opens the external signer
// application, and after a fixed delay unconditionally aborts with
// ErrNavigatedAway. This callable never returns a signature; the real one
// arrives through a separate out-of-band flow.
func (f *SignerFactory) deeplinkSign(auth *AuthState) func(context.Context, []byte) ([]byte, error) {
	return func(ctx context.Context, cell []byte) ([]byte, error) {
		if err := f.storage.SetPendingTransaction(ctx, auth.PublicKey, cell); err != nil {
			return nil, fmt.Errorf("tonwallet: failed to persist pending transaction: %w", err)
		}

		link, err := GenerateSignerDeeplink(auth.PublicKey, cell)
		if err != nil {
			return nil, err
		}
		if f.nav != nil {
			if err := f.nav.Navigate(ctx, link); err != nil {
				return nil, fmt.Errorf("tonwallet: failed to open signer deep link: %w", err)
			}
		}
		f.log.Debug("handed off to external signer", zap.String("wallet", auth.PublicKey))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.deeplinkDelay):
			return nil, ErrNavigatedAway
		}
	}
}

// localSign obtains the mnemonic through the secret provider, derives the
// key pair, and signs the cell hash directly.
func (f *SignerFactory) localSign(auth *AuthState) func(context.Context, []byte) ([]byte, error) {
	return func(ctx context.Context, cell []byte) ([]byte, error) {
		words, err := f.secrets.ObtainSecret(ctx, auth)
		if err != nil {
			return nil, err
		}
		_, priv, err := DeriveKeyPair(words)
		if err != nil {
			return nil, err
		}

		hash := sha256.Sum256(cell)

		return ed25519.Sign(priv, hash[:]), nil
	}
}
