package tonwallet

import (
	"context"
	"fmt"
	"strings"
)

// passwordPrompt is the payload published on the getPassword topic.
type passwordPrompt struct {
	PublicKey string `json:"publicKey"`
}

// SecretProvider obtains the signing secret (mnemonic words) through the
// channel appropriate to a wallet's auth method.
type SecretProvider struct {
	storage  Storage
	channel  *PairedChannel
	keychain Keychain
}

type secretProviderOption = func(*SecretProvider)

func NewSecretProvider(storage Storage, channel *PairedChannel, options ...secretProviderOption) *SecretProvider {
	p := &SecretProvider{storage: storage, channel: channel}
	for _, opt := range options {
		opt(p)
	}

	return p
}

// WithKeychain attaches the platform keychain collaborator where one exists.
func WithKeychain(keychain Keychain) secretProviderOption {
	return func(p *SecretProvider) {
		p.keychain = keychain
	}
}

// ObtainSecret returns the mnemonic words for a wallet.
//
// AuthNone reads storage directly and never prompts. AuthPassword prompts
// through the paired channel and decrypts the stored blob with the typed
// password; any rejection or decrypt failure surfaces as ErrAuthRejected.
// AuthKeychain delegates to the platform keychain. The remote backends never
// expose a raw secret; asking for one is a programming error.
func (p *SecretProvider) ObtainSecret(ctx context.Context, auth *AuthState) ([]string, error) {
	switch auth.Kind {
	case AuthNone:
		words, err := p.storage.GetMnemonic(ctx, auth.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("tonwallet: failed to read stored mnemonic: %w", err)
		}

		return words, nil

	case AuthPassword:
		res, err := p.channel.Request(ctx, TopicGetPassword, passwordPrompt{PublicKey: auth.PublicKey})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAuthRejected, err)
		}
		password, ok := res.(string)
		if !ok {
			return nil, fmt.Errorf("%w: password prompt returned a non-string value", ErrAuthRejected)
		}

		blob, err := p.storage.GetEncryptedMnemonic(ctx, auth.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("tonwallet: failed to read encrypted mnemonic: %w", err)
		}
		words, err := DecryptMnemonic(blob, password)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAuthRejected, err)
		}

		return words, nil

	case AuthKeychain:
		if p.keychain == nil {
			return nil, ErrKeychainUnavailable
		}
		secret, err := p.keychain.GetPassword(ctx, auth.PublicKey)
		if err != nil {
			return nil, err
		}

		return strings.Fields(secret), nil

	case AuthSigner, AuthSignerDeeplink, AuthLedger:
		return nil, fmt.Errorf("%w: %s backend never exposes the secret", ErrUnsupportedAuthMethod, auth.Kind)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedAuthMethod, auth.Kind)
	}
}
