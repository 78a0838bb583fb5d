package tonwallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Keychain is the platform secure-storage collaborator. It is optional; on
// platforms without one the secret provider reports ErrKeychainUnavailable.
type Keychain interface {
	GetPassword(ctx context.Context, key string) (string, error)
}

// OSKeychain backs the Keychain interface with the operating system keyring.
type OSKeychain struct {
	service string
}

func NewOSKeychain(service string) *OSKeychain {
	return &OSKeychain{service: service}
}

func (k *OSKeychain) GetPassword(_ context.Context, key string) (string, error) {
	secret, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrSecretNotFound
	}
	if err != nil {
		return "", fmt.Errorf("tonwallet: keychain read failed: %w", err)
	}

	return secret, nil
}

// SetPassword provisions an entry. Used by the surrounding application when
// a wallet is configured for keychain auth.
func (k *OSKeychain) SetPassword(_ context.Context, key, secret string) error {
	if err := keyring.Set(k.service, key, secret); err != nil {
		return fmt.Errorf("tonwallet: keychain write failed: %w", err)
	}

	return nil
}

func (k *OSKeychain) DeletePassword(_ context.Context, key string) error {
	if err := keyring.Delete(k.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("tonwallet: keychain delete failed: %w", err)
	}

	return nil
}

// Available probes the keyring with a throwaway entry. Some platforms expose
// the API but fail at runtime (locked daemons, headless sessions).
func (k *OSKeychain) Available() bool {
	const probeKey = "availability-probe"

	if err := keyring.Set(k.service, probeKey, "probe"); err != nil {
		return false
	}
	val, err := keyring.Get(k.service, probeKey)
	if err != nil || val != "probe" {
		_ = keyring.Delete(k.service, probeKey)
		return false
	}

	return keyring.Delete(k.service, probeKey) == nil
}
