package tonwallet

import "errors"

// Sentinel errors for the signing and connection core. Callers are expected
// to test with errors.Is; wrapped variants carry context.
var (
	// ErrUnknownWallet is returned when no auth configuration exists for a
	// wallet public key.
	ErrUnknownWallet = errors.New("tonwallet: unknown wallet")

	// ErrAuthRejected is returned when the user declines a local auth prompt
	// or the typed password fails to decrypt the stored secret.
	ErrAuthRejected = errors.New("tonwallet: authorization rejected")

	// ErrKeychainUnavailable is returned when no keychain collaborator is
	// present on the current platform.
	ErrKeychainUnavailable = errors.New("tonwallet: keychain unavailable")

	// ErrSecretNotFound is returned when the keychain has no entry for the
	// wallet key.
	ErrSecretNotFound = errors.New("tonwallet: secret not found")

	// ErrUnsupportedAuthMethod is returned when a raw secret is requested for
	// a backend that never exposes one (remote signer, signer deep link).
	ErrUnsupportedAuthMethod = errors.New("tonwallet: unsupported auth method")

	// ErrRemoteSigner is returned when the remote signer or ledger channel
	// rejects a request or replies with a malformed result.
	ErrRemoteSigner = errors.New("tonwallet: remote signer failed")

	// ErrNavigatedAway signals that the signer deep-link flow handed control
	// to an external application. It aborts the caller's await chain and is
	// not a user-facing failure; the real signature arrives out of band.
	ErrNavigatedAway = errors.New("tonwallet: navigated away to external signer")

	// ErrUnexpectedAuthMethod is returned when an auth state falls through an
	// otherwise exhaustive dispatch.
	ErrUnexpectedAuthMethod = errors.New("tonwallet: unexpected auth method")
)
