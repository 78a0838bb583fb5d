package tonwallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"strings"

	"github.com/kevinburke/nacl"
	"github.com/kevinburke/nacl/secretbox"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
)

const (
	mnemonicSaltSize  = 16
	passwordKeyRounds = 100_000
)

// DeriveKeyPair turns mnemonic words into the wallet's ed25519 key pair.
func DeriveKeyPair(words []string) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	phrase := strings.Join(words, " ")
	if !bip39.IsMnemonicValid(phrase) {
		return nil, nil, fmt.Errorf("tonwallet: invalid mnemonic phrase")
	}

	seed := bip39.NewSeed(phrase, "")
	priv := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])

	return priv.Public().(ed25519.PublicKey), priv, nil
}

// EncryptMnemonic seals mnemonic words with a password-derived key. The
// random salt is prepended to the box.
func EncryptMnemonic(words []string, password string) ([]byte, error) {
	salt := make([]byte, mnemonicSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("tonwallet: failed to generate salt: %w", err)
	}

	box := secretbox.EasySeal([]byte(strings.Join(words, " ")), passwordKey(password, salt))

	return append(salt, box...), nil
}

// DecryptMnemonic opens a blob produced by EncryptMnemonic. A wrong password
// fails the authenticated open.
func DecryptMnemonic(blob []byte, password string) ([]string, error) {
	if len(blob) <= mnemonicSaltSize {
		return nil, fmt.Errorf("tonwallet: encrypted mnemonic too short")
	}

	salt, box := blob[:mnemonicSaltSize], blob[mnemonicSaltSize:]
	phrase, err := secretbox.EasyOpen(box, passwordKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to decrypt mnemonic: %w", err)
	}

	return strings.Fields(string(phrase)), nil
}

func passwordKey(password string, salt []byte) nacl.Key {
	derived := pbkdf2.Key([]byte(password), salt, passwordKeyRounds, nacl.KeySize, sha512.New)
	key := new([nacl.KeySize]byte)
	copy(key[:], derived)

	return nacl.Key(key)
}
