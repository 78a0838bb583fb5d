package tonwallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyPairDeterministic(t *testing.T) {
	words := testMnemonic(t)

	pub1, priv1, err := DeriveKeyPair(words)
	require.NoError(t, err)
	pub2, priv2, err := DeriveKeyPair(words)
	require.NoError(t, err)

	assert.Equal(t, pub1, pub2)
	assert.Equal(t, priv1, priv2)
}

func TestDeriveKeyPairRejectsInvalidPhrase(t *testing.T) {
	_, _, err := DeriveKeyPair([]string{"definitely", "not", "a", "mnemonic"})
	require.Error(t, err)
}

func TestMnemonicEncryptionRoundTrip(t *testing.T) {
	words := testMnemonic(t)

	blob, err := EncryptMnemonic(words, "opensesame")
	require.NoError(t, err)

	got, err := DecryptMnemonic(blob, "opensesame")
	require.NoError(t, err)
	assert.Equal(t, words, got)

	_, err = DecryptMnemonic(blob, "wrong")
	require.Error(t, err)

	_, err = DecryptMnemonic([]byte("short"), "opensesame")
	require.Error(t, err)
}
