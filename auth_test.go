package tonwallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAuth(t *testing.T) {
	storage := NewMemoryStorage()
	storage.SetAuth("pk1", AuthState{Kind: AuthLedger, PublicKey: "pk1"})

	auth, err := ResolveAuth(context.Background(), storage, "pk1")
	require.NoError(t, err)
	assert.Equal(t, AuthLedger, auth.Kind)
	assert.Equal(t, "pk1", auth.PublicKey)
}

func TestResolveAuthUnknownWallet(t *testing.T) {
	_, err := ResolveAuth(context.Background(), NewMemoryStorage(), "missing")
	require.ErrorIs(t, err, ErrUnknownWallet)
}
