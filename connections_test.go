package tonwallet

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/kevinburke/nacl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConn(id, walletID string) AccountConnection {
	return AccountConnection{
		ClientSessionID: id,
		WalletID:        walletID,
		ManifestURL:     "https://dapp.example.org/manifest.json",
		ConnectedAt:     time.Unix(1700000000, 0),
	}
}

type fakePush struct {
	subscribed   []string
	unsubscribed []string
	err          error
}

func (p *fakePush) SubscribeTonConnect(_ context.Context, clientSessionID, _ string) error {
	p.subscribed = append(p.subscribed, clientSessionID)
	return p.err
}

func (p *fakePush) UnsubscribeTonConnect(_ context.Context, clientSessionID string) error {
	p.unsubscribed = append(p.unsubscribed, clientSessionID)
	return p.err
}

func TestSaveConnectionUpsertsByClientSessionID(t *testing.T) {
	ctx := context.Background()
	m := NewConnectionManager(NewMemoryStorage())

	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("a", "w1")))
	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("b", "w1")))

	updated := testConn("a", "w1")
	updated.WebViewURL = "https://dapp.example.org/app"
	require.NoError(t, m.SaveConnection(ctx, "w1", updated))

	listed, err := m.ListConnections(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, listed["w1"], 2)
	assert.Equal(t, "a", listed["w1"][0].ClientSessionID)
	assert.Equal(t, "https://dapp.example.org/app", listed["w1"][0].WebViewURL)
	assert.Equal(t, "b", listed["w1"][1].ClientSessionID)
}

func TestDisconnectRemovesOnlyMatching(t *testing.T) {
	ctx := context.Background()
	m := NewConnectionManager(NewMemoryStorage())
	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("a", "w1")))
	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("b", "w1")))

	removed, err := m.Disconnect(ctx, "w1", testConn("a", "w1"))
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, "a", removed[0].ClientSessionID)

	listed, err := m.ListConnections(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, listed["w1"], 1)
	assert.Equal(t, "b", listed["w1"][0].ClientSessionID)
}

func TestDisconnectUnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	m := NewConnectionManager(NewMemoryStorage())
	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("a", "w1")))

	removed, err := m.Disconnect(ctx, "w1", testConn("zzz", "w1"))
	require.NoError(t, err)
	assert.Empty(t, removed)

	listed, err := m.ListConnections(ctx, "w1")
	require.NoError(t, err)
	assert.Len(t, listed["w1"], 1)
}

func TestDisconnectRequestedByDApp(t *testing.T) {
	ctx := context.Background()
	m := NewConnectionManager(NewMemoryStorage())

	clientID := nacl.NewKey()
	require.NoError(t, m.SaveConnection(ctx, "w1", testConn(hex.EncodeToString(clientID[:]), "w1")))
	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("other", "w1")))

	msg := BridgeMessage{From: clientID, Request: AppRequest{ID: "9", Method: "disconnect"}}
	removed, err := m.DisconnectRequested(ctx, "w1", msg)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, hex.EncodeToString(clientID[:]), removed[0].ClientSessionID)

	listed, err := m.ListConnections(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, listed["w1"], 1)
	assert.Equal(t, "other", listed["w1"][0].ClientSessionID)

	_, err = m.DisconnectRequested(ctx, "w1", BridgeMessage{From: clientID, Request: AppRequest{Method: "sendTransaction"}})
	require.Error(t, err)
}

func TestDisconnectAll(t *testing.T) {
	ctx := context.Background()
	m := NewConnectionManager(NewMemoryStorage())
	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("a", "w1")))
	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("b", "w1")))

	removed, err := m.DisconnectAll(ctx, "w1")
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	listed, err := m.ListConnections(ctx, "w1")
	require.NoError(t, err)
	assert.Empty(t, listed["w1"])

	// Second pass is idempotent: still empty, nothing newly removed.
	removed, err = m.DisconnectAll(ctx, "w1")
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestDisconnectAccountsFansOut(t *testing.T) {
	ctx := context.Background()
	m := NewConnectionManager(NewMemoryStorage())
	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("a", "w1")))
	require.NoError(t, m.SaveConnection(ctx, "w2", testConn("b", "w2")))
	require.NoError(t, m.SaveConnection(ctx, "w2", testConn("c", "w2")))

	accounts := []Account{
		{ID: "acc1", Wallets: []string{"w1"}},
		{ID: "acc2", Wallets: []string{"w2", "w3"}},
	}
	combined, err := m.DisconnectAccounts(ctx, accounts)
	require.NoError(t, err)
	assert.Len(t, combined, 3)

	listed, err := m.ListConnections(ctx, "w1", "w2", "w3")
	require.NoError(t, err)
	for walletID, conns := range listed {
		assert.Empty(t, conns, "wallet %s", walletID)
	}
}

func TestDisconnectPushFailureNotPropagated(t *testing.T) {
	ctx := context.Background()
	push := &fakePush{err: assert.AnError}
	m := NewConnectionManager(NewMemoryStorage(), WithPushService(push))

	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("a", "w1")))

	removed, err := m.DisconnectAll(ctx, "w1")
	require.NoError(t, err, "push failures are best-effort")
	assert.Len(t, removed, 1)
	assert.Equal(t, []string{"a"}, push.unsubscribed)
}

func TestDisconnectNotifiesObservers(t *testing.T) {
	ctx := context.Background()
	m := NewConnectionManager(NewMemoryStorage())
	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("a", "w1")))
	require.NoError(t, m.SaveConnection(ctx, "w1", testConn("b", "w1")))

	var gotWallet string
	var gotRemoved []AccountConnection
	unsub := m.OnDisconnect(func(walletID string, removed []AccountConnection) {
		gotWallet = walletID
		gotRemoved = removed
	})

	_, err := m.Disconnect(ctx, "w1", testConn("a", "w1"))
	require.NoError(t, err)
	assert.Equal(t, "w1", gotWallet)
	require.Len(t, gotRemoved, 1)
	assert.Equal(t, "a", gotRemoved[0].ClientSessionID)

	unsub()
	gotRemoved = nil
	_, err = m.DisconnectAll(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, gotRemoved, "removed observer must not fire")
}

func TestDisconnectEmptySetNoObserverNoise(t *testing.T) {
	ctx := context.Background()
	m := NewConnectionManager(NewMemoryStorage())

	fired := false
	unsub := m.OnDisconnect(func(string, []AccountConnection) { fired = true })
	defer unsub()

	removed, err := m.DisconnectAll(ctx, "w1")
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.False(t, fired)
}
