package tonwallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AccountConnection is one persisted dApp pairing for one wallet. The
// clientSessionId is unique within a wallet's connection set.
type AccountConnection struct {
	ClientSessionID   string    `json:"clientSessionId" msgpack:"client_session_id"`
	WalletID          string    `json:"walletId" msgpack:"wallet_id"`
	ManifestURL       string    `json:"manifestUrl,omitempty" msgpack:"manifest_url"`
	WebViewURL        string    `json:"webViewUrl,omitempty" msgpack:"web_view_url"`
	Address           string    `json:"address,omitempty" msgpack:"address"`
	SessionID         string    `json:"sessionId,omitempty" msgpack:"session_id"`
	SessionPrivateKey string    `json:"sessionPrivateKey,omitempty" msgpack:"session_private_key"`
	ConnectedAt       time.Time `json:"connectedAt" msgpack:"connected_at"`
}

// Account groups the wallets sharing one browsing context (the extension
// target). Disconnecting an account fans out across all of its wallets.
type Account struct {
	ID      string
	Wallets []string
}

// PushService is the optional push-notification collaborator. Failures on it
// never surface to disconnect callers.
type PushService interface {
	SubscribeTonConnect(ctx context.Context, clientSessionID, webViewURL string) error
	UnsubscribeTonConnect(ctx context.Context, clientSessionID string) error
}

// DisconnectObserver is notified after connections are removed and local
// persistence has succeeded.
type DisconnectObserver = func(walletID string, removed []AccountConnection)

// ConnectionManager persists, queries, and tears down per-wallet sets of
// authorized dApp connections. A per-wallet mutex serializes every
// read-modify-write cycle, so overlapping saves and disconnects cannot race
// on the stored list.
type ConnectionManager struct {
	storage Storage
	push    PushService
	log     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	obsMu     sync.RWMutex
	observers map[uint64]DisconnectObserver
	nextObs   uint64
}

type managerOption = func(*ConnectionManager)

func NewConnectionManager(storage Storage, options ...managerOption) *ConnectionManager {
	m := &ConnectionManager{
		storage:   storage,
		log:       zap.NewNop(),
		locks:     make(map[string]*sync.Mutex),
		observers: make(map[uint64]DisconnectObserver),
	}
	for _, opt := range options {
		opt(m)
	}

	return m
}

func WithPushService(push PushService) managerOption {
	return func(m *ConnectionManager) {
		m.push = push
	}
}

func WithManagerLogger(log *zap.Logger) managerOption {
	return func(m *ConnectionManager) {
		m.log = log
	}
}

func (m *ConnectionManager) walletLock(walletID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[walletID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[walletID] = lock
	}

	return lock
}

// ListConnections returns the ordered connection set of each requested
// wallet.
func (m *ConnectionManager) ListConnections(ctx context.Context, walletIDs ...string) (map[string][]AccountConnection, error) {
	out := make(map[string][]AccountConnection, len(walletIDs))
	for _, id := range walletIDs {
		conns, err := m.storage.GetConnections(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("tonwallet: failed to list connections for wallet %q: %w", id, err)
		}
		out[id] = conns
	}

	return out, nil
}

// SaveConnection appends or overwrites a connection keyed by its
// clientSessionId. When a push collaborator is present the new pairing is
// subscribed best-effort.
func (m *ConnectionManager) SaveConnection(ctx context.Context, walletID string, conn AccountConnection) error {
	lock := m.walletLock(walletID)
	lock.Lock()
	defer lock.Unlock()

	conns, err := m.storage.GetConnections(ctx, walletID)
	if err != nil {
		return fmt.Errorf("tonwallet: failed to read connections: %w", err)
	}

	replaced := false
	for i := range conns {
		if conns[i].ClientSessionID == conn.ClientSessionID {
			conns[i] = conn
			replaced = true
			break
		}
	}
	if !replaced {
		conns = append(conns, conn)
	}

	if err := m.storage.SetConnections(ctx, walletID, conns); err != nil {
		return fmt.Errorf("tonwallet: failed to persist connections: %w", err)
	}

	if m.push != nil {
		if err := m.push.SubscribeTonConnect(ctx, conn.ClientSessionID, conn.WebViewURL); err != nil {
			m.log.Warn("push subscribe failed",
				zap.String("wallet", walletID),
				zap.String("session", conn.ClientSessionID),
				zap.Error(err))
		}
	}

	return nil
}

// Disconnect removes the connections whose clientSessionId matches any of
// the given ones and returns the removed records. The retained set is built
// by exclusion; unknown ids are ignored.
func (m *ConnectionManager) Disconnect(ctx context.Context, walletID string, conns ...AccountConnection) ([]AccountConnection, error) {
	targets := make(map[string]struct{}, len(conns))
	for _, c := range conns {
		targets[c.ClientSessionID] = struct{}{}
	}

	lock := m.walletLock(walletID)
	lock.Lock()
	defer lock.Unlock()

	all, err := m.storage.GetConnections(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to read connections: %w", err)
	}

	retained := make([]AccountConnection, 0, len(all))
	var removed []AccountConnection
	for _, c := range all {
		if _, ok := targets[c.ClientSessionID]; ok {
			removed = append(removed, c)
			continue
		}
		retained = append(retained, c)
	}

	if err := m.storage.SetConnections(ctx, walletID, retained); err != nil {
		return nil, fmt.Errorf("tonwallet: failed to persist connections: %w", err)
	}

	m.afterDisconnect(ctx, walletID, removed)

	return removed, nil
}

// DisconnectRequested tears down the pairing behind a dApp-initiated
// disconnect request. The sender's session key identifies the connection to
// remove.
func (m *ConnectionManager) DisconnectRequested(ctx context.Context, walletID string, msg BridgeMessage) ([]AccountConnection, error) {
	if msg.Request.Method != methodDisconnect {
		return nil, fmt.Errorf("tonwallet: expected %q request, got %q", methodDisconnect, msg.Request.Method)
	}

	return m.Disconnect(ctx, walletID, AccountConnection{ClientSessionID: hex.EncodeToString(msg.From[:])})
}

// DisconnectAll replaces the wallet's connection set with an empty one and
// returns the full prior set as removed.
func (m *ConnectionManager) DisconnectAll(ctx context.Context, walletID string) ([]AccountConnection, error) {
	lock := m.walletLock(walletID)
	lock.Lock()
	defer lock.Unlock()

	all, err := m.storage.GetConnections(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to read connections: %w", err)
	}

	if err := m.storage.SetConnections(ctx, walletID, []AccountConnection{}); err != nil {
		return nil, fmt.Errorf("tonwallet: failed to persist connections: %w", err)
	}

	m.afterDisconnect(ctx, walletID, all)

	return all, nil
}

// DisconnectAccounts fans the disconnect out independently across every
// wallet of every account and flattens the removals into one combined list.
func (m *ConnectionManager) DisconnectAccounts(ctx context.Context, accounts []Account) ([]AccountConnection, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var combined []AccountConnection
	for _, account := range accounts {
		for _, walletID := range account.Wallets {
			walletID := walletID
			g.Go(func() error {
				removed, err := m.DisconnectAll(ctx, walletID)
				if err != nil {
					return err
				}
				mu.Lock()
				combined = append(combined, removed...)
				mu.Unlock()

				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return combined, err
	}

	return combined, nil
}

// OnDisconnect registers an observer and returns its removal function.
func (m *ConnectionManager) OnDisconnect(fn DisconnectObserver) func() {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()

	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn

	return func() {
		m.obsMu.Lock()
		defer m.obsMu.Unlock()
		delete(m.observers, id)
	}
}

// afterDisconnect runs the best-effort side effects once local persistence
// has succeeded: push unsubscription per removed connection and observer
// notification. Push failures are logged, never propagated.
func (m *ConnectionManager) afterDisconnect(ctx context.Context, walletID string, removed []AccountConnection) {
	if len(removed) == 0 {
		return
	}

	if m.push != nil {
		for _, c := range removed {
			if err := m.push.UnsubscribeTonConnect(ctx, c.ClientSessionID); err != nil {
				m.log.Warn("push unsubscribe failed",
					zap.String("wallet", walletID),
					zap.String("session", c.ClientSessionID),
					zap.Error(err))
			}
		}
	}

	m.obsMu.RLock()
	observers := make([]DisconnectObserver, 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.obsMu.RUnlock()

	for _, fn := range observers {
		fn(walletID, removed)
	}
}
