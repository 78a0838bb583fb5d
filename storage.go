package tonwallet

import (
	"context"
	"sync"
)

// Storage is the persistence collaborator. Every key is atomic on its own;
// nothing here is transactional across keys, so higher layers that perform
// read-modify-write cycles (the connection manager) serialize access
// themselves.
type Storage interface {
	// GetAuth returns the configured auth state for a wallet public key, or
	// ErrUnknownWallet.
	GetAuth(ctx context.Context, pubkey string) (*AuthState, error)

	// GetMnemonic returns the plaintext mnemonic words for wallets configured
	// with AuthNone.
	GetMnemonic(ctx context.Context, pubkey string) ([]string, error)

	// GetEncryptedMnemonic returns the password-encrypted mnemonic blob for
	// wallets configured with AuthPassword.
	GetEncryptedMnemonic(ctx context.Context, pubkey string) ([]byte, error)

	// GetConnections returns the ordered dApp connection set of a wallet.
	// A wallet without connections yields an empty slice, not an error.
	GetConnections(ctx context.Context, walletID string) ([]AccountConnection, error)

	// SetConnections replaces the full connection set of a wallet.
	SetConnections(ctx context.Context, walletID string, conns []AccountConnection) error

	// SetPendingTransaction stores the serialized message handed off to an
	// external signer application through a deep link. The out-of-band
	// completion flow picks it up later.
	SetPendingTransaction(ctx context.Context, pubkey string, boc []byte) error

	// GetPendingTransaction returns the stored deep-link payload, or
	// ErrSecretNotFound-independent nil when none is pending.
	GetPendingTransaction(ctx context.Context, pubkey string) ([]byte, error)

	// GetLastEventID and SetLastEventID track the last seen bridge event so
	// reconnects resume instead of replaying.
	GetLastEventID(ctx context.Context) (uint64, error)
	SetLastEventID(ctx context.Context, id uint64) error
}

// MemoryStorage is an in-process Storage used by tests and the demo binary.
type MemoryStorage struct {
	mu          sync.RWMutex
	auth        map[string]AuthState
	mnemonics   map[string][]string
	encrypted   map[string][]byte
	connections map[string][]AccountConnection
	pending     map[string][]byte
	lastEventID uint64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		auth:        make(map[string]AuthState),
		mnemonics:   make(map[string][]string),
		encrypted:   make(map[string][]byte),
		connections: make(map[string][]AccountConnection),
		pending:     make(map[string][]byte),
	}
}

func (s *MemoryStorage) GetAuth(_ context.Context, pubkey string) (*AuthState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	auth, ok := s.auth[pubkey]
	if !ok {
		return nil, ErrUnknownWallet
	}

	return &auth, nil
}

// SetAuth provisions a wallet's auth configuration. Reconfiguration is owned
// by the surrounding application; the core only reads.
func (s *MemoryStorage) SetAuth(pubkey string, auth AuthState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth[pubkey] = auth
}

func (s *MemoryStorage) GetMnemonic(_ context.Context, pubkey string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words, ok := s.mnemonics[pubkey]
	if !ok {
		return nil, ErrSecretNotFound
	}

	return append([]string(nil), words...), nil
}

func (s *MemoryStorage) SetMnemonic(pubkey string, words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mnemonics[pubkey] = append([]string(nil), words...)
}

func (s *MemoryStorage) GetEncryptedMnemonic(_ context.Context, pubkey string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.encrypted[pubkey]
	if !ok {
		return nil, ErrSecretNotFound
	}

	return append([]byte(nil), blob...), nil
}

func (s *MemoryStorage) SetEncryptedMnemonic(pubkey string, blob []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encrypted[pubkey] = append([]byte(nil), blob...)
}

func (s *MemoryStorage) GetConnections(_ context.Context, walletID string) ([]AccountConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]AccountConnection(nil), s.connections[walletID]...), nil
}

func (s *MemoryStorage) SetConnections(_ context.Context, walletID string, conns []AccountConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[walletID] = append([]AccountConnection(nil), conns...)

	return nil
}

func (s *MemoryStorage) SetPendingTransaction(_ context.Context, pubkey string, boc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[pubkey] = append([]byte(nil), boc...)

	return nil
}

func (s *MemoryStorage) GetPendingTransaction(_ context.Context, pubkey string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]byte(nil), s.pending[pubkey]...), nil
}

func (s *MemoryStorage) GetLastEventID(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastEventID, nil
}

func (s *MemoryStorage) SetLastEventID(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEventID = id

	return nil
}
