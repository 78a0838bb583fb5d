package tonwallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const lastEventIDKey = "bridge:last_event_id"

func walletKey(pubkey, field string) string {
	return fmt.Sprintf("wallet:%s:%s", pubkey, field)
}

// RedisStorage backs the Storage interface with Redis. Structured values are
// msgpack-encoded; blobs are stored raw.
type RedisStorage struct {
	client redis.UniversalClient
}

func NewRedisStorage(client redis.UniversalClient) *RedisStorage {
	return &RedisStorage{client: client}
}

func (s *RedisStorage) GetAuth(ctx context.Context, pubkey string) (*AuthState, error) {
	data, err := s.client.Get(ctx, walletKey(pubkey, "auth")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUnknownWallet
	}
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to read auth state: %w", err)
	}

	var auth AuthState
	if err := msgpack.Unmarshal(data, &auth); err != nil {
		return nil, fmt.Errorf("tonwallet: failed to decode auth state: %w", err)
	}

	return &auth, nil
}

func (s *RedisStorage) SetAuth(ctx context.Context, pubkey string, auth AuthState) error {
	data, err := msgpack.Marshal(auth)
	if err != nil {
		return fmt.Errorf("tonwallet: failed to encode auth state: %w", err)
	}

	return s.client.Set(ctx, walletKey(pubkey, "auth"), data, 0).Err()
}

func (s *RedisStorage) GetMnemonic(ctx context.Context, pubkey string) ([]string, error) {
	data, err := s.client.Get(ctx, walletKey(pubkey, "mnemonic")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSecretNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to read mnemonic: %w", err)
	}

	var words []string
	if err := msgpack.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("tonwallet: failed to decode mnemonic: %w", err)
	}

	return words, nil
}

func (s *RedisStorage) SetMnemonic(ctx context.Context, pubkey string, words []string) error {
	data, err := msgpack.Marshal(words)
	if err != nil {
		return fmt.Errorf("tonwallet: failed to encode mnemonic: %w", err)
	}

	return s.client.Set(ctx, walletKey(pubkey, "mnemonic"), data, 0).Err()
}

func (s *RedisStorage) GetEncryptedMnemonic(ctx context.Context, pubkey string) ([]byte, error) {
	data, err := s.client.Get(ctx, walletKey(pubkey, "mnemonic_enc")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSecretNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to read encrypted mnemonic: %w", err)
	}

	return data, nil
}

func (s *RedisStorage) SetEncryptedMnemonic(ctx context.Context, pubkey string, blob []byte) error {
	return s.client.Set(ctx, walletKey(pubkey, "mnemonic_enc"), blob, 0).Err()
}

func (s *RedisStorage) GetConnections(ctx context.Context, walletID string) ([]AccountConnection, error) {
	data, err := s.client.Get(ctx, walletKey(walletID, "connections")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to read connections: %w", err)
	}

	var conns []AccountConnection
	if err := msgpack.Unmarshal(data, &conns); err != nil {
		return nil, fmt.Errorf("tonwallet: failed to decode connections: %w", err)
	}

	return conns, nil
}

func (s *RedisStorage) SetConnections(ctx context.Context, walletID string, conns []AccountConnection) error {
	data, err := msgpack.Marshal(conns)
	if err != nil {
		return fmt.Errorf("tonwallet: failed to encode connections: %w", err)
	}

	return s.client.Set(ctx, walletKey(walletID, "connections"), data, 0).Err()
}

func (s *RedisStorage) SetPendingTransaction(ctx context.Context, pubkey string, boc []byte) error {
	return s.client.Set(ctx, walletKey(pubkey, "pending_tx"), boc, 0).Err()
}

func (s *RedisStorage) GetPendingTransaction(ctx context.Context, pubkey string) ([]byte, error) {
	data, err := s.client.Get(ctx, walletKey(pubkey, "pending_tx")).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to read pending transaction: %w", err)
	}

	return data, nil
}

func (s *RedisStorage) GetLastEventID(ctx context.Context) (uint64, error) {
	id, err := s.client.Get(ctx, lastEventIDKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("tonwallet: failed to read last event id: %w", err)
	}

	return id, nil
}

func (s *RedisStorage) SetLastEventID(ctx context.Context, id uint64) error {
	return s.client.Set(ctx, lastEventIDKey, id, 0).Err()
}
