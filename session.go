package tonwallet

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cenkalti/backoff/v4"
	"github.com/kevinburke/nacl"
	"github.com/kevinburke/nacl/box"
	"github.com/tmaxmax/go-sse"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Session is the wallet's end of one encrypted bridge channel. ID is the
// wallet-side public key published to the bridge; ClientID is the dApp's key
// taken from the connect link.
type Session struct {
	ID          nacl.Key `json:"id"`
	PrivateKey  nacl.Key `json:"private_key"`
	ClientID    nacl.Key `json:"client_id,omitempty"`
	BridgeURL   string   `json:"bridge_url,omitempty"`
	LastEventID uint64   `json:"last_event_id,string,omitempty"`
}

type bridgeMessageOptions struct {
	TTL   string
	Topic string
}

type bridgeMessageOption = func(*bridgeMessageOptions)

func NewSession() (*Session, error) {
	id, pk, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to generate key pair: %w", err)
	}

	return &Session{ID: id, PrivateKey: pk}, nil
}

// BridgeMessage is one decrypted dApp request received from a bridge.
type BridgeMessage struct {
	BridgeURL string
	From      nacl.Key
	Request   AppRequest
}

// Bridge listens for encrypted dApp requests over SSE and posts encrypted
// replies. The last delivered event id is persisted so reconnects resume
// where the previous stream stopped.
type Bridge struct {
	session *Session
	storage Storage
	log     *zap.Logger
}

type bridgeOption = func(*Bridge)

func NewBridge(session *Session, storage Storage, options ...bridgeOption) *Bridge {
	b := &Bridge{session: session, storage: storage, log: zap.NewNop()}
	for _, opt := range options {
		opt(b)
	}

	return b
}

func WithBridgeLogger(log *zap.Logger) bridgeOption {
	return func(b *Bridge) {
		b.log = log
	}
}

// Listen subscribes to the bridge event stream and delivers decrypted
// requests until the context is canceled. Dropped connections are retried
// with exponential backoff.
func (b *Bridge) Listen(ctx context.Context, msgs chan<- BridgeMessage) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		err := b.listenOnce(ctx, msgs)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		b.log.Warn("bridge connection lost", zap.String("bridge", b.session.BridgeURL), zap.Error(err))

		return err
	}, backoff.WithContext(bo, ctx))
}

func (b *Bridge) listenOnce(ctx context.Context, msgs chan<- BridgeMessage) error {
	if b.session.LastEventID == 0 && b.storage != nil {
		if id, err := b.storage.GetLastEventID(ctx); err == nil {
			b.session.LastEventID = id
		}
	}

	u, err := url.Parse(b.session.BridgeURL)
	if err != nil {
		return fmt.Errorf("tonwallet: failed to parse bridge URL: %w", err)
	}

	u = u.JoinPath("/events")
	q := u.Query()
	q.Set("client_id", hex.EncodeToString(b.session.ID[:]))
	if b.session.LastEventID > 0 {
		q.Set("last_event_id", strconv.FormatUint(b.session.LastEventID, 10))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("tonwallet: failed to initialize HTTP request: %w", err)
	}

	conn := sse.NewConnection(req)
	unsub := conn.SubscribeEvent("message", func(e sse.Event) {
		var bmsg struct {
			From    string `json:"from"`
			Message []byte `json:"message"`
		}
		if err := json.Unmarshal([]byte(e.Data), &bmsg); err != nil {
			b.log.Debug("dropping malformed bridge event", zap.Error(err))
			return
		}

		var appreq AppRequest
		from, err := b.session.decrypt(bmsg.From, bmsg.Message, &appreq)
		if err != nil {
			b.log.Debug("dropping undecryptable bridge event", zap.Error(err))
			return
		}

		msgs <- BridgeMessage{BridgeURL: b.session.BridgeURL, From: from, Request: appreq}

		if id, err := strconv.ParseUint(e.LastEventID, 10, 64); err == nil {
			b.session.LastEventID = id
			if b.storage != nil {
				if err := b.storage.SetLastEventID(ctx, id); err != nil {
					b.log.Warn("failed to persist last event id", zap.Error(err))
				}
			}
		}
	})
	defer unsub()

	if err := conn.Connect(); err != nil && !(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return fmt.Errorf("tonwallet: failed to connect to bridge: %w", err)
	}

	return nil
}

// ListenMany runs one listener per deduplicated bridge URL and fans every
// decrypted request into the same channel. The session key pair is shared;
// each listener tracks its own resume position.
func ListenMany(ctx context.Context, session *Session, storage Storage, urls []string, msgs chan<- BridgeMessage, options ...bridgeOption) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, bridgeURL := range dedupeBridgeURLs(urls...) {
		s := *session
		s.BridgeURL = bridgeURL
		bridge := NewBridge(&s, storage, options...)
		g.Go(func() error {
			return bridge.Listen(ctx, msgs)
		})
	}

	return g.Wait()
}

// Reply posts the result of a completed dApp request.
func (b *Bridge) Reply(ctx context.Context, requestID, result string, options ...bridgeMessageOption) error {
	return b.session.sendMessage(ctx, AppResponse{ID: requestID, Result: result}, options...)
}

// ReplyError reports a failed or declined dApp request.
func (b *Bridge) ReplyError(ctx context.Context, requestID string, code uint64, message string, options ...bridgeMessageOption) error {
	return b.session.sendMessage(ctx, AppResponse{ID: requestID, Error: &ItemError{Code: code, Message: message}}, options...)
}

// DeclineRequest reports that the user rejected a dApp request.
func (b *Bridge) DeclineRequest(ctx context.Context, requestID string, options ...bridgeMessageOption) error {
	return b.ReplyError(ctx, requestID, codeUserDeclined, "user declined the request", options...)
}

// SendEvent pushes a wallet event (connect result, disconnect notice) to the
// paired dApp.
func (b *Bridge) SendEvent(ctx context.Context, ev *WalletEvent, options ...bridgeMessageOption) error {
	return b.session.sendMessage(ctx, ev, options...)
}

func (s *Session) sendMessage(ctx context.Context, msg any, options ...bridgeMessageOption) error {
	opts := &bridgeMessageOptions{TTL: "300"}
	for _, opt := range options {
		opt(opts)
	}

	u, err := url.Parse(s.BridgeURL)
	if err != nil {
		return fmt.Errorf("tonwallet: failed to parse bridge URL: %w", err)
	}

	u = u.JoinPath("/message")
	q := u.Query()
	q.Set("client_id", hex.EncodeToString(s.ID[:]))
	q.Set("to", hex.EncodeToString(s.ClientID[:]))
	if opts.TTL != "" {
		q.Set("ttl", opts.TTL)
	}
	if opts.Topic != "" {
		q.Set("topic", opts.Topic)
	}
	u.RawQuery = q.Encode()

	data, err := s.encrypt(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewBuffer([]byte(base64.StdEncoding.EncodeToString(data))))
	if err != nil {
		return fmt.Errorf("tonwallet: failed to initialize HTTP request: %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("tonwallet: failed to send message: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("tonwallet: bridge rejected message with status %d", res.StatusCode)
	}

	return nil
}

func (s *Session) encrypt(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("tonwallet: failed to marshal message to encrypt: %w", err)
	}

	return box.EasySeal(data, s.ClientID, s.PrivateKey), nil
}

func (s *Session) decrypt(from string, msg []byte, v any) (nacl.Key, error) {
	clientID, err := nacl.Load(from)
	if err != nil {
		return clientID, fmt.Errorf("tonwallet: failed to load client ID: %w", err)
	}

	if s.ClientID != nil && !bytes.Equal(s.ClientID[:], clientID[:]) {
		return clientID, fmt.Errorf("tonwallet: session and bridge message client IDs don't match")
	}

	data, err := box.EasyOpen(msg, clientID, s.PrivateKey)
	if err != nil {
		return clientID, fmt.Errorf("tonwallet: failed to decrypt bridge message: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return clientID, fmt.Errorf("tonwallet: failed to unmarshal decrypted data: %w", err)
	}

	return clientID, nil
}

func WithTTL(ttl uint64) bridgeMessageOption {
	return func(opts *bridgeMessageOptions) {
		opts.TTL = strconv.FormatUint(ttl, 10)
	}
}

func WithTopic(topic string) bridgeMessageOption {
	return func(opts *bridgeMessageOptions) {
		opts.Topic = topic
	}
}
