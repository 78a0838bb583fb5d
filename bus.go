package tonwallet

import "sync"

// Event topics shared between the core and the UI / out-of-process signer
// flows.
const (
	TopicGetPassword string = "getPassword"
	TopicSigner      string = "signer"
	TopicLedger      string = "ledger"
	TopicResponse    string = "response"
)

// BusMessage is the envelope carried on every topic.
type BusMessage struct {
	Method string `json:"method"`
	ID     string `json:"id,omitempty"`
	Params any    `json:"params,omitempty"`
}

// Bus is a minimal publish/subscribe event bus with named topics. Handlers
// run on the publisher's goroutine; subscribers that need to block hand off
// to their own goroutine.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[uint64]func(BusMessage)
	next uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[uint64]func(BusMessage))}
}

// Subscribe registers a handler on a topic and returns its unsubscribe
// function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(topic string, fn func(BusMessage)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]func(BusMessage))
	}
	id := b.next
	b.next++
	b.subs[topic][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish delivers a message to every current subscriber of a topic. The
// subscriber set is snapshotted first so handlers may publish or unsubscribe
// without deadlocking.
func (b *Bus) Publish(topic string, msg BusMessage) {
	b.mu.RLock()
	handlers := make([]func(BusMessage), 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(msg)
	}
}

func (b *Bus) subscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[topic])
}
