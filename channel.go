package tonwallet

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PairedChannel correlates a published request with the single matching
// response on the shared event bus. It bridges UI prompts (password entry)
// and out-of-process signer round trips (signer app, hardware device) back
// into one awaited call; only the topic and payload shape differ between
// uses.
//
// Correlation ids are UUIDs, so concurrently outstanding requests never
// interfere. No timeout is enforced here; callers bound the wait with their
// context, and cancellation removes the pending listener.
type PairedChannel struct {
	bus *Bus
	log *zap.Logger
}

type channelOption = func(*PairedChannel)

func NewPairedChannel(bus *Bus, options ...channelOption) *PairedChannel {
	c := &PairedChannel{bus: bus, log: zap.NewNop()}
	for _, opt := range options {
		opt(c)
	}

	return c
}

func WithChannelLogger(log *zap.Logger) channelOption {
	return func(c *PairedChannel) {
		c.log = log
	}
}

// Request publishes {method: topic, id, params} and waits for the response
// event carrying the same id. A response whose params is an error rejects;
// anything else resolves as-is. The one-shot listener is removed on every
// path: match, error, and caller cancellation.
func (c *PairedChannel) Request(ctx context.Context, topic string, params any) (any, error) {
	id := uuid.NewString()

	done := make(chan BusMessage, 1)
	var once sync.Once
	unsub := c.bus.Subscribe(TopicResponse, func(msg BusMessage) {
		if msg.ID != id {
			return
		}
		once.Do(func() {
			done <- msg
		})
	})
	defer unsub()

	c.log.Debug("paired request", zap.String("topic", topic), zap.String("id", id))
	c.bus.Publish(topic, BusMessage{Method: topic, ID: id, Params: params})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg := <-done:
		if err, ok := msg.Params.(error); ok {
			return nil, fmt.Errorf("%w: %w", ErrRemoteSigner, err)
		}
		if msg.Params == nil {
			return nil, fmt.Errorf("%w: empty response", ErrRemoteSigner)
		}

		return msg.Params, nil
	}
}

// Respond is the counterpart used by prompt handlers and device adapters to
// complete a pending request.
func (c *PairedChannel) Respond(id string, result any) {
	c.bus.Publish(TopicResponse, BusMessage{Method: TopicResponse, ID: id, Params: result})
}
