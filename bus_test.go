package tonwallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	var first, second []string
	unsub1 := bus.Subscribe(TopicSigner, func(msg BusMessage) {
		first = append(first, msg.ID)
	})
	defer unsub1()
	unsub2 := bus.Subscribe(TopicSigner, func(msg BusMessage) {
		second = append(second, msg.ID)
	})

	bus.Publish(TopicSigner, BusMessage{Method: TopicSigner, ID: "a"})
	assert.Equal(t, []string{"a"}, first)
	assert.Equal(t, []string{"a"}, second)

	unsub2()
	unsub2() // repeated unsubscribe is harmless

	bus.Publish(TopicSigner, BusMessage{Method: TopicSigner, ID: "b"})
	assert.Equal(t, []string{"a", "b"}, first)
	assert.Equal(t, []string{"a"}, second)
	assert.Equal(t, 1, bus.subscriberCount(TopicSigner))
}

func TestBusTopicsAreIndependent(t *testing.T) {
	bus := NewBus()

	var got []string
	unsub := bus.Subscribe(TopicLedger, func(msg BusMessage) {
		got = append(got, msg.Method)
	})
	defer unsub()

	bus.Publish(TopicSigner, BusMessage{Method: TopicSigner})
	assert.Empty(t, got)

	bus.Publish(TopicLedger, BusMessage{Method: TopicLedger})
	assert.Equal(t, []string{TopicLedger}, got)
}
