package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	var first, second []interface{}

	bus.Subscribe(TopicUpdate, func(payload interface{}) {
		first = append(first, payload)
	})
	bus.Subscribe(TopicUpdate, func(payload interface{}) {
		second = append(second, payload)
	})

	bus.Emit(TopicUpdate, "a")
	bus.Emit(TopicUpdate, "b")

	assert.Equal(t, []interface{}{"a", "b"}, first)
	assert.Equal(t, []interface{}{"a", "b"}, second)
}

func TestEmitIsScopedToTopic(t *testing.T) {
	bus := NewBus()
	calls := 0
	bus.Subscribe(TopicError, func(interface{}) { calls++ })

	bus.Emit(TopicUpdate, nil)
	bus.Emit(TopicReady, nil)

	assert.Zero(t, calls)
}

func TestEmitWithoutSubscribersIsHarmless(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() {
		bus.Emit(TopicImpression, nil)
	})
}

func TestNilHandlerIsIgnored(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(TopicReady, nil)
	assert.NotPanics(t, func() {
		bus.Emit(TopicReady, nil)
	})
}
