package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vBaggio/qronis/internal/events"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := events.NewBus()

	var a, b int
	bus.Subscribe(func() { a++ })
	bus.Subscribe(func() { b++ })

	bus.Publish()
	bus.Publish()

	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := events.NewBus()

	var fired int
	unsubscribe := bus.Subscribe(func() { fired++ })

	bus.Publish()
	unsubscribe()
	bus.Publish()

	assert.Equal(t, 1, fired)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := events.NewBus()
	assert.NotPanics(t, bus.Publish)
}
