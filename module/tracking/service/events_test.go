package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBus_DeliversByType(t *testing.T) {
	bus := NewEventBus()

	var geofence, stats int
	bus.Subscribe(EventGeofence, func(Event) { geofence++ })
	bus.Subscribe(EventSessionStats, func(Event) { stats++ })

	bus.Publish(Event{Type: EventGeofence})
	bus.Publish(Event{Type: EventGeofence})
	bus.Publish(Event{Type: EventSessionStats})
	bus.Publish(Event{Type: EventProximity})

	assert.Equal(t, 2, geofence)
	assert.Equal(t, 1, stats)
}

func TestEventBus_SubscriptionOrder(t *testing.T) {
	bus := NewEventBus()

	var order []int
	for i := 1; i <= 3; i++ {
		bus.Subscribe(EventCapture, func(Event) { order = append(order, i) })
	}
	bus.Publish(Event{Type: EventCapture})

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()

	calls := 0
	id := bus.Subscribe(EventProximity, func(Event) { calls++ })

	assert.True(t, bus.Unsubscribe(id))
	assert.False(t, bus.Unsubscribe(id))

	bus.Publish(Event{Type: EventProximity})
	assert.Zero(t, calls)
}

func TestEventBus_PanickingHandlerIsIsolated(t *testing.T) {
	bus := NewEventBus()

	delivered := false
	bus.Subscribe(EventSourceStatus, func(Event) { panic("boom") })
	bus.Subscribe(EventSourceStatus, func(Event) { delivered = true })

	assert.NotPanics(t, func() { bus.Publish(Event{Type: EventSourceStatus}) })
	assert.True(t, delivered)
}

func TestEventBus_HandlerMaySubscribeDuringDispatch(t *testing.T) {
	bus := NewEventBus()

	late := 0
	bus.Subscribe(EventGeofence, func(Event) {
		bus.Subscribe(EventGeofence, func(Event) { late++ })
	})

	bus.Publish(Event{Type: EventGeofence})
	assert.Zero(t, late, "subscriber added during dispatch must wait for the next event")

	bus.Publish(Event{Type: EventGeofence})
	assert.Equal(t, 1, late)
}
