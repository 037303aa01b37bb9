package service

import (
	"log"
	"sync"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
)

type EventType string

const (
	EventGeofence       EventType = "geofence"
	EventSessionStats   EventType = "session_stats"
	EventProximity      EventType = "proximity"
	EventCapture        EventType = "capture"
	EventSessionStopped EventType = "session_stopped"
	EventSourceStatus   EventType = "source_status"
)

// Event carries exactly the payload its Type implies. For EventSourceStatus a
// nil Err means the source recovered; for EventCapture Err is set when the
// capture failed.
type Event struct {
	Type     EventType
	Geofence *domain.GeofenceEvent
	Session  *domain.SessionSnapshot
	Nearby   []domain.ProximityResult
	Capture  *domain.CaptureResult
	Log      []domain.GeofenceEvent
	Err      error
}

type Handler func(Event)

type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// EventBus dispatches synchronously on the publisher's goroutine. Handlers
// that do slow work must hand it off themselves.
type EventBus struct {
	mu   sync.RWMutex
	next SubscriptionID
	subs map[EventType][]subscription
}

func NewEventBus() *EventBus {
	return &EventBus{subs: map[EventType][]subscription{}}
}

func (b *EventBus) Subscribe(t EventType, h Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.subs[t] = append(b.subs[t], subscription{id: b.next, handler: h})
	return b.next
}

func (b *EventBus) Unsubscribe(id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for t, subs := range b.subs {
		for i, s := range subs {
			if s.id == id {
				b.subs[t] = append(subs[:i:i], subs[i+1:]...)
				return true
			}
		}
	}
	return false
}

func (b *EventBus) Publish(ev Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[ev.Type]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(s, ev)
	}
}

func (b *EventBus) deliver(s subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("event bus: %s handler %d panicked: %v", ev.Type, s.id, r)
		}
	}()
	s.handler(ev)
}
