package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/clock"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/repository/database"
)

type Options struct {
	DistanceAccuracyCeiling float64
	ProximityRadius         float64
	NearbyLimit             int
	Geofence                GeofenceOptions
	Capture                 domain.CaptureOptions
}

func (o Options) withDefaults() Options {
	if o.DistanceAccuracyCeiling <= 0 {
		o.DistanceAccuracyCeiling = DefaultDistanceAccuracyCeiling
	}
	if o.ProximityRadius <= 0 {
		o.ProximityRadius = DefaultProximityRadius
	}
	o.Capture = o.Capture.WithDefaults()
	return o
}

// Coordinator is the single entry point into the tracking engine for one
// device. Fixes are processed strictly in arrival order; subscribers are
// notified after each fix's state update completes.
type Coordinator struct {
	source    domain.PositionSource
	store     database.EntityStore
	clock     clock.Clock
	opts      Options
	bus       *EventBus
	capture   *PositionCapture
	proximity *ProximityIndex

	lifecycleMu sync.Mutex
	unsubscribe func()

	// ingestMu serializes fix processing and its dispatch; mu guards state
	// and is never held while handlers run.
	ingestMu sync.Mutex
	mu       sync.Mutex

	geofence   *GeofenceEngine
	session    *Session
	eventLog   []domain.GeofenceEvent
	candidates []domain.Candidate
	lastFix    *domain.PositionFix
	nearby     []domain.ProximityResult
	sourceDown bool
}

func NewCoordinator(source domain.PositionSource, store database.EntityStore, clk clock.Clock, opts Options) *Coordinator {
	if clk == nil {
		clk = clock.Real{}
	}
	opts = opts.withDefaults()
	return &Coordinator{
		source:    source,
		store:     store,
		clock:     clk,
		opts:      opts,
		bus:       NewEventBus(),
		capture:   NewPositionCapture(clk, opts.Capture),
		proximity: NewProximityIndex(opts.NearbyLimit),
		geofence:  NewGeofenceEngine(opts.Geofence),
	}
}

// Open subscribes to the position source. Calling it twice is a no-op.
func (c *Coordinator) Open() {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.source.Subscribe(c.HandleFix, c.HandleSourceError)
}

// Close releases the position source and cancels any in-flight capture. The
// active session, if any, is left as is.
func (c *Coordinator) Close() {
	c.lifecycleMu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.lifecycleMu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	_ = c.capture.Cancel()
}

func (c *Coordinator) Subscribe(t EventType, h Handler) SubscriptionID {
	return c.bus.Subscribe(t, h)
}

func (c *Coordinator) Unsubscribe(id SubscriptionID) bool {
	return c.bus.Unsubscribe(id)
}

// Start loads the farm's zones and points of interest and opens a session.
func (c *Coordinator) Start(ctx context.Context, userID, farmID string) (domain.SessionSnapshot, error) {
	if c.hasActiveSession() {
		return domain.SessionSnapshot{}, domain.ErrSessionAlreadyActive
	}

	zones, err := c.store.LoadZones(ctx, farmID)
	if err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("load zones: %w", err)
	}
	candidates, err := c.store.LoadNearbyCandidates(ctx, farmID)
	if err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("load candidates: %w", err)
	}

	c.mu.Lock()
	if c.session != nil && c.session.Active() {
		c.mu.Unlock()
		return domain.SessionSnapshot{}, domain.ErrSessionAlreadyActive
	}
	if skipped := c.geofence.Reconfigure(zones); len(skipped) > 0 {
		log.Printf("tracking: farm %s: %d of %d zones skipped", farmID, len(skipped), len(zones))
	}
	c.session = NewSession(uuid.NewString(), userID, farmID, c.clock.Now(), c.opts.DistanceAccuracyCeiling)
	c.eventLog = nil
	c.candidates = candidates
	c.nearby = nil
	snap := c.session.Snapshot()
	c.mu.Unlock()

	log.Printf("tracking: session %s started for user %s on farm %s", snap.ID, userID, farmID)
	c.bus.Publish(Event{Type: EventSessionStats, Session: &snap})
	return snap, nil
}

// Stop finalizes the active session and hands its snapshot and geofence
// event log to EventSessionStopped subscribers.
func (c *Coordinator) Stop() (domain.SessionSnapshot, error) {
	c.mu.Lock()
	if c.session == nil || !c.session.Active() {
		c.mu.Unlock()
		return domain.SessionSnapshot{}, domain.ErrSessionNotActive
	}
	snap := c.session.Stop(c.clock.Now())
	eventLog := append([]domain.GeofenceEvent(nil), c.eventLog...)
	c.nearby = nil
	c.mu.Unlock()

	log.Printf("tracking: session %s stopped: %d fixes, %.1fm", snap.ID, snap.LocationCount, snap.TotalDistanceMeters)
	c.bus.Publish(Event{Type: EventSessionStopped, Session: &snap, Log: eventLog})
	return snap, nil
}

// Reconfigure swaps the zone set mid-session, e.g. after the farm's zones
// were edited. The current zone is forgotten.
func (c *Coordinator) Reconfigure(zones []domain.Zone) []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.geofence.Reconfigure(zones)
}

func (c *Coordinator) Zones() []domain.ZoneSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.geofence.Zones()
}

func (c *Coordinator) CurrentState() domain.TrackingState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := domain.TrackingState{
		Nearby:          append([]domain.ProximityResult{}, c.nearby...),
		SourceAvailable: !c.sourceDown,
	}
	if c.lastFix != nil {
		f := *c.lastFix
		state.Fix = &f
	}
	if c.session != nil {
		snap := c.session.Snapshot()
		state.Session = &snap
		if c.session.Active() {
			state.CurrentZoneID = c.geofence.CurrentZoneID()
		}
	}
	if c.capture.InProgress() {
		n := c.capture.SampleCount()
		state.CaptureSamples = &n
	}
	return state
}

// CapturePosition runs a multi-sample capture against the live fix stream and
// blocks until it completes. Session processing continues meanwhile. If ctx
// ends first the capture is cancelled.
func (c *Coordinator) CapturePosition(ctx context.Context, opts domain.CaptureOptions) (domain.CaptureResult, error) {
	p, err := c.capture.Begin(opts)
	if err != nil {
		return domain.CaptureResult{}, err
	}

	res, err := p.Wait(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		c.capture.abandon(p)
	}

	ev := Event{Type: EventCapture, Err: err}
	if err == nil {
		ev.Capture = &res
	}
	c.bus.Publish(ev)
	return res, err
}

func (c *Coordinator) CancelCapture() error {
	return c.capture.Cancel()
}

// HandleFix is the PositionSource callback. Invalid and out-of-order fixes are
// dropped.
func (c *Coordinator) HandleFix(fix domain.PositionFix) {
	if err := fix.Validate(); err != nil {
		log.Printf("tracking: dropping fix: %v", err)
		return
	}

	c.ingestMu.Lock()
	defer c.ingestMu.Unlock()

	c.mu.Lock()
	if c.lastFix != nil && fix.Timestamp.Before(c.lastFix.Timestamp) {
		c.mu.Unlock()
		log.Printf("tracking: dropping stale fix at %s", fix.Timestamp)
		return
	}

	var events []Event
	if c.sourceDown {
		c.sourceDown = false
		events = append(events, Event{Type: EventSourceStatus})
	}
	f := fix
	c.lastFix = &f

	if c.session != nil && c.session.Active() {
		events = append(events, c.advanceSession(fix)...)
	}
	c.mu.Unlock()

	c.capture.Offer(fix)

	for _, ev := range events {
		c.bus.Publish(ev)
	}
}

// advanceSession must be called with c.mu held.
func (c *Coordinator) advanceSession(fix domain.PositionFix) []Event {
	var events []Event

	c.session.Record(fix)
	for _, ge := range c.geofence.Evaluate(c.session.ID(), fix) {
		if ge.Type == domain.GeofenceEnter {
			c.session.MarkVisited(ge.ZoneID)
		}
		c.eventLog = append(c.eventLog, ge)
		events = append(events, Event{Type: EventGeofence, Geofence: &ge})
	}

	snap := c.session.Snapshot()
	events = append(events, Event{Type: EventSessionStats, Session: &snap})

	c.nearby = c.proximity.Query(fix, c.candidates, c.opts.ProximityRadius)
	events = append(events, Event{Type: EventProximity, Nearby: append([]domain.ProximityResult{}, c.nearby...)})
	return events
}

// HandleSourceError marks the source as degraded. The session stays active
// and resumes accumulating when fixes return. It is ordered with fix dispatch,
// so it must not be called from an event handler.
func (c *Coordinator) HandleSourceError(err error) {
	if !errors.Is(err, domain.ErrPositionSourceUnavailable) {
		err = fmt.Errorf("%w: %v", domain.ErrPositionSourceUnavailable, err)
	}
	log.Printf("tracking: %v", err)

	c.ingestMu.Lock()
	defer c.ingestMu.Unlock()

	c.mu.Lock()
	c.sourceDown = true
	c.mu.Unlock()

	c.bus.Publish(Event{Type: EventSourceStatus, Err: err})
}

func (c *Coordinator) hasActiveSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.Active()
}
