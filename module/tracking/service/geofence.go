package service

import (
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/geo"
)

const (
	DefaultConfirmFixes  = 1
	DefaultDwellAfter    = 5 * time.Minute
	DefaultDwellInterval = 5 * time.Minute
)

type GeofenceOptions struct {
	// ConfirmFixes is how many consecutive fixes must agree on a new
	// containment state before the transition is reported.
	ConfirmFixes  int
	DwellEnabled  bool
	DwellAfter    time.Duration
	DwellInterval time.Duration
}

func (o GeofenceOptions) withDefaults() GeofenceOptions {
	if o.ConfirmFixes <= 0 {
		o.ConfirmFixes = DefaultConfirmFixes
	}
	if o.DwellAfter <= 0 {
		o.DwellAfter = DefaultDwellAfter
	}
	if o.DwellInterval <= 0 {
		o.DwellInterval = DefaultDwellInterval
	}
	return o
}

type fence struct {
	zone domain.Zone
	ring []domain.GeoPoint
}

// GeofenceEngine tracks which zone the device is in and turns containment
// changes into enter/exit/dwell events. Overlapping zones resolve to the
// first one in load order. Not safe for concurrent use.
type GeofenceEngine struct {
	opts   GeofenceOptions
	fences []fence

	current      string
	pending      string
	pendingCount int

	enteredAt time.Time
	dwell     *rate.Limiter
}

func NewGeofenceEngine(opts GeofenceOptions) *GeofenceEngine {
	return &GeofenceEngine{opts: opts.withDefaults()}
}

// Reconfigure replaces the zone set and forgets the current zone so the next
// fix re-establishes containment. Invalid zones are skipped and returned.
func (g *GeofenceEngine) Reconfigure(zones []domain.Zone) []error {
	var skipped []error
	fences := make([]fence, 0, len(zones))
	for _, z := range zones {
		if err := z.Validate(); err != nil {
			log.Printf("geofence: skipping zone: %v", err)
			skipped = append(skipped, err)
			continue
		}
		fences = append(fences, fence{zone: z, ring: z.Ring()})
	}

	g.fences = fences
	g.current = ""
	g.pending = ""
	g.pendingCount = 0
	g.dwell = nil
	return skipped
}

func (g *GeofenceEngine) CurrentZoneID() string {
	return g.current
}

// Zones lists the loaded zones in load order with their label positions.
func (g *GeofenceEngine) Zones() []domain.ZoneSummary {
	out := make([]domain.ZoneSummary, len(g.fences))
	for i, f := range g.fences {
		out[i] = domain.ZoneSummary{ID: f.zone.ID, Name: f.zone.Name, Centroid: geo.Centroid(f.ring)}
	}
	return out
}

// Locate returns the id of the first zone containing p, or "".
func (g *GeofenceEngine) Locate(p domain.GeoPoint) string {
	for _, f := range g.fences {
		if geo.PointInPolygon(p, f.ring) {
			return f.zone.ID
		}
	}
	return ""
}

// Evaluate feeds one fix through the debounce state machine and returns the
// events it confirms, exit before enter.
func (g *GeofenceEngine) Evaluate(sessionID string, fix domain.PositionFix) []domain.GeofenceEvent {
	observed := g.Locate(fix.Point())

	if observed == g.current {
		g.pending = ""
		g.pendingCount = 0
		if ev, ok := g.checkDwell(sessionID, fix); ok {
			return []domain.GeofenceEvent{ev}
		}
		return nil
	}

	if observed == g.pending && g.pendingCount > 0 {
		g.pendingCount++
	} else {
		g.pending = observed
		g.pendingCount = 1
	}
	if g.pendingCount < g.opts.ConfirmFixes {
		return nil
	}

	previous := g.current
	g.current = observed
	g.pending = ""
	g.pendingCount = 0

	var events []domain.GeofenceEvent
	if previous != "" {
		events = append(events, newGeofenceEvent(sessionID, previous, domain.GeofenceExit, fix))
		g.dwell = nil
	}
	if observed != "" {
		events = append(events, newGeofenceEvent(sessionID, observed, domain.GeofenceEnter, fix))
		g.enteredAt = fix.Timestamp
		g.dwell = rate.NewLimiter(rate.Every(g.opts.DwellInterval), 1)
	}
	return events
}

func (g *GeofenceEngine) checkDwell(sessionID string, fix domain.PositionFix) (domain.GeofenceEvent, bool) {
	if !g.opts.DwellEnabled || g.current == "" || g.dwell == nil {
		return domain.GeofenceEvent{}, false
	}
	if fix.Timestamp.Sub(g.enteredAt) < g.opts.DwellAfter {
		return domain.GeofenceEvent{}, false
	}
	if !g.dwell.AllowN(fix.Timestamp, 1) {
		return domain.GeofenceEvent{}, false
	}
	return newGeofenceEvent(sessionID, g.current, domain.GeofenceDwell, fix), true
}

func newGeofenceEvent(sessionID, zoneID string, typ domain.GeofenceEventType, fix domain.PositionFix) domain.GeofenceEvent {
	return domain.GeofenceEvent{
		SessionID: sessionID,
		ZoneID:    zoneID,
		Type:      typ,
		Timestamp: fix.Timestamp,
		Fix:       fix,
	}
}
