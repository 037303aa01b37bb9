package service

import (
	"errors"
	"testing"
	"time"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
)

func rectZone(id string, lat0, lon0, lat1, lon1 float64) domain.Zone {
	return domain.Zone{
		ID:   id,
		Name: id,
		Boundary: []domain.GeoPoint{
			{Lat: lat0, Lon: lon0},
			{Lat: lat0, Lon: lon1},
			{Lat: lat1, Lon: lon1},
			{Lat: lat1, Lon: lon0},
		},
	}
}

func degFix(lat, lon float64, ts time.Time) domain.PositionFix {
	return domain.PositionFix{Lat: lat, Lon: lon, Accuracy: 5, Timestamp: ts}
}

type eventSummary struct {
	fix  int
	typ  domain.GeofenceEventType
	zone string
}

func runPath(g *GeofenceEngine, path [][2]float64) []eventSummary {
	start := time.Unix(1715003456, 0)
	var got []eventSummary
	for i, p := range path {
		for _, ev := range g.Evaluate("s1", degFix(p[0], p[1], start.Add(time.Duration(i)*time.Second))) {
			got = append(got, eventSummary{fix: i + 1, typ: ev.Type, zone: ev.ZoneID})
		}
	}
	return got
}

func assertEvents(t *testing.T, got, want []eventSummary) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d events %v, got %d %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestGeofence_EnterThenExit(t *testing.T) {
	g := NewGeofenceEngine(GeofenceOptions{})
	g.Reconfigure([]domain.Zone{rectZone("Z1", 0, 0, 10, 10)})

	got := runPath(g, [][2]float64{{-1, -1}, {5, 5}, {20, 20}})

	assertEvents(t, got, []eventSummary{
		{fix: 2, typ: domain.GeofenceEnter, zone: "Z1"},
		{fix: 3, typ: domain.GeofenceExit, zone: "Z1"},
	})
	if g.CurrentZoneID() != "" {
		t.Errorf("expected no current zone, got %s", g.CurrentZoneID())
	}
}

func TestGeofence_NoDuplicatesWhileInside(t *testing.T) {
	g := NewGeofenceEngine(GeofenceOptions{})
	g.Reconfigure([]domain.Zone{rectZone("Z1", 0, 0, 10, 10)})

	got := runPath(g, [][2]float64{{-1, 5}, {1, 5}, {2, 5}, {5, 5}, {9, 5}, {11, 5}, {12, 5}})

	assertEvents(t, got, []eventSummary{
		{fix: 2, typ: domain.GeofenceEnter, zone: "Z1"},
		{fix: 6, typ: domain.GeofenceExit, zone: "Z1"},
	})
}

func TestGeofence_ZoneToZoneExitsFirst(t *testing.T) {
	g := NewGeofenceEngine(GeofenceOptions{})
	g.Reconfigure([]domain.Zone{
		rectZone("A", 0, 0, 10, 10),
		rectZone("B", 0, 11, 10, 20),
	})

	got := runPath(g, [][2]float64{{5, 5}, {5, 15}})

	assertEvents(t, got, []eventSummary{
		{fix: 1, typ: domain.GeofenceEnter, zone: "A"},
		{fix: 2, typ: domain.GeofenceExit, zone: "A"},
		{fix: 2, typ: domain.GeofenceEnter, zone: "B"},
	})
}

func TestGeofence_OverlapFirstInLoadOrderWins(t *testing.T) {
	g := NewGeofenceEngine(GeofenceOptions{})
	g.Reconfigure([]domain.Zone{
		rectZone("outer", 0, 0, 10, 10),
		rectZone("inner", 2, 2, 8, 8),
	})

	if got := g.Locate(domain.GeoPoint{Lat: 5, Lon: 5}); got != "outer" {
		t.Errorf("expected outer, got %s", got)
	}
}

func TestGeofence_DebounceSuppressesFlapping(t *testing.T) {
	g := NewGeofenceEngine(GeofenceOptions{ConfirmFixes: 3})
	g.Reconfigure([]domain.Zone{rectZone("Z1", 0, 0, 10, 10)})

	// in, out, in, out: never three in a row
	got := runPath(g, [][2]float64{{-1, 5}, {0.5, 5}, {-0.5, 5}, {0.5, 5}, {-0.5, 5}})
	if len(got) != 0 {
		t.Fatalf("expected no events while flapping, got %v", got)
	}

	g = NewGeofenceEngine(GeofenceOptions{ConfirmFixes: 3})
	g.Reconfigure([]domain.Zone{rectZone("Z1", 0, 0, 10, 10)})
	got = runPath(g, [][2]float64{{-1, 5}, {1, 5}, {2, 5}, {3, 5}, {4, 5}, {11, 5}, {5, 5}, {12, 5}, {13, 5}, {14, 5}})

	assertEvents(t, got, []eventSummary{
		{fix: 4, typ: domain.GeofenceEnter, zone: "Z1"},
		{fix: 10, typ: domain.GeofenceExit, zone: "Z1"},
	})
}

func TestGeofence_ReconfigureResetsCurrentZone(t *testing.T) {
	g := NewGeofenceEngine(GeofenceOptions{})
	zones := []domain.Zone{rectZone("Z1", 0, 0, 10, 10)}
	g.Reconfigure(zones)

	runPath(g, [][2]float64{{5, 5}})
	if g.CurrentZoneID() != "Z1" {
		t.Fatalf("expected Z1, got %q", g.CurrentZoneID())
	}

	g.Reconfigure([]domain.Zone{rectZone("Z2", 0, 0, 10, 10)})
	if g.CurrentZoneID() != "" {
		t.Fatalf("expected reset, got %q", g.CurrentZoneID())
	}

	got := runPath(g, [][2]float64{{5, 5}})
	assertEvents(t, got, []eventSummary{{fix: 1, typ: domain.GeofenceEnter, zone: "Z2"}})
}

func TestGeofence_InvalidZonesSkipped(t *testing.T) {
	g := NewGeofenceEngine(GeofenceOptions{})
	skipped := g.Reconfigure([]domain.Zone{
		{ID: "line", Boundary: []domain.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}},
		{ID: "dupes", Boundary: []domain.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}, {Lat: 0, Lon: 0}}},
		rectZone("Z1", 0, 0, 10, 10),
	})

	if len(skipped) != 2 {
		t.Fatalf("expected 2 skipped zones, got %d", len(skipped))
	}
	var zerr *domain.InvalidZoneError
	if !errors.As(skipped[0], &zerr) || zerr.ZoneID != "line" {
		t.Errorf("expected InvalidZoneError for line, got %v", skipped[0])
	}
	if !errors.Is(skipped[1], domain.ErrInvalidZone) {
		t.Errorf("expected ErrInvalidZone, got %v", skipped[1])
	}
	if zones := g.Zones(); len(zones) != 1 {
		t.Errorf("expected 1 zone loaded, got %d", len(zones))
	}
}

func TestGeofence_DwellThrottled(t *testing.T) {
	g := NewGeofenceEngine(GeofenceOptions{
		DwellEnabled:  true,
		DwellAfter:    time.Minute,
		DwellInterval: 2 * time.Minute,
	})
	g.Reconfigure([]domain.Zone{rectZone("Z1", 0, 0, 10, 10)})

	start := time.Unix(1715003456, 0)
	offsets := []time.Duration{0, 30 * time.Second, 60 * time.Second, 90 * time.Second, 200 * time.Second}
	var types []domain.GeofenceEventType
	for _, off := range offsets {
		for _, ev := range g.Evaluate("s1", degFix(5, 5, start.Add(off))) {
			types = append(types, ev.Type)
		}
	}

	want := []domain.GeofenceEventType{domain.GeofenceEnter, domain.GeofenceDwell, domain.GeofenceDwell}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func TestGeofence_DwellDisabledByDefault(t *testing.T) {
	g := NewGeofenceEngine(GeofenceOptions{})
	g.Reconfigure([]domain.Zone{rectZone("Z1", 0, 0, 10, 10)})

	start := time.Unix(1715003456, 0)
	g.Evaluate("s1", degFix(5, 5, start))
	if evs := g.Evaluate("s1", degFix(5, 5, start.Add(time.Hour))); len(evs) != 0 {
		t.Fatalf("expected no dwell events, got %v", evs)
	}
}
