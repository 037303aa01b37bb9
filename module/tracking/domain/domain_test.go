package domain

import (
	"errors"
	"testing"
	"time"
)

func TestPositionFix_Validate(t *testing.T) {
	ts := time.Unix(1715003456, 0)
	heading := 360.0
	speed := -1.0

	tests := []struct {
		name    string
		fix     PositionFix
		wantErr bool
	}{
		{"valid", PositionFix{Lat: 10.7769, Lon: 106.7009, Accuracy: 5, Timestamp: ts}, false},
		{"poles and antimeridian", PositionFix{Lat: -90, Lon: 180, Accuracy: 0, Timestamp: ts}, false},
		{"latitude too high", PositionFix{Lat: 90.1, Lon: 0, Accuracy: 5, Timestamp: ts}, true},
		{"longitude too low", PositionFix{Lat: 0, Lon: -180.5, Accuracy: 5, Timestamp: ts}, true},
		{"negative accuracy", PositionFix{Lat: 0, Lon: 0, Accuracy: -2, Timestamp: ts}, true},
		{"heading out of range", PositionFix{Lat: 0, Lon: 0, Accuracy: 5, Heading: &heading, Timestamp: ts}, true},
		{"negative speed", PositionFix{Lat: 0, Lon: 0, Accuracy: 5, Speed: &speed, Timestamp: ts}, true},
		{"missing timestamp", PositionFix{Lat: 0, Lon: 0, Accuracy: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fix.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFix) {
					t.Errorf("expected ErrInvalidFix, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestZone_Validate(t *testing.T) {
	tests := []struct {
		name     string
		boundary []GeoPoint
		wantErr  bool
	}{
		{"triangle", []GeoPoint{{0, 0}, {0, 1}, {1, 0}}, false},
		{"closed triangle", []GeoPoint{{0, 0}, {0, 1}, {1, 0}, {0, 0}}, false},
		{"two points", []GeoPoint{{0, 0}, {0, 1}}, true},
		{"repeated vertices", []GeoPoint{{0, 0}, {0, 1}, {0, 0}, {0, 1}}, true},
		{"empty", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Zone{ID: "Z1", Boundary: tt.boundary}.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var zoneErr *InvalidZoneError
			if !errors.As(err, &zoneErr) || zoneErr.ZoneID != "Z1" {
				t.Fatalf("expected InvalidZoneError for Z1, got %v", err)
			}
			if !errors.Is(err, ErrInvalidZone) {
				t.Error("expected error to wrap ErrInvalidZone")
			}
		})
	}
}

func TestZone_Ring(t *testing.T) {
	open := Zone{Boundary: []GeoPoint{{0, 0}, {0, 1}, {1, 1}}}
	ring := open.Ring()
	if len(ring) != 4 || ring[3] != ring[0] {
		t.Errorf("expected closed ring, got %v", ring)
	}
	if len(open.Boundary) != 3 {
		t.Error("Ring must not modify the boundary")
	}

	closed := Zone{Boundary: []GeoPoint{{0, 0}, {0, 1}, {1, 1}, {0, 0}}}
	if got := closed.Ring(); len(got) != 4 {
		t.Errorf("expected ring to stay at 4 vertices, got %d", len(got))
	}

	if (Zone{}).Ring() != nil {
		t.Error("expected nil ring for empty boundary")
	}
}

func TestCaptureOptions_WithDefaults(t *testing.T) {
	got := CaptureOptions{TargetSamples: 3}.WithDefaults()
	want := CaptureOptions{TargetSamples: 3, Timeout: DefaultCaptureTimeout, AccuracyCeiling: DefaultCaptureAccuracyCeiling}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
