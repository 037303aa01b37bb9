package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
)

func TestGeofencePublishing(t *testing.T) {
	ts := time.Unix(1715003456, 0)
	msg, err := geofencePublishing(&domain.GeofenceEvent{
		SessionID: "sess-1",
		ZoneID:    "Z1",
		Type:      domain.GeofenceEnter,
		Timestamp: ts,
		Fix:       domain.PositionFix{Lat: 10.7769, Lon: 106.7009, Accuracy: 5, Timestamp: ts},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
		t.Errorf("unexpected headers: %+v", msg)
	}
	if msg.Type != "geofence.enter" {
		t.Errorf("expected type geofence.enter, got %s", msg.Type)
	}

	var body geofenceMessage
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		t.Fatal(err)
	}
	if body.ZoneID != "Z1" || body.Event != domain.GeofenceEnter || body.Timestamp != 1715003456 {
		t.Errorf("unexpected body: %+v", body)
	}
	if body.Location.Latitude != 10.7769 || body.Location.Accuracy != 5 {
		t.Errorf("unexpected location: %+v", body.Location)
	}
}

func TestSessionPublishing(t *testing.T) {
	end := time.Unix(1715004056, 0)
	msg, err := sessionPublishing(&domain.SessionSnapshot{
		ID:             "sess-1",
		EndedAt:        &end,
		LocationCount:  3,
		VisitedZoneIDs: []string{"Z1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.MessageId != "sess-1" || !msg.Timestamp.Equal(end) {
		t.Errorf("unexpected headers: %+v", msg)
	}

	var body domain.SessionSnapshot
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		t.Fatal(err)
	}
	if body.LocationCount != 3 || len(body.VisitedZoneIDs) != 1 {
		t.Errorf("unexpected body: %+v", body)
	}
}
