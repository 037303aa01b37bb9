package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/repository/publisher"
)

var _ publisher.EventPublisher = (*EventPublisher)(nil)

const (
	ExchangeName = "farm.tracking"

	GeofenceRoutingKey = "geofence"
	SessionRoutingKey  = "session.finished"

	geofenceQueue = "farm_geofence_events"
	sessionQueue  = "farm_tracking_sessions"
)

type EventPublisher struct {
	ch *amqp.Channel
}

// NewEventPublisher declares the topic exchange and binds one durable queue
// per message kind.
func NewEventPublisher(conn *amqp.Connection) (*EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	for queue, key := range map[string]string{geofenceQueue: GeofenceRoutingKey, sessionQueue: SessionRoutingKey} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
		if err := ch.QueueBind(queue, key, ExchangeName, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return &EventPublisher{ch: ch}, nil
}

type geofenceMessage struct {
	SessionID string                   `json:"session_id"`
	ZoneID    string                   `json:"zone_id"`
	Event     domain.GeofenceEventType `json:"event"`
	Location  messageLocation          `json:"location"`
	Timestamp int64                    `json:"timestamp"`
}

type messageLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

func geofencePublishing(ev *domain.GeofenceEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(geofenceMessage{
		SessionID: ev.SessionID,
		ZoneID:    ev.ZoneID,
		Event:     ev.Type,
		Location: messageLocation{
			Latitude:  ev.Fix.Lat,
			Longitude: ev.Fix.Lon,
			Accuracy:  ev.Fix.Accuracy,
		},
		Timestamp: ev.Timestamp.Unix(),
	})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal geofence event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         "geofence." + string(ev.Type),
		Timestamp:    ev.Timestamp,
		Body:         body,
	}, nil
}

func sessionPublishing(snap *domain.SessionSnapshot) (amqp.Publishing, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal session: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    snap.ID,
		Type:         "session.finished",
		Body:         body,
	}
	if snap.EndedAt != nil {
		msg.Timestamp = *snap.EndedAt
	}
	return msg, nil
}

func (p *EventPublisher) PublishGeofenceEvent(ctx context.Context, ev *domain.GeofenceEvent) error {
	msg, err := geofencePublishing(ev)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, ExchangeName, GeofenceRoutingKey, false, false, msg)
}

func (p *EventPublisher) PublishSessionSnapshot(ctx context.Context, snap *domain.SessionSnapshot) error {
	msg, err := sessionPublishing(snap)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, ExchangeName, SessionRoutingKey, false, false, msg)
}
