package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/config"
)

const (
	exchangeName = "farm.tracking"
	queueName    = "farm_tracking_listener"
)

type trackingMessage struct {
	SessionID     string  `json:"session_id"`
	ID            string  `json:"id"`
	ZoneID        string  `json:"zone_id"`
	Event         string  `json:"event"`
	Timestamp     int64   `json:"timestamp"`
	LocationCount int     `json:"location_count"`
	Distance      float64 `json:"total_distance_meters"`
}

// describe renders one delivery from either routing key as a log line.
func describe(msg amqp.Delivery) (string, error) {
	var body trackingMessage
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		return "", err
	}
	if body.ZoneID != "" {
		return fmt.Sprintf("[%s] session=%s zone=%s event=%s at=%d",
			msg.RoutingKey, body.SessionID, body.ZoneID, body.Event, body.Timestamp), nil
	}
	return fmt.Sprintf("[%s] session=%s fixes=%d distance=%.1fm",
		msg.RoutingKey, body.ID, body.LocationCount, body.Distance), nil
}

// Prints every geofence event and finished session published by the server.
func main() {
	config.InitLogging()
	cfg := config.Load()

	conn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbitmq channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		log.Fatalf("declare exchange: %v", err)
	}

	q, err := ch.QueueDeclare(queueName, false, true, true, false, nil)
	if err != nil {
		log.Fatalf("declare queue: %v", err)
	}

	if err := ch.QueueBind(q.Name, "#", exchangeName, false, nil); err != nil {
		log.Fatalf("bind queue: %v", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	log.Printf("consuming from exchange '%s', waiting for tracking events...", exchangeName)

	go func() {
		for msg := range msgs {
			line, err := describe(msg)
			if err != nil {
				log.Printf("undecodable %s message: %v", msg.RoutingKey, err)
				continue
			}
			fmt.Println(line)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
}
