package subscriber

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-playground/validator/v10"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
)

var _ domain.PositionSource = (*PositionSource)(nil)

const DefaultTopic = "farm/device/location"

var validate = validator.New()

// fixMessage is what the field device's location provider publishes.
// Timestamp is unix milliseconds.
type fixMessage struct {
	Latitude  float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  float64  `json:"accuracy" validate:"gte=0"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Heading   *float64 `json:"heading,omitempty" validate:"omitempty,gte=0,lt=360"`
	Speed     *float64 `json:"speed,omitempty" validate:"omitempty,gte=0"`
	Timestamp int64    `json:"timestamp" validate:"gt=0"`
}

// PositionSource adapts an MQTT topic to domain.PositionSource. Register
// OnConnect and OnConnectionLost on the client options so the subscription
// survives broker reconnects.
type PositionSource struct {
	topic string

	mu     sync.Mutex
	client mqtt.Client
	onFix  func(domain.PositionFix)
	onErr  func(error)
}

func NewPositionSource(topic string) *PositionSource {
	if topic == "" {
		topic = DefaultTopic
	}
	return &PositionSource{topic: topic}
}

func (s *PositionSource) Topic() string {
	return s.topic
}

func (s *PositionSource) Subscribe(onFix func(domain.PositionFix), onErr func(error)) func() {
	s.mu.Lock()
	s.onFix = onFix
	s.onErr = onErr
	client := s.client
	s.mu.Unlock()

	if client != nil && client.IsConnected() {
		s.subscribe(client)
	}

	return func() {
		s.mu.Lock()
		s.onFix = nil
		s.onErr = nil
		client := s.client
		s.mu.Unlock()

		if client != nil && client.IsConnected() {
			client.Unsubscribe(s.topic).Wait()
		}
	}
}

// OnConnect is the paho OnConnectHandler. It also runs after every automatic
// reconnect, which is when the topic subscription is restored.
func (s *PositionSource) OnConnect(client mqtt.Client) {
	s.mu.Lock()
	s.client = client
	active := s.onFix != nil
	s.mu.Unlock()

	if active {
		s.subscribe(client)
	}
}

// OnConnectionLost is the paho ConnectionLostHandler.
func (s *PositionSource) OnConnectionLost(_ mqtt.Client, err error) {
	s.reportError(fmt.Errorf("%w: mqtt connection lost: %v", domain.ErrPositionSourceUnavailable, err))
}

func (s *PositionSource) subscribe(client mqtt.Client) {
	token := client.Subscribe(s.topic, 1, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		s.reportError(fmt.Errorf("%w: subscribe %s: %v", domain.ErrPositionSourceUnavailable, s.topic, err))
		return
	}
	log.Printf("mqtt: subscribed to %s", s.topic)
}

func (s *PositionSource) reportError(err error) {
	log.Printf("mqtt: %v", err)
	s.mu.Lock()
	onErr := s.onErr
	s.mu.Unlock()
	if onErr != nil {
		onErr(err)
	}
}

func (s *PositionSource) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw fixMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid fix message: %v", err)
		return
	}

	if err := validate.Struct(raw); err != nil {
		log.Printf("validation error: %v", err)
		return
	}

	s.mu.Lock()
	onFix := s.onFix
	s.mu.Unlock()
	if onFix == nil {
		return
	}

	onFix(domain.PositionFix{
		Lat:       raw.Latitude,
		Lon:       raw.Longitude,
		Accuracy:  raw.Accuracy,
		Altitude:  raw.Altitude,
		Heading:   raw.Heading,
		Speed:     raw.Speed,
		Timestamp: time.UnixMilli(raw.Timestamp),
	})
}
