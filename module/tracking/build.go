package tracking

import (
	"context"
	"database/sql"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/config"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	handler "github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/handler/http"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/handler/subscriber"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/repository/database/postgres"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/repository/publisher/rabbitmq"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/service"
)

type Module struct {
	Coordinator *service.Coordinator
	persister   *service.Persister
	source      *subscriber.PositionSource
	handler     *handler.TrackingHandler
}

// Build wires the tracking engine to postgres, RabbitMQ and an MQTT fix
// topic. The MQTT client is created afterwards with the module's connection
// hooks, then Open starts consuming.
func Build(db *sql.DB, amqpConn *amqp.Connection, topic string, tuning config.Tuning) (*Module, error) {
	entityRepo := postgres.NewEntityRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)

	eventPub, err := rabbitmq.NewEventPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}

	source := subscriber.NewPositionSource(topic)
	coordinator := service.NewCoordinator(source, entityRepo, nil, Options(tuning))

	persister := service.NewPersister(sessionRepo, eventPub, tuning.Persister.Buffer)
	persister.Attach(coordinator)

	return &Module{
		Coordinator: coordinator,
		persister:   persister,
		source:      source,
		handler:     handler.NewTrackingHandler(coordinator),
	}, nil
}

// Options maps the tuning file onto the coordinator's options.
func Options(t config.Tuning) service.Options {
	return service.Options{
		DistanceAccuracyCeiling: t.Session.DistanceAccuracyCeiling,
		ProximityRadius:         t.Proximity.RadiusMeters,
		NearbyLimit:             t.Proximity.Limit,
		Geofence: service.GeofenceOptions{
			ConfirmFixes:  t.Geofence.ConfirmFixes,
			DwellEnabled:  t.Geofence.Dwell,
			DwellAfter:    t.Geofence.DwellAfter,
			DwellInterval: t.Geofence.DwellInterval,
		},
		Capture: domain.CaptureOptions{
			TargetSamples:   t.Capture.TargetSamples,
			Timeout:         t.Capture.Timeout,
			AccuracyCeiling: t.Capture.AccuracyCeiling,
		},
	}
}

func (m *Module) OnMQTTConnect(client mqtt.Client) {
	m.source.OnConnect(client)
}

func (m *Module) OnMQTTConnectionLost(client mqtt.Client, err error) {
	m.source.OnConnectionLost(client, err)
}

func (m *Module) Topic() string {
	return m.source.Topic()
}

func (m *Module) Open() {
	m.Coordinator.Open()
}

func (m *Module) Close() {
	m.Coordinator.Close()
}

// RunPersister blocks until ctx is done.
func (m *Module) RunPersister(ctx context.Context) error {
	return m.persister.Run(ctx)
}

func (m *Module) SourceAvailable() bool {
	return m.Coordinator.CurrentState().SourceAvailable
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
}
