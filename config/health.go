package config

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
)

const healthTimeout = 2 * time.Second

// Check probes one dependency. A failing check with Degrades set marks the
// service degraded but keeps /healthz at 200; any other failure returns 503.
type Check struct {
	Name     string
	Degrades bool
	Probe    func(ctx context.Context) error
}

func PostgresCheck(db *sql.DB) Check {
	return Check{Name: "postgres", Probe: db.PingContext}
}

func RabbitMQCheck(conn *amqp.Connection) Check {
	return Check{Name: "rabbitmq", Probe: func(context.Context) error {
		if conn.IsClosed() {
			return errors.New("connection closed")
		}
		return nil
	}}
}

func MQTTCheck(client mqtt.Client) Check {
	return Check{Name: "mqtt", Probe: func(context.Context) error {
		if !client.IsConnectionOpen() {
			return errors.New("not connected")
		}
		return nil
	}}
}

// PositionSourceCheck reports whether fixes are flowing. The engine keeps the
// session alive through an outage, so it only degrades.
func PositionSourceCheck(available func() bool) Check {
	return Check{Name: "position_source", Degrades: true, Probe: func(context.Context) error {
		if !available() {
			return errors.New("no fixes since last failure")
		}
		return nil
	}}
}

type HealthChecker struct {
	checks []Check
}

func NewHealthChecker(checks ...Check) *HealthChecker {
	return &HealthChecker{checks: checks}
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	overall := "healthy"
	deps := gin.H{}

	for _, chk := range h.checks {
		err := chk.Probe(ctx)
		if err == nil {
			deps[chk.Name] = gin.H{"status": "up"}
			continue
		}
		deps[chk.Name] = gin.H{"status": "down", "error": err.Error()}
		if chk.Degrades {
			if overall == "healthy" {
				overall = "degraded"
			}
			continue
		}
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}
