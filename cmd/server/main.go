package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/config"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking"
)

func main() {
	config.InitLogging()
	cfg := config.Load()

	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		log.Fatalf("tuning: %v", err)
	}

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	trackingModule, err := tracking.Build(db, amqpConn, cfg.MQTTTopic, tuning)
	if err != nil {
		log.Fatalf("tracking module: %v", err)
	}

	mqttClient, err := config.NewMQTT(cfg, trackingModule.OnMQTTConnectionLost, trackingModule.OnMQTTConnect)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	trackingModule.Open()
	defer trackingModule.Close()

	r := gin.Default()

	health := config.NewHealthChecker(
		config.PostgresCheck(db),
		config.RabbitMQCheck(amqpConn),
		config.MQTTCheck(mqttClient),
		config.PositionSourceCheck(trackingModule.SourceAvailable),
	)
	health.Register(r)

	trackingModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return trackingModule.RunPersister(gctx)
	})
	g.Go(func() error {
		log.Printf("listening on :%s, fixes from %s", cfg.HTTPPort, trackingModule.Topic())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: %v", err)
	}
	log.Println("shutting down")
}
