package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/config"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/geo"
)

type fixMessage struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Speed     float64 `json:"speed"`
	Timestamp int64   `json:"timestamp"`
}

const (
	sideMeters = 120.0
	stepMeters = 4.0
)

// walk returns the corners of a square centred on origin. The simulated
// device loops around it, crossing any zone drawn near the origin.
func walk(origin domain.GeoPoint) []domain.GeoPoint {
	h := sideMeters / 2
	return []domain.GeoPoint{
		geo.OffsetMeters(origin, -h, -h),
		geo.OffsetMeters(origin, -h, h),
		geo.OffsetMeters(origin, h, h),
		geo.OffsetMeters(origin, h, -h),
	}
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	cfg := config.Load()
	origin := domain.GeoPoint{Lat: envFloat("SIM_LAT", 10.7769), Lon: envFloat("SIM_LON", 106.7009)}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID("farm-device-simulator")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	corners := walk(origin)
	log.Printf("connected to %s, walking a %.0fm square around %.5f,%.5f every %ds...",
		cfg.MQTTBroker, sideMeters, origin.Lat, origin.Lon, intervalSec)

	interval := time.Duration(intervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	leg, pos := 0, corners[0]
	for range ticker.C {
		target := corners[(leg+1)%len(corners)]
		if d := geo.Distance(pos, target); d <= stepMeters {
			pos, leg = target, (leg+1)%len(corners)
		} else {
			f := stepMeters / d
			pos = domain.GeoPoint{
				Lat: pos.Lat + (target.Lat-pos.Lat)*f,
				Lon: pos.Lon + (target.Lon-pos.Lon)*f,
			}
		}

		// 10% of fixes are noisy, the way a canopy blocks the sky
		accuracy := 3 + rand.Float64()*5
		if rand.Float64() < 0.1 {
			accuracy = 40 + rand.Float64()*40
		}
		reported := geo.OffsetMeters(pos, (rand.Float64()-0.5)*accuracy, (rand.Float64()-0.5)*accuracy)

		msg := fixMessage{
			Latitude:  reported.Lat,
			Longitude: reported.Lon,
			Accuracy:  accuracy,
			Speed:     stepMeters / interval.Seconds(),
			Timestamp: time.Now().UnixMilli(),
		}

		payload, _ := json.Marshal(msg)
		token := client.Publish(cfg.MQTTTopic, 1, false, payload)
		token.Wait()

		log.Printf("published to %s: %s", cfg.MQTTTopic, payload)
	}
}
