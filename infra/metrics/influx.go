package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/carsim/core/metrics"
	"github.com/kilianp07/carsim/infra/logger"
)

// InfluxConfig holds the InfluxDB endpoint of an influx sink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes vehicle telemetry to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.TelemetrySink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordVehicleState writes a vehicle_state point.
func (s *InfluxSink) RecordVehicleState(ev coremetrics.VehicleStateEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, statePoint(ev))
}

// RecordGearShift writes a gear_shift point.
func (s *InfluxSink) RecordGearShift(ev coremetrics.GearShiftEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, shiftPoint(ev))
}

// Close releases the client resources.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func statePoint(ev coremetrics.VehicleStateEvent) *write.Point {
	snap := ev.Snapshot
	return write.NewPointWithMeasurement("vehicle_state").
		AddTag("vehicle_id", ev.VehicleID).
		AddTag("gear", gearLabel(snap.Gear)).
		AddField("speed_mps", round3(snap.Speed)).
		AddField("engine_rpm", round3(snap.EngineRPM)).
		AddField("throttle", round3(snap.Throttle)).
		AddField("brake", round3(snap.Brake)).
		AddField("net_force_n", round3(ev.NetForce)).
		AddField("elapsed_s", round3(snap.Elapsed)).
		SetTime(ev.Time)
}

func shiftPoint(ev coremetrics.GearShiftEvent) *write.Point {
	return write.NewPointWithMeasurement("gear_shift").
		AddTag("vehicle_id", ev.VehicleID).
		AddTag("direction", ev.Direction).
		AddField("from_gear", ev.From+1).
		AddField("to_gear", ev.To+1).
		AddField("speed_mps", round3(ev.Speed)).
		AddField("engine_rpm", round3(ev.EngineRPM)).
		SetTime(ev.Time)
}

func gearLabel(g int) string { return strconv.Itoa(g + 1) }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
