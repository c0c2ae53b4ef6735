package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/carsim/core/factory"
	coremetrics "github.com/kilianp07/carsim/core/metrics"
	"github.com/kilianp07/carsim/infra/logger"
)

func init() {
	_ = coremetrics.RegisterTelemetrySink("mqtt", func(conf map[string]any) (coremetrics.TelemetrySink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewStatePublisher(c)
	})
}

// StatePayload is the JSON document published on the state topic.
type StatePayload struct {
	VehicleID string  `json:"vehicle_id"`
	SpeedMPS  float64 `json:"speed_mps"`
	SpeedKMH  float64 `json:"speed_kmh"`
	EngineRPM float64 `json:"engine_rpm"`
	Gear      int     `json:"gear"`
	Throttle  float64 `json:"throttle"`
	Brake     float64 `json:"brake"`
	Elapsed   float64 `json:"elapsed_s"`
	Timestamp int64   `json:"timestamp"`
}

// ShiftPayload is the JSON document published on the shift topic.
type ShiftPayload struct {
	VehicleID string  `json:"vehicle_id"`
	From      int     `json:"from"`
	To        int     `json:"to"`
	Direction string  `json:"direction"`
	SpeedMPS  float64 `json:"speed_mps"`
	EngineRPM float64 `json:"engine_rpm"`
	Timestamp int64   `json:"timestamp"`
}

// StatePublisher publishes vehicle telemetry to an MQTT broker. Gears are
// reported 1-based.
type StatePublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewStatePublisher connects to the broker described by cfg.
func NewStatePublisher(cfg Config) (*StatePublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &StatePublisher{
		cli:        c,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}, nil
}

// StateTopic returns the topic carrying state samples of vehicleID.
func (p *StatePublisher) StateTopic(vehicleID string) string {
	return fmt.Sprintf("%s/vehicle/%s/state", p.prefix, vehicleID)
}

// ShiftTopic returns the topic carrying gear shifts of vehicleID.
func (p *StatePublisher) ShiftTopic(vehicleID string) string {
	return fmt.Sprintf("%s/vehicle/%s/shift", p.prefix, vehicleID)
}

// RecordVehicleState publishes the sample as JSON.
func (p *StatePublisher) RecordVehicleState(ev coremetrics.VehicleStateEvent) error {
	s := ev.Snapshot
	return p.publish(p.StateTopic(ev.VehicleID), StatePayload{
		VehicleID: ev.VehicleID,
		SpeedMPS:  s.Speed,
		SpeedKMH:  s.SpeedKMH(),
		EngineRPM: s.EngineRPM,
		Gear:      s.GearNumber(),
		Throttle:  s.Throttle,
		Brake:     s.Brake,
		Elapsed:   s.Elapsed,
		Timestamp: ev.Time.UnixMilli(),
	})
}

// RecordGearShift publishes the shift as JSON.
func (p *StatePublisher) RecordGearShift(ev coremetrics.GearShiftEvent) error {
	return p.publish(p.ShiftTopic(ev.VehicleID), ShiftPayload{
		VehicleID: ev.VehicleID,
		From:      ev.From + 1,
		To:        ev.To + 1,
		Direction: ev.Direction,
		SpeedMPS:  ev.Speed,
		EngineRPM: ev.EngineRPM,
		Timestamp: ev.Time.UnixMilli(),
	})
}

func (p *StatePublisher) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.log.Warnf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Close disconnects from the broker.
func (p *StatePublisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}
