package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/carsim/core/model"
	"github.com/kilianp07/carsim/core/pedal"
	"github.com/kilianp07/carsim/infra/logger"
)

// DefaultPedalStale is how long a remote pedal command stays valid without
// a refresh.
const DefaultPedalStale = 500 * time.Millisecond

var pedalMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "vehicle_remote_pedal_messages_total",
	Help: "Remote pedal messages received, by decode result",
}, []string{"result"})

func init() {
	prometheus.MustRegister(pedalMessages)
}

type subscribeClient interface {
	pahoClient
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

var newSubscribeClient = func(opts *paho.ClientOptions) subscribeClient {
	return paho.NewClient(opts)
}

// PedalPayload is the JSON document accepted on the pedal topic.
type PedalPayload struct {
	Throttle float64 `json:"throttle"`
	Brake    float64 `json:"brake"`
}

// PedalTopic returns the topic remote controllers publish pedal positions of
// vehicleID on.
func PedalTopic(prefix, vehicleID string) string {
	return fmt.Sprintf("%s/vehicle/%s/pedals", prefix, vehicleID)
}

// PedalSubscriber is a pedal.Source fed by pedal positions received over
// MQTT. Positions older than the stale window read as released pedals so a
// lost controller cannot hold the throttle open.
type PedalSubscriber struct {
	cli   subscribeClient
	topic string
	stale time.Duration
	now   func() time.Time
	log   logger.Logger

	mu   sync.Mutex
	last model.PedalInput
	at   time.Time
}

var _ pedal.Source = (*PedalSubscriber)(nil)

// NewPedalSubscriber connects to the broker and subscribes to the pedal
// topic of vehicleID. A stale window of zero selects DefaultPedalStale.
func NewPedalSubscriber(cfg Config, vehicleID string, stale time.Duration) (*PedalSubscriber, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if stale <= 0 {
		stale = DefaultPedalStale
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.SetClientID(cfg.ClientID + "-pedals")
	s := &PedalSubscriber{
		topic: PedalTopic(cfg.TopicPrefix, vehicleID),
		stale: stale,
		now:   time.Now,
		log:   logger.New("mqtt_pedals"),
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		s.log.Errorf("connection lost: %v", err)
	}
	s.cli = newSubscribeClient(opts)
	if token := s.cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	if token := s.cli.Subscribe(s.topic, cfg.QoS, s.onMessage); token.Wait() && token.Error() != nil {
		s.cli.Disconnect(250)
		return nil, fmt.Errorf("subscribe %s: %w", s.topic, token.Error())
	}
	s.log.Infof("listening for pedals on %s", s.topic)
	return s, nil
}

// Topic returns the subscribed topic.
func (s *PedalSubscriber) Topic() string { return s.topic }

func (s *PedalSubscriber) onMessage(_ paho.Client, msg paho.Message) {
	var p PedalPayload
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		pedalMessages.WithLabelValues("invalid").Inc()
		s.log.Warnf("pedal decode on %s: %v", msg.Topic(), err)
		return
	}
	pedalMessages.WithLabelValues("ok").Inc()
	in := pedal.Normalize(model.PedalInput{Throttle: p.Throttle, Brake: p.Brake})
	s.mu.Lock()
	s.last, s.at = in, s.now()
	s.mu.Unlock()
}

// Read implements pedal.Source.
func (s *PedalSubscriber) Read(float64) model.PedalInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now().Sub(s.at) > s.stale {
		return model.PedalInput{}
	}
	return s.last
}

// Close unsubscribes and disconnects from the broker.
func (s *PedalSubscriber) Close() error {
	if s.cli == nil || !s.cli.IsConnected() {
		return nil
	}
	var err error
	if token := s.cli.Unsubscribe(s.topic); token.Wait() && token.Error() != nil {
		err = fmt.Errorf("unsubscribe %s: %w", s.topic, token.Error())
	}
	s.cli.Disconnect(250)
	return err
}
