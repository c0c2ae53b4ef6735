package mqtt

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/carsim/core/model"
)

type subscribeMock struct {
	mockClient
	topic        string
	qos          byte
	handler      paho.MessageHandler
	subErr       error
	unsubscribed []string
}

func (m *subscribeMock) Subscribe(topic string, qos byte, cb paho.MessageHandler) paho.Token {
	m.topic, m.qos, m.handler = topic, qos, cb
	return &dummyToken{err: m.subErr}
}

func (m *subscribeMock) Unsubscribe(topics ...string) paho.Token {
	m.unsubscribed = append(m.unsubscribed, topics...)
	return &dummyToken{}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (f fakeMessage) Duplicate() bool   { return false }
func (f fakeMessage) Qos() byte         { return 0 }
func (f fakeMessage) Retained() bool    { return false }
func (f fakeMessage) Topic() string     { return f.topic }
func (f fakeMessage) MessageID() uint16 { return 0 }
func (f fakeMessage) Payload() []byte   { return f.payload }
func (f fakeMessage) Ack()              {}

func withSubscribeMock(t *testing.T, mc *subscribeMock) {
	t.Helper()
	newSubscribeClient = func(o *paho.ClientOptions) subscribeClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newSubscribeClient = func(opts *paho.ClientOptions) subscribeClient { return paho.NewClient(opts) }
	})
}

func TestPedalSubscriber_ReceivesPedals(t *testing.T) {
	mc := &subscribeMock{}
	withSubscribeMock(t, mc)
	sub, err := NewPedalSubscriber(Config{Broker: "tcp://localhost:1883", TopicPrefix: "sim", QoS: 1}, "car-1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "sim/vehicle/car-1/pedals", mc.topic)
	assert.Equal(t, sub.Topic(), mc.topic)
	assert.Equal(t, byte(1), mc.qos)

	now := time.Unix(100, 0)
	sub.now = func() time.Time { return now }
	assert.True(t, sub.Read(0.016).Idle(), "no message yet")

	okBefore := testutil.ToFloat64(pedalMessages.WithLabelValues("ok"))
	mc.handler(nil, fakeMessage{topic: mc.topic, payload: []byte(`{"throttle":0.7,"brake":2}`)})
	assert.Equal(t, model.PedalInput{Throttle: 0.7, Brake: 1}, sub.Read(0.016))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(pedalMessages.WithLabelValues("ok")))

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, sub.Read(0.016).Idle(), "stale input releases the pedals")
}

func TestPedalSubscriber_InvalidPayload(t *testing.T) {
	mc := &subscribeMock{}
	withSubscribeMock(t, mc)
	sub, err := NewPedalSubscriber(Config{Broker: "tcp://localhost:1883"}, "car-1", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPedalStale, sub.stale)
	assert.Equal(t, "carsim/vehicle/car-1/pedals", sub.Topic())

	before := testutil.ToFloat64(pedalMessages.WithLabelValues("invalid"))
	mc.handler(nil, fakeMessage{topic: sub.Topic(), payload: []byte("nope")})
	assert.Equal(t, before+1, testutil.ToFloat64(pedalMessages.WithLabelValues("invalid")))
	assert.True(t, sub.Read(0.016).Idle())
}

func TestPedalSubscriber_SubscribeError(t *testing.T) {
	mc := &subscribeMock{subErr: errors.New("denied")}
	withSubscribeMock(t, mc)
	_, err := NewPedalSubscriber(Config{Broker: "tcp://localhost:1883"}, "car-1", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
	assert.True(t, mc.disconnected)
}

func TestPedalSubscriber_Close(t *testing.T) {
	mc := &subscribeMock{}
	withSubscribeMock(t, mc)
	sub, err := NewPedalSubscriber(Config{Broker: "tcp://localhost:1883"}, "car-1", 0)
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	assert.Equal(t, []string{sub.Topic()}, mc.unsubscribed)
	assert.True(t, mc.disconnected)
	require.NoError(t, sub.Close())
}

func TestPedalSubscriber_RequiresBroker(t *testing.T) {
	_, err := NewPedalSubscriber(Config{}, "car-1", 0)
	assert.Error(t, err)
}
