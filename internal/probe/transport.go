// Package probe contains the connection-lifecycle controller: the session
// loop, the fault injector, and the message handler feeding the sample log.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"qos-probe/internal/config"
	"qos-probe/internal/metrics"
)

// Event is a typed notification from the transport.
type Event interface {
	isEvent()
}

// ConnectedEvent signals a completed connect or reconnect; the
// subscription has been renewed by the time it is emitted.
type ConnectedEvent struct{}

// MessageEvent carries one inbound publish.
type MessageEvent struct {
	Topic   string
	Payload []byte
	QoS     byte
}

// ConnectionLostEvent signals that the session dropped. Err is nil for a
// disconnect forced by the fault injector.
type ConnectionLostEvent struct {
	Err error
}

func (ConnectedEvent) isEvent()      {}
func (MessageEvent) isEvent()        {}
func (ConnectionLostEvent) isEvent() {}

// Transport is the broker session capability the controller drives.
// Connect and Reconnect return transient errors for the caller to retry;
// Disconnect force-drops the live session and must unblock a consumer of
// Events with a ConnectionLostEvent.
type Transport interface {
	Connect(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Disconnect()
	Events() <-chan Event
}

// MQTTTransport adapts a paho MQTT client to the Transport interface,
// translating its callbacks into events on a single channel.
type MQTTTransport struct {
	client mqtt.Client
	events chan Event
	topic  string
	qos    byte
	met    *metrics.Metrics
	log    *slog.Logger
}

// NewMQTTTransport builds the client from config. The session is
// persistent (clean session off) and reconnection is left entirely to the
// session controller. met may be nil.
func NewMQTTTransport(cfg *config.Config, met *metrics.Metrics, l *slog.Logger) *MQTTTransport {
	if l == nil {
		l = slog.Default()
	}
	t := &MQTTTransport{
		events: make(chan Event, 256),
		topic:  cfg.Subscriber.Topic,
		qos:    cfg.Subscriber.QoS,
		met:    met,
		log:    l,
	}

	clientID := cfg.Subscriber.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("qos-probe-%s", uuid.NewString()[:8])
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Shared.BrokerURL).
		SetClientID(clientID).
		SetUsername(cfg.Shared.Username).
		SetPassword(cfg.Shared.Password).
		SetKeepAlive(cfg.Keepalive()).
		SetCleanSession(false).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		// Subscribing here renews the subscription on every reconnect.
		if token := c.Subscribe(t.topic, t.qos, t.onMessage); token.Wait() && token.Error() != nil {
			t.log.Error("subscribe failed", "topic", t.topic, "err", token.Error())
			return
		}
		t.emit(ConnectedEvent{})
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		t.emit(ConnectionLostEvent{Err: err})
	}

	t.client = mqtt.NewClient(opts)
	return t
}

// Connect attempts one connection. A failure is returned for the caller's
// retry loop.
func (t *MQTTTransport) Connect(ctx context.Context) error {
	token := t.client.Connect()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reconnect re-establishes the persistent session after a disconnect.
func (t *MQTTTransport) Reconnect(ctx context.Context) error {
	return t.Connect(ctx)
}

// Disconnect force-drops the session. paho treats this as a clean
// disconnect and does not fire the connection-lost callback, so the event
// is emitted here to unblock the session loop.
func (t *MQTTTransport) Disconnect() {
	t.client.Disconnect(250)
	t.emit(ConnectionLostEvent{})
}

// Events returns the transport's event stream.
func (t *MQTTTransport) Events() <-chan Event {
	return t.events
}

func (t *MQTTTransport) onMessage(_ mqtt.Client, msg mqtt.Message) {
	t.emit(MessageEvent{Topic: msg.Topic(), Payload: msg.Payload(), QoS: msg.Qos()})
}

func (t *MQTTTransport) emit(ev Event) {
	select {
	case t.events <- ev:
	default:
		if t.met != nil {
			t.met.EventsDropped.Inc()
		}
		t.log.Warn("event channel full, dropping event", "event", fmt.Sprintf("%T", ev))
	}
}
