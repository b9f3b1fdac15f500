package probe

import (
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"qos-probe/internal/config"
	"qos-probe/internal/metrics"
)

func TestTransportUsesConfiguredSubscription(t *testing.T) {
	cfg := config.Default()
	cfg.Subscriber.Topic = "bench"
	cfg.Subscriber.QoS = 2

	tr := NewMQTTTransport(cfg, nil, nil)
	if tr.topic != "bench" || tr.qos != 2 {
		t.Fatalf("subscription = %q qos %d, want bench qos 2", tr.topic, tr.qos)
	}
}

func TestEmitCountsDropsWhenChannelFull(t *testing.T) {
	met := metrics.New(prometheus.NewRegistry())
	tr := &MQTTTransport{events: make(chan Event, 1), met: met, log: slog.Default()}

	tr.emit(MessageEvent{Topic: "test", Payload: []byte("0 100")})
	tr.emit(MessageEvent{Topic: "test", Payload: []byte("1 101")})

	if got := testutil.ToFloat64(met.EventsDropped); got != 1 {
		t.Fatalf("dropped = %g, want 1", got)
	}
	select {
	case ev := <-tr.events:
		if m, ok := ev.(MessageEvent); !ok || string(m.Payload) != "0 100" {
			t.Fatalf("unexpected buffered event: %#v", ev)
		}
	default:
		t.Fatal("first event lost")
	}
}
