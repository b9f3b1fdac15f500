package probe

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"qos-probe/internal/metrics"
	"qos-probe/internal/sample"
)

// Handler converts inbound message events into arrival samples. A payload
// that does not parse is a protocol contract violation: the harness
// controls both ends of the test, so the error is returned as fatal
// rather than skipped.
type Handler struct {
	topic string
	rec   *sample.Recorder
	met   *metrics.Metrics
	now   func() time.Time
	log   *slog.Logger
}

// NewHandler creates a handler for the expected topic. met may be nil.
func NewHandler(topic string, rec *sample.Recorder, met *metrics.Metrics, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	return &Handler{topic: topic, rec: rec, met: met, now: time.Now, log: l}
}

// Handle processes one delivery. Events on other topics are ignored.
func (h *Handler) Handle(ev MessageEvent) error {
	recvTime := h.now().UnixMilli()
	if ev.Topic != h.topic {
		if h.met != nil {
			h.met.Ignored.Inc()
		}
		return nil
	}

	fields := strings.Fields(string(ev.Payload))
	if len(fields) != 2 {
		return fmt.Errorf("malformed payload %q: want \"<seq> <send_ms>\"", ev.Payload)
	}
	seq, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return fmt.Errorf("malformed sequence number %q: %w", fields[0], err)
	}
	if seq < 0 {
		return fmt.Errorf("negative sequence number %d", seq)
	}
	sendTime, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return fmt.Errorf("malformed send timestamp %q: %w", fields[1], err)
	}

	a := sample.Arrival{
		SeqNum:   seq,
		SendTime: sendTime,
		RecvTime: recvTime,
		Latency:  recvTime - sendTime,
		QoS:      ev.QoS,
	}
	h.rec.Append(a)
	if h.met != nil {
		h.met.Received.Inc()
		h.met.Latency.Observe(float64(a.Latency))
	}
	h.log.Debug("message", "seq", a.SeqNum, "latency_ms", a.Latency, "qos", a.QoS)
	return nil
}
