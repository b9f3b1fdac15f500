package probe

import (
	"testing"
	"time"

	"qos-probe/internal/sample"
)

func newTestHandler(nowMs int64) (*Handler, *sample.Recorder) {
	rec := sample.NewRecorder(nil, nil)
	h := NewHandler("test", rec, nil, nil)
	h.now = func() time.Time { return time.UnixMilli(nowMs) }
	return h, rec
}

func TestHandleArrival(t *testing.T) {
	h, rec := newTestHandler(1105)
	err := h.Handle(MessageEvent{Topic: "test", Payload: []byte("3 1100"), QoS: 1})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	s, ok := rec.MostRecent()
	if !ok {
		t.Fatal("no sample recorded")
	}
	a := s.(sample.Arrival)
	if a.SeqNum != 3 || a.SendTime != 1100 || a.RecvTime != 1105 {
		t.Fatalf("unexpected arrival: %#v", a)
	}
	if a.Latency != a.RecvTime-a.SendTime {
		t.Fatalf("latency %d != rcv-send %d", a.Latency, a.RecvTime-a.SendTime)
	}
	if a.QoS != 1 {
		t.Fatalf("QoS = %d, want the delivered level 1", a.QoS)
	}
}

func TestHandleOtherTopicIgnored(t *testing.T) {
	h, rec := newTestHandler(0)
	if err := h.Handle(MessageEvent{Topic: "other", Payload: []byte("junk")}); err != nil {
		t.Fatalf("other topics must not error: %v", err)
	}
	if rec.Len() != 0 {
		t.Fatal("other topics must not be recorded")
	}
}

func TestHandleMalformedPayloadFatal(t *testing.T) {
	cases := []string{
		"",
		"5",
		"5 100 extra",
		"abc 100",
		"5 abc",
		"-2 100",
	}
	for _, payload := range cases {
		h, rec := newTestHandler(0)
		if err := h.Handle(MessageEvent{Topic: "test", Payload: []byte(payload)}); err == nil {
			t.Fatalf("payload %q should be a protocol violation", payload)
		}
		if rec.Len() != 0 {
			t.Fatalf("payload %q must not be recorded", payload)
		}
	}
}
