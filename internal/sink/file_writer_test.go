package sink

import (
	"path/filepath"
	"testing"

	"qos-probe/internal/sample"
)

func TestFileWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")

	snapshot := []sample.Sample{
		sample.Arrival{SeqNum: 0, SendTime: 100, RecvTime: 105, Latency: 5, QoS: 1},
		&sample.DisconnectMarker{SeqNum: sample.Sentinel, LastSeqNum: 0, DisconnectTime: 200, ReconnectTime: 250},
		sample.Arrival{SeqNum: 2, SendTime: 300, RecvTime: 312, Latency: 12, QoS: 0},
	}

	fw, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	if err := fw.WriteAll(snapshot); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("read %d samples, want 3", len(got))
	}
	if a, ok := got[0].(sample.Arrival); !ok || a.Latency != 5 || a.QoS != 1 {
		t.Fatalf("unexpected first sample: %#v", got[0])
	}
	m, ok := got[1].(*sample.DisconnectMarker)
	if !ok {
		t.Fatalf("second sample is not a marker: %#v", got[1])
	}
	if m.ReconnectTime != 250 || m.LastSeqNum != 0 {
		t.Fatalf("marker lost its patch: %#v", m)
	}
	if a, ok := got[2].(sample.Arrival); !ok || a.SeqNum != 2 {
		t.Fatalf("unexpected third sample: %#v", got[2])
	}
}

func TestMultiWriterFanOut(t *testing.T) {
	var a, b capture
	mw := NewMultiWriter(&a, &b)
	if err := mw.WriteSample(sample.Arrival{SeqNum: 1}); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if a.n != 1 || b.n != 1 {
		t.Fatalf("fan-out missed a writer: %d/%d", a.n, b.n)
	}
}

type capture struct{ n int }

func (c *capture) WriteSample(sample.Sample) error {
	c.n++
	return nil
}
