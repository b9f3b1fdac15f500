package sample

import "sync"

// Log is the append-only sample log for one run. Appends from the receive
// path and the fault injector are serialized by a single mutex; the same
// mutex covers the reconnect-time patch, so no append can slip between a
// reconnect completing and its marker being stamped.
type Log struct {
	mu      sync.Mutex
	samples []Sample
}

// Append adds an arrival to the log.
func (l *Log) Append(a Arrival) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append(l.samples, a)
}

// AppendDisconnect records an injected disconnect. The marker's
// last_seq_num is the sequence number of the most recent arrival as the
// log stands right now, or Sentinel if none; computing it and appending
// the marker happen under one lock acquisition.
func (l *Log) AppendDisconnect(nowMs int64) *DisconnectMarker {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := &DisconnectMarker{
		SeqNum:         Sentinel,
		LastSeqNum:     l.lastArrivalSeqLocked(),
		DisconnectTime: nowMs,
		ReconnectTime:  Sentinel,
	}
	l.samples = append(l.samples, m)
	return m
}

func (l *Log) lastArrivalSeqLocked() int64 {
	for i := len(l.samples) - 1; i >= 0; i-- {
		if a, ok := l.samples[i].(Arrival); ok {
			return a.SeqNum
		}
	}
	return Sentinel
}

// MarkReconnected stamps nowMs onto the most recently appended disconnect
// marker if it is still pending. It reports whether a marker was patched;
// an already-patched marker is never touched again.
func (l *Log) MarkReconnected(nowMs int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.samples) - 1; i >= 0; i-- {
		if m, ok := l.samples[i].(*DisconnectMarker); ok {
			if !m.Pending() {
				return false
			}
			m.ReconnectTime = nowMs
			return true
		}
	}
	return false
}

// MostRecent returns the last appended sample.
func (l *Log) MostRecent() (Sample, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.samples) == 0 {
		return nil, false
	}
	return l.samples[len(l.samples)-1], true
}

// Snapshot returns a copy of the full sequence. It is meant to be taken
// after the run stopped and all writers have been joined.
func (l *Log) Snapshot() []Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Sample, len(l.samples))
	copy(out, l.samples)
	return out
}

// Counts returns how many arrivals and how many markers were recorded.
func (l *Log) Counts() (arrivals, markers int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.samples {
		if _, ok := s.(Arrival); ok {
			arrivals++
		} else {
			markers++
		}
	}
	return arrivals, markers
}

// Len returns the number of recorded samples.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}
