package sample

import "log/slog"

// Writer receives samples as they are recorded. Live sinks (stdout,
// GreptimeDB, TUI) implement it; sink errors are logged, never fatal.
type Writer interface {
	WriteSample(Sample) error
}

// Recorder couples the in-memory log with an optional live sink. The log
// is the source of truth; the sink sees each sample as it is appended,
// before any reconnect-time patch.
type Recorder struct {
	log  *Log
	sink Writer
	l    *slog.Logger
}

// NewRecorder creates a recorder. sink may be nil.
func NewRecorder(sink Writer, l *slog.Logger) *Recorder {
	if l == nil {
		l = slog.Default()
	}
	return &Recorder{log: &Log{}, sink: sink, l: l}
}

// Append records an arrival and forwards it to the live sink.
func (r *Recorder) Append(a Arrival) {
	r.log.Append(a)
	r.tee(a)
}

// AppendDisconnect records an injected disconnect and forwards the marker.
func (r *Recorder) AppendDisconnect(nowMs int64) *DisconnectMarker {
	m := r.log.AppendDisconnect(nowMs)
	r.tee(m)
	return m
}

// MarkReconnected patches the pending marker, if any.
func (r *Recorder) MarkReconnected(nowMs int64) bool {
	return r.log.MarkReconnected(nowMs)
}

// MostRecent returns the last recorded sample.
func (r *Recorder) MostRecent() (Sample, bool) { return r.log.MostRecent() }

// Snapshot returns a copy of the full recorded sequence.
func (r *Recorder) Snapshot() []Sample { return r.log.Snapshot() }

// Counts returns recorded arrival and marker counts.
func (r *Recorder) Counts() (arrivals, markers int) { return r.log.Counts() }

// Len returns the number of recorded samples.
func (r *Recorder) Len() int { return r.log.Len() }

func (r *Recorder) tee(s Sample) {
	if r.sink == nil {
		return
	}
	if err := r.sink.WriteSample(s); err != nil {
		r.l.Error("live sink write failed", "err", err)
	}
}
