package probe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"qos-probe/internal/sample"
)

// fakeTransport scripts the broker side of a session. Reconnect pushes a
// ConnectedEvent the way the real adapter's on-connect hook does.
type fakeTransport struct {
	events      chan Event
	failFirst   atomic.Int64 // connect attempts that fail before succeeding
	connects    atomic.Int64
	reconnects  atomic.Int64
	disconnects atomic.Int64
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan Event, 64)}
}

func (f *fakeTransport) Connect(ctx context.Context) error {
	f.connects.Add(1)
	if f.failFirst.Load() > 0 {
		f.failFirst.Add(-1)
		return errors.New("connection timed out")
	}
	f.events <- ConnectedEvent{}
	return nil
}

func (f *fakeTransport) Reconnect(ctx context.Context) error {
	f.reconnects.Add(1)
	f.events <- ConnectedEvent{}
	return nil
}

func (f *fakeTransport) Disconnect() {
	f.disconnects.Add(1)
}

func (f *fakeTransport) Events() <-chan Event { return f.events }

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSessionReceivesAndStops(t *testing.T) {
	ft := newFakeTransport()
	rec := sample.NewRecorder(nil, nil)
	h := NewHandler("test", rec, nil, nil)
	c := NewController(ft, h, rec, nil, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitFor(t, c.Connected, "connected state")
	ft.events <- MessageEvent{Topic: "test", Payload: []byte("0 100")}
	ft.events <- MessageEvent{Topic: "test", Payload: []byte("1 101")}
	waitFor(t, func() bool { return rec.Len() == 2 }, "two arrivals")

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}

func TestSessionReconnectPatchesMarker(t *testing.T) {
	ft := newFakeTransport()
	rec := sample.NewRecorder(nil, nil)
	h := NewHandler("test", rec, nil, nil)
	c := NewController(ft, h, rec, nil, time.Millisecond, nil)
	c.now = func() time.Time { return time.UnixMilli(500) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	waitFor(t, c.Connected, "initial connection")

	// Simulate the injector's view: marker appended, then the loss event.
	ft.events <- MessageEvent{Topic: "test", Payload: []byte("3 100")}
	waitFor(t, func() bool { return rec.Len() == 1 }, "arrival")
	m := rec.AppendDisconnect(400)
	ft.events <- ConnectionLostEvent{}

	waitFor(t, func() bool { return !m.Pending() }, "marker patch")
	if m.ReconnectTime != 500 {
		t.Fatalf("ReconnectTime = %d, want 500", m.ReconnectTime)
	}
	if m.LastSeqNum != 3 {
		t.Fatalf("LastSeqNum = %d, want 3", m.LastSeqNum)
	}
	if ft.reconnects.Load() != 1 {
		t.Fatalf("reconnects = %d, want 1", ft.reconnects.Load())
	}

	cancel()
	<-done
}

func TestSessionRetriesInitialConnect(t *testing.T) {
	ft := newFakeTransport()
	ft.failFirst.Store(2)
	rec := sample.NewRecorder(nil, nil)
	h := NewHandler("test", rec, nil, nil)
	c := NewController(ft, h, rec, nil, 0, nil)
	c.backoffStart = time.Millisecond
	c.backoffCap = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitFor(t, func() bool { return ft.connects.Load() >= 3 && c.Connected() }, "retried connection")
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("connect errors must never surface: %v", err)
	}
}

func TestSessionProtocolViolationIsFatal(t *testing.T) {
	ft := newFakeTransport()
	rec := sample.NewRecorder(nil, nil)
	h := NewHandler("test", rec, nil, nil)
	c := NewController(ft, h, rec, nil, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	waitFor(t, c.Connected, "connected state")

	ft.events <- MessageEvent{Topic: "test", Payload: []byte("garbage")}
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run should return the protocol violation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on a protocol violation")
	}
}

// A protocol violation must terminate Run even while the injector is
// running; the caller's context is never cancelled here, so the join
// relies on Run stopping the injector itself.
func TestSessionProtocolViolationStopsInjector(t *testing.T) {
	ft := newFakeTransport()
	rec := sample.NewRecorder(nil, nil)
	h := NewHandler("test", rec, nil, nil)
	inj := NewFaultInjector(ft, rec, 0, time.Millisecond, time.Millisecond, nil)
	c := NewController(ft, h, rec, inj, time.Millisecond, nil)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	waitFor(t, c.Connected, "connected state")

	ft.events <- MessageEvent{Topic: "test", Payload: []byte("garbage")}
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run should return the protocol violation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run hung joining the injector after a protocol violation")
	}
}

func TestSessionStartsInjectorOnceAndJoinsIt(t *testing.T) {
	ft := newFakeTransport()
	rec := sample.NewRecorder(nil, nil)
	h := NewHandler("test", rec, nil, nil)
	inj := NewFaultInjector(ft, rec, 0, time.Millisecond, time.Millisecond, nil)
	c := NewController(ft, h, rec, inj, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	waitFor(t, c.Connected, "initial connection")

	// Re-entering the connected path must not start a second injector.
	rec.AppendDisconnect(100)
	ft.events <- ConnectionLostEvent{Err: errors.New("network flap")}
	waitFor(t, func() bool { return ft.reconnects.Load() == 1 }, "reconnect")

	cancel()
	select {
	case <-done:
		// Run returning implies the injector has been joined.
	case <-time.After(time.Second):
		t.Fatal("Run did not join the injector on shutdown")
	}
}
