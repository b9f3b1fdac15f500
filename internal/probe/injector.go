package probe

import (
	"context"
	"math/rand"
	"time"

	"qos-probe/internal/logging"
	"qos-probe/internal/metrics"
	"qos-probe/internal/sample"
)

// disconnector is the one transport capability the injector needs.
type disconnector interface {
	Disconnect()
}

// FaultInjector forces disconnects on the live session at random to
// simulate connection churn. It runs as a background task started once by
// the session controller and stops when its context is cancelled; stop
// latency is bounded by one check interval plus one quiescent duration.
type FaultInjector struct {
	transport disconnector
	rec       *sample.Recorder
	prob      float64
	interval  time.Duration
	quiescent time.Duration
	met       *metrics.Metrics
	rand      *rand.Rand
	now       func() time.Time
}

// NewFaultInjector creates an injector firing with probability prob on
// each interval tick. met may be nil.
func NewFaultInjector(t disconnector, rec *sample.Recorder, prob float64, interval, quiescent time.Duration, met *metrics.Metrics) *FaultInjector {
	return &FaultInjector{
		transport: t,
		rec:       rec,
		prob:      prob,
		interval:  interval,
		quiescent: quiescent,
		met:       met,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// Run ticks until ctx is done. After firing it holds off for the
// quiescent duration so it cannot re-trigger while the session controller
// is reconnecting.
func (f *FaultInjector) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	log.Info("fault injector running", "probability", f.prob, "interval", f.interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("fault injector stopped")
			return
		case <-ticker.C:
		}
		if f.rand.Float64() > f.prob {
			continue
		}

		// The marker lands before the disconnect so the session
		// controller's reconnect always finds it pending, even with a
		// zero quiescent duration.
		m := f.rec.AppendDisconnect(f.now().UnixMilli())
		f.transport.Disconnect()
		if f.met != nil {
			f.met.Disconnects.Inc()
		}
		log.Info("injected disconnect", "last_seq", m.LastSeqNum)

		select {
		case <-ctx.Done():
			log.Info("fault injector stopped")
			return
		case <-time.After(f.quiescent):
		}
	}
}
