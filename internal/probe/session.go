package probe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"qos-probe/internal/logging"
	"qos-probe/internal/metrics"
	"qos-probe/internal/sample"
)

const (
	retryBackoffStart = time.Second
	retryBackoffCap   = 30 * time.Second
)

// Controller owns the connect/receive/disconnect/reconnect cycle for the
// life of one measurement session.
type Controller struct {
	transport Transport
	handler   *Handler
	rec       *sample.Recorder
	injector  *FaultInjector // nil when fault probability is 0
	quiescent time.Duration
	met       *metrics.Metrics
	now       func() time.Time

	backoffStart time.Duration
	backoffCap   time.Duration

	injectorOnce sync.Once
	injectorWG   sync.WaitGroup
	connected    atomic.Bool
}

// NewController wires the session controller. injector and met may be nil.
func NewController(t Transport, h *Handler, rec *sample.Recorder, inj *FaultInjector, quiescent time.Duration, met *metrics.Metrics) *Controller {
	return &Controller{
		transport:    t,
		handler:      h,
		rec:          rec,
		injector:     inj,
		quiescent:    quiescent,
		met:          met,
		now:          time.Now,
		backoffStart: retryBackoffStart,
		backoffCap:   retryBackoffCap,
	}
}

// Connected reports whether the session is currently up.
func (c *Controller) Connected() bool {
	return c.connected.Load()
}

// Run drives the session until ctx is cancelled or the handler reports a
// protocol violation. Connection errors, initial or during reconnect, are
// retried forever and never returned. The fault injector is joined before
// Run returns, so the sample log is quiescent afterwards.
func (c *Controller) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	// Defers run in reverse: cancel stops the injector, the disconnect
	// drops the session, then the join waits. Without the owned cancel a
	// fatal return would wait on an injector nothing stops.
	defer c.injectorWG.Wait()
	defer c.transport.Disconnect()
	defer cancel()

	if err := c.connectLoop(ctx, log, c.transport.Connect); err != nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping session")
			return nil
		case ev := <-c.transport.Events():
			switch ev := ev.(type) {
			case ConnectedEvent:
				c.connected.Store(true)
				log.Info("connected")
				c.startInjector(ctx)
			case MessageEvent:
				if err := c.handler.Handle(ev); err != nil {
					return fmt.Errorf("protocol violation: %w", err)
				}
			case ConnectionLostEvent:
				c.connected.Store(false)
				log.Info("connection lost", "err", ev.Err)
				if !sleepCtx(ctx, c.quiescent) {
					return nil
				}
				if err := c.connectLoop(ctx, log, c.transport.Reconnect); err != nil {
					return nil
				}
				if c.rec.MarkReconnected(c.now().UnixMilli()) {
					if c.met != nil {
						c.met.Reconnects.Inc()
					}
					log.Info("reconnect stamped on disconnect marker")
				}
			}
		}
	}
}

// startInjector launches the fault injector on the first successful
// connection only; reconnects re-enter this path but the guard holds.
func (c *Controller) startInjector(ctx context.Context) {
	c.injectorOnce.Do(func() {
		if c.injector == nil {
			return
		}
		c.injectorWG.Add(1)
		go func() {
			defer c.injectorWG.Done()
			c.injector.Run(ctx)
		}()
	})
}

// connectLoop retries attempt until success or ctx cancellation, backing
// off up to retryBackoffCap between tries.
func (c *Controller) connectLoop(ctx context.Context, log *slog.Logger, attempt func(context.Context) error) error {
	backoff := c.backoffStart
	for {
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("connection error, retrying", "err", err, "backoff", backoff)
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
		backoff *= 2
		if backoff > c.backoffCap {
			backoff = c.backoffCap
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
