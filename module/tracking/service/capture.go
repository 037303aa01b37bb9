package service

import (
	"context"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/clock"
)

// PositionCapture averages several fixes into one coordinate for registering
// a new point of interest. At most one capture is in flight at a time.
type PositionCapture struct {
	mu       sync.Mutex
	clock    clock.Clock
	defaults domain.CaptureOptions
	pending  *PendingCapture
}

// PendingCapture is the handle for one in-flight collection.
type PendingCapture struct {
	opts domain.CaptureOptions

	lats, lons, accs, alts []float64
	last                   domain.PositionFix

	timer  clock.Timer
	done   chan struct{}
	result domain.CaptureResult
	err    error
}

func NewPositionCapture(c clock.Clock, defaults domain.CaptureOptions) *PositionCapture {
	return &PositionCapture{clock: c, defaults: defaults.WithDefaults()}
}

// Begin starts a fresh, empty collection. Zero option fields fall back to the
// capture's defaults.
func (c *PositionCapture) Begin(opts domain.CaptureOptions) (*PendingCapture, error) {
	if opts.TargetSamples <= 0 {
		opts.TargetSamples = c.defaults.TargetSamples
	}
	if opts.Timeout <= 0 {
		opts.Timeout = c.defaults.Timeout
	}
	if opts.AccuracyCeiling <= 0 {
		opts.AccuracyCeiling = c.defaults.AccuracyCeiling
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return nil, domain.ErrCaptureInProgress
	}

	p := &PendingCapture{opts: opts, done: make(chan struct{})}
	p.timer = c.clock.AfterFunc(opts.Timeout, func() { c.expire(p) })
	c.pending = p
	return p, nil
}

// Offer evaluates one fix against the in-flight capture, if any.
func (c *PositionCapture) Offer(fix domain.PositionFix) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pending
	if p == nil || fix.Accuracy > p.opts.AccuracyCeiling {
		return
	}
	p.lats = append(p.lats, fix.Lat)
	p.lons = append(p.lons, fix.Lon)
	p.accs = append(p.accs, fix.Accuracy)
	if fix.Altitude != nil {
		p.alts = append(p.alts, *fix.Altitude)
	}
	p.last = fix

	if len(p.lats) >= p.opts.TargetSamples {
		c.finish(p, p.average(false), nil)
	}
}

// Cancel discards the in-flight capture and its samples.
func (c *PositionCapture) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return domain.ErrNoCapture
	}
	c.finish(c.pending, domain.CaptureResult{}, domain.ErrCaptureCancelled)
	return nil
}

// SampleCount is the number of accepted samples in the in-flight capture.
func (c *PositionCapture) SampleCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return 0
	}
	return len(c.pending.lats)
}

func (c *PositionCapture) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// abandon cancels p only if it is still the in-flight capture.
func (c *PositionCapture) abandon(p *PendingCapture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finish(p, domain.CaptureResult{}, domain.ErrCaptureCancelled)
}

func (c *PositionCapture) expire(p *PendingCapture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != p {
		return
	}
	if len(p.lats) == 0 {
		c.finish(p, domain.CaptureResult{}, domain.ErrInsufficientSignal)
		return
	}
	c.finish(p, p.average(true), nil)
}

// finish must be called with c.mu held.
func (c *PositionCapture) finish(p *PendingCapture, result domain.CaptureResult, err error) {
	if c.pending != p {
		return
	}
	c.pending = nil
	p.timer.Stop()
	p.result = result
	p.err = err
	p.lats, p.lons, p.accs, p.alts = nil, nil, nil, nil
	close(p.done)
}

// average is a flat-plane mean of the samples; only valid for the meter-scale
// spreads a stationary capture produces.
func (p *PendingCapture) average(timedOut bool) domain.CaptureResult {
	fix := domain.PositionFix{
		Lat:       stat.Mean(p.lats, nil),
		Lon:       stat.Mean(p.lons, nil),
		Accuracy:  stat.Mean(p.accs, nil),
		Timestamp: p.last.Timestamp,
	}
	if len(p.alts) > 0 {
		alt := stat.Mean(p.alts, nil)
		fix.Altitude = &alt
	}
	return domain.CaptureResult{Fix: fix, Samples: len(p.lats), TimedOut: timedOut}
}

func (p *PendingCapture) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the capture completes, fails, or ctx ends. A cancelled
// ctx does not cancel the capture itself; see Coordinator.CapturePosition.
func (p *PendingCapture) Wait(ctx context.Context) (domain.CaptureResult, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return domain.CaptureResult{}, ctx.Err()
	}
}
