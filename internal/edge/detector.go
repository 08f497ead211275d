// Package edge raises debounced notifications when the cursor presses
// against the combined desktop bounds. A hit needs RequiredHits
// consecutive polls on the same edge with strictly outward motion, which
// filters out momentary dithering at the boundary.
package edge

import (
	"sync"
	"time"

	"github.com/frank2889/MacWinControl/internal/screens"
)

// DefaultRequiredHits is the consecutive-poll count before a hit fires.
const DefaultRequiredHits = 3

// DefaultPollInterval targets roughly 60 Hz.
const DefaultPollInterval = 16 * time.Millisecond

// Hit is one debounced edge notification.
type Hit struct {
	Edge   screens.Edge
	X, Y   int
	Bounds screens.Bounds
}

// CursorSampler supplies the last known cursor position.
type CursorSampler interface {
	CursorPosition() (x, y int, ok bool)
}

// debounce tracks consecutive same-edge, outward-moving samples. Keeping
// the counter and last sample as plain fields keeps the logic testable
// without a running poll loop.
type debounce struct {
	edge     screens.Edge
	hits     int
	lastX    int
	lastY    int
	haveLast bool
}

func (d *debounce) reset() {
	d.edge = screens.EdgeNone
	d.hits = 0
}

// observe feeds one cursor sample and reports whether a hit fires. The
// counter resets on any sample that is off-edge, on a different edge, or
// not strictly outward along the edge's axis.
func (d *debounce) observe(x, y int, bounds screens.Bounds, threshold, required int) (screens.Edge, bool) {
	e := screens.ClassifyEdge(x, y, bounds, threshold)
	outward := d.movedOutward(e, x, y)
	prevEdge := d.edge
	d.lastX, d.lastY = x, y
	d.haveLast = true

	if e == screens.EdgeNone || (prevEdge != screens.EdgeNone && e != prevEdge) || !outward {
		d.reset()
		return screens.EdgeNone, false
	}

	d.edge = e
	d.hits++
	if d.hits < required {
		return screens.EdgeNone, false
	}
	d.reset()
	return e, true
}

// movedOutward reports whether the sample progressed strictly toward the
// edge relative to the previous sample. The very first sample has nothing
// to compare against and counts.
func (d *debounce) movedOutward(e screens.Edge, x, y int) bool {
	if !d.haveLast {
		return true
	}
	switch e {
	case screens.EdgeLeft:
		return x < d.lastX
	case screens.EdgeRight:
		return x > d.lastX
	case screens.EdgeTop:
		return y < d.lastY
	case screens.EdgeBottom:
		return y > d.lastY
	default:
		return false
	}
}

// Detector polls a cursor sampler against the current bounds and invokes
// the hit callback. It is disabled while the remote side has control,
// since the hidden local cursor yields no meaningful samples.
type Detector struct {
	sampler   CursorSampler
	boundsFn  func() screens.Bounds
	onHit     func(Hit)
	threshold int
	required  int
	interval  time.Duration

	mu      sync.Mutex
	state   debounce
	enabled bool
	running bool
	stop    chan struct{}
}

// Config tunes a Detector. Zero values fall back to defaults.
type Config struct {
	Threshold    int
	RequiredHits int
	PollInterval time.Duration
}

// NewDetector creates a detector. boundsFn is consulted on every poll so
// display reconfiguration takes effect immediately. The detector starts
// enabled.
func NewDetector(sampler CursorSampler, boundsFn func() screens.Bounds, onHit func(Hit), cfg Config) *Detector {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 3
	}
	if cfg.RequiredHits <= 0 {
		cfg.RequiredHits = DefaultRequiredHits
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Detector{
		sampler:   sampler,
		boundsFn:  boundsFn,
		onHit:     onHit,
		threshold: cfg.Threshold,
		required:  cfg.RequiredHits,
		interval:  cfg.PollInterval,
		enabled:   true,
	}
}

// Start launches the poll loop. Safe to call once per detector.
func (d *Detector) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.stop = make(chan struct{})
	stop := d.stop
	d.mu.Unlock()

	go d.loop(stop)
}

// Stop halts the poll loop. Idempotent.
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stop)
	d.mu.Unlock()
}

// SetEnabled gates detection. Disabling clears the debounce state so a
// stale streak cannot fire on re-enable.
func (d *Detector) SetEnabled(enabled bool) {
	d.mu.Lock()
	d.enabled = enabled
	if !enabled {
		d.state.reset()
		d.state.haveLast = false
	}
	d.mu.Unlock()
}

// Poll runs one detection step immediately. Exposed for the loop and for
// tests driving samples by hand.
func (d *Detector) Poll() {
	d.mu.Lock()
	if !d.enabled {
		d.mu.Unlock()
		return
	}
	x, y, ok := d.sampler.CursorPosition()
	if !ok {
		d.state.reset()
		d.state.haveLast = false
		d.mu.Unlock()
		return
	}
	bounds := d.boundsFn()
	e, fired := d.state.observe(x, y, bounds, d.threshold, d.required)
	d.mu.Unlock()

	if fired && d.onHit != nil {
		d.onHit(Hit{Edge: e, X: x, Y: y, Bounds: bounds})
	}
}

func (d *Detector) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.Poll()
		}
	}
}
