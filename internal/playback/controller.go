// Package playback drives a simulation for visual consumers. The engine has
// no internal pacing; all speed lives here, either as a fixed tick interval
// or as a fast-forward burst with throttled snapshot publication.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/atlascodesai/snake-ai-arena/internal/sim"
)

// PublishFunc receives snapshots as the controller produces them. It is
// called from the controller's goroutine; slow publishers slow playback.
type PublishFunc func(sim.Snapshot)

// Controller ticks a single simulation on behalf of a UI. A controller is
// single-use: create a new one per playback session.
type Controller struct {
	simulation *sim.Simulation
	publish    PublishFunc

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New creates a controller for the given simulation. publish may be nil when
// only the final state matters.
func New(simulation *sim.Simulation, publish PublishFunc) *Controller {
	return &Controller{
		simulation: simulation,
		publish:    publish,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run ticks the simulation every interval, publishing each snapshot, until
// the game ends, the context is cancelled, or Stop is called. It blocks and
// returns the last snapshot observed.
func (c *Controller) Run(ctx context.Context, interval time.Duration) sim.Snapshot {
	defer close(c.done)

	last := c.simulation.State()
	c.emit(last)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return last
		case <-c.stop:
			return last
		case <-ticker.C:
			last = c.simulation.Tick()
			c.emit(last)
			if last.IsOver {
				return last
			}
		}
	}
}

// FastForward ticks as fast as possible, publishing at most once per
// publishEvery so a UI can animate a long game within a small wall-clock
// budget. The final snapshot is always published.
func (c *Controller) FastForward(ctx context.Context, publishEvery time.Duration) sim.Snapshot {
	defer close(c.done)

	last := c.simulation.State()
	lastEmit := time.Time{}

	for !last.IsOver {
		select {
		case <-ctx.Done():
			return last
		case <-c.stop:
			return last
		default:
		}
		last = c.simulation.Tick()
		if time.Since(lastEmit) >= publishEvery {
			c.emit(last)
			lastEmit = time.Now()
		}
	}
	c.emit(last)
	return last
}

// Stop halts playback. Safe to call multiple times and from any goroutine;
// stopping an already-stopped controller is a no-op.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Done is closed when Run or FastForward returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) emit(snap sim.Snapshot) {
	if c.publish != nil {
		c.publish(snap)
	}
}
