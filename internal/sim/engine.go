// Package sim implements the deterministic grid-survival simulation. A
// Simulation owns the agent body, food, score, and frame counter, and
// advances one step per Tick by consulting a caller-supplied decision
// function. All per-tick failures become terminal state, never errors; Tick
// always returns a well-formed snapshot.
package sim

import (
	"fmt"
	"time"

	"github.com/atlascodesai/snake-ai-arena/internal/grid"
	"github.com/atlascodesai/snake-ai-arena/internal/rng"
)

const (
	// ScorePerFood is added to the score for each food item consumed.
	ScorePerFood = 10

	// DecisionBudget is the wall-clock limit for a single decision call.
	// It is evaluated after the call returns; an infinite loop inside the
	// decision function is not interruptible at this layer.
	DecisionBudget = 100 * time.Millisecond

	// DefaultMaxFrames bounds a game when the caller does not choose a limit.
	DefaultMaxFrames = 1000

	// foodSpawnAttempts is how many random cells are sampled before falling
	// back to an exhaustive scan for a free cell.
	foodSpawnAttempts = 1000

	initialBodyLength = 3
)

// EndReason identifies why a game terminated.
type EndReason string

const (
	ReasonSelfCollision   EndReason = "self_collision"
	ReasonNoValidMove     EndReason = "no_valid_move"
	ReasonDecisionError   EndReason = "decision_error"
	ReasonDecisionTimeout EndReason = "decision_timeout"
	ReasonFrameLimit      EndReason = "frame_limit_reached"
)

// DecisionFunc is the per-tick policy: it receives a defensive snapshot and
// returns the step to take, nil for "no move" (which ends the game), or an
// error when the underlying user code failed.
type DecisionFunc func(Snapshot) (*grid.Direction, error)

// Snapshot is an immutable-at-the-moment view of simulation state. Body and
// Food are copies; mutating them does not affect the engine.
type Snapshot struct {
	Body         []grid.Position `json:"body"`
	Food         grid.Position   `json:"food"`
	Score        int             `json:"score"`
	Frame        int             `json:"frame"`
	IsOver       bool            `json:"isOver"`
	Reason       EndReason       `json:"reason,omitempty"`
	ReasonDetail string          `json:"reasonDetail,omitempty"`
}

// Simulation is a single-owner game instance. Callers must serialize Tick and
// Reset; there is no internal locking.
type Simulation struct {
	decide    DecisionFunc
	seed      int64
	maxFrames int

	rand  *rng.LCG
	body  []grid.Position
	food  grid.Position
	score int
	frame int

	over         bool
	reason       EndReason
	reasonDetail string
}

// New creates a simulation in its initial running state: a three-cell body
// heading +x from the origin, food placed by the seeded generator, score and
// frame at zero. maxFrames <= 0 selects DefaultMaxFrames.
func New(decide DecisionFunc, seed int64, maxFrames int) *Simulation {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	s := &Simulation{decide: decide, seed: seed, maxFrames: maxFrames}
	s.initialize()
	return s
}

func (s *Simulation) initialize() {
	s.rand = rng.New(s.seed)
	s.body = make([]grid.Position, 0, initialBodyLength)
	for i := 0; i < initialBodyLength; i++ {
		s.body = append(s.body, grid.Wrap(grid.Position{X: -i}))
	}
	s.score = 0
	s.frame = 0
	s.over = false
	s.reason = ""
	s.reasonDetail = ""
	s.spawnFood()
}

// Reset reinitializes the simulation for reuse, retaining the decision
// function. Passing a new seed reseeds the food sequence; Reset(s.Seed())
// replays the same game.
func (s *Simulation) Reset(seed int64) {
	s.seed = seed
	s.initialize()
}

// Seed returns the seed the current game was initialized with.
func (s *Simulation) Seed() int64 {
	return s.seed
}

// State returns a snapshot of the current state without advancing the game.
func (s *Simulation) State() Snapshot {
	body := make([]grid.Position, len(s.body))
	copy(body, s.body)
	return Snapshot{
		Body:         body,
		Food:         s.food,
		Score:        s.score,
		Frame:        s.frame,
		IsOver:       s.over,
		Reason:       s.reason,
		ReasonDetail: s.reasonDetail,
	}
}

// Tick advances the game one frame. Once the game is over, Tick is a no-op
// that returns the unchanged terminal snapshot.
func (s *Simulation) Tick() Snapshot {
	if s.over {
		return s.State()
	}

	s.frame++
	if s.frame >= s.maxFrames {
		s.end(ReasonFrameLimit, "")
		return s.State()
	}

	snap := s.State()
	start := time.Now()
	dir, err := s.decide(snap)
	elapsed := time.Since(start)

	switch {
	case elapsed > DecisionBudget:
		s.end(ReasonDecisionTimeout, fmt.Sprintf("decision took %s, budget %s", elapsed, DecisionBudget))
		return s.State()
	case err != nil:
		s.end(ReasonDecisionError, err.Error())
		return s.State()
	case dir == nil:
		s.end(ReasonNoValidMove, "")
		return s.State()
	}

	// The returned direction is applied literally, without validating that it
	// is a single-axis unit step. A malformed direction produces a larger or
	// diagonal jump rather than a rejection.
	newHead := grid.Wrap(grid.Add(s.body[0], *dir))
	willEat := newHead == s.food

	// Collision is checked against the cells still occupied after the move:
	// when not eating the tail vacates its cell this tick, so it is excluded;
	// when eating the snake grows and the tail stays an obstacle.
	obstacles := len(s.body)
	if !willEat {
		obstacles--
	}
	for i := 0; i < obstacles; i++ {
		if s.body[i] == newHead {
			s.end(ReasonSelfCollision, "")
			return s.State()
		}
	}

	s.body = append(s.body, grid.Position{})
	copy(s.body[1:], s.body)
	s.body[0] = newHead
	if willEat {
		s.score += ScorePerFood
		s.spawnFood()
	} else {
		s.body = s.body[:len(s.body)-1]
	}
	return s.State()
}

// RunToCompletion ticks until the game ends and returns the final snapshot.
// The frame limit guarantees termination.
func (s *Simulation) RunToCompletion() Snapshot {
	for !s.over {
		s.Tick()
	}
	return s.State()
}

func (s *Simulation) end(reason EndReason, detail string) {
	s.over = true
	s.reason = reason
	s.reasonDetail = detail
}

// spawnFood places food on a random free cell. After a bounded number of
// rejected samples it scans the whole grid for the first free cell, which
// handles the near-full end-game. If the grid has no free cell the food is
// left unchanged.
func (s *Simulation) spawnFood() {
	for i := 0; i < foodSpawnAttempts; i++ {
		p := grid.Position{
			X: s.rand.NextInt(-grid.Half, grid.Half-1),
			Y: s.rand.NextInt(-grid.Half, grid.Half-1),
			Z: s.rand.NextInt(-grid.Half, grid.Half-1),
		}
		if !s.occupied(p) {
			s.food = p
			return
		}
	}
	for x := -grid.Half; x < grid.Half; x++ {
		for y := -grid.Half; y < grid.Half; y++ {
			for z := -grid.Half; z < grid.Half; z++ {
				p := grid.Position{X: x, Y: y, Z: z}
				if !s.occupied(p) {
					s.food = p
					return
				}
			}
		}
	}
}

func (s *Simulation) occupied(p grid.Position) bool {
	for _, b := range s.body {
		if b == p {
			return true
		}
	}
	return false
}
