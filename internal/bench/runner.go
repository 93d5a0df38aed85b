// Package bench runs batches of independent games and aggregates their
// outcomes. Games are seeded deterministically per index, so results do not
// depend on execution order, and one game's failure never aborts the batch.
package bench

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/atlascodesai/snake-ai-arena/internal/sim"
)

// ProgressFunc is invoked after each completed game with (completed, total).
// Purely observational; it must not influence the games.
type ProgressFunc func(completed, total int)

// Result aggregates a benchmark batch.
type Result struct {
	Scores       []int                 `json:"scores"`
	AvgScore     float64               `json:"avgScore"`
	MaxScore     int                   `json:"maxScore"`
	MinScore     int                   `json:"minScore"`
	SurvivalRate float64               `json:"survivalRate"`
	GamesPlayed  int                   `json:"gamesPlayed"`
	Reasons      map[sim.EndReason]int `json:"reasons"`
}

// Runner owns batch parameters shared across runs.
type Runner struct {
	MaxFrames int
}

// NewRunner creates a runner; maxFrames <= 0 selects the engine default.
func NewRunner(maxFrames int) *Runner {
	return &Runner{MaxFrames: maxFrames}
}

// Run plays numGames sequential games with seeds startSeed..startSeed+n-1
// using a single decision function, and aggregates the outcomes. progress may
// be nil.
func (r *Runner) Run(decide sim.DecisionFunc, numGames int, startSeed int64, progress ProgressFunc) (*Result, error) {
	if numGames <= 0 {
		return nil, fmt.Errorf("numGames must be > 0, got %d", numGames)
	}

	scores := make([]int, numGames)
	reasons := make([]sim.EndReason, numGames)
	for i := 0; i < numGames; i++ {
		final := sim.New(decide, startSeed+int64(i), r.MaxFrames).RunToCompletion()
		scores[i] = final.Score
		reasons[i] = final.Reason
		if progress != nil {
			progress(i+1, numGames)
		}
	}
	return aggregate(scores, reasons), nil
}

// DecisionFactory produces an independent decision function per worker.
// Compiled sandbox functions own a single-goroutine VM, so parallel runs need
// one per worker rather than sharing.
type DecisionFactory func() (sim.DecisionFunc, error)

// RunParallel plays the same deterministic batch as Run across a worker pool.
// workers <= 0 selects GOMAXPROCS. Seeds are assigned by game index, so the
// result is identical to the sequential run apart from progress ordering.
func (r *Runner) RunParallel(ctx context.Context, factory DecisionFactory, numGames int, startSeed int64, workers int, progress ProgressFunc) (*Result, error) {
	if numGames <= 0 {
		return nil, fmt.Errorf("numGames must be > 0, got %d", numGames)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > numGames {
		workers = numGames
	}

	scores := make([]int, numGames)
	reasons := make([]sim.EndReason, numGames)
	jobs := make(chan int)

	var completed int64
	var progressMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < numGames; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			decide, err := factory()
			if err != nil {
				return fmt.Errorf("decision factory: %w", err)
			}
			for i := range jobs {
				final := sim.New(decide, startSeed+int64(i), r.MaxFrames).RunToCompletion()
				scores[i] = final.Score
				reasons[i] = final.Reason
				done := int(atomic.AddInt64(&completed, 1))
				if progress != nil {
					progressMu.Lock()
					progress(done, numGames)
					progressMu.Unlock()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return aggregate(scores, reasons), nil
}

// aggregate computes batch statistics. The mean is taken with exact decimal
// arithmetic and rounded only on conversion; presentation-level rounding is
// the consumer's concern.
func aggregate(scores []int, reasons []sim.EndReason) *Result {
	res := &Result{
		Scores:      scores,
		GamesPlayed: len(scores),
		MinScore:    scores[0],
		Reasons:     make(map[sim.EndReason]int),
	}

	sum := decimal.Zero
	survivals := 0
	for i, score := range scores {
		sum = sum.Add(decimal.NewFromInt(int64(score)))
		if score > res.MaxScore {
			res.MaxScore = score
		}
		if score < res.MinScore {
			res.MinScore = score
		}
		res.Reasons[reasons[i]]++
		if reasons[i] == sim.ReasonFrameLimit {
			survivals++
		}
	}
	res.AvgScore = sum.Div(decimal.NewFromInt(int64(len(scores)))).InexactFloat64()
	res.SurvivalRate = decimal.NewFromInt(int64(100 * survivals)).
		Div(decimal.NewFromInt(int64(len(scores)))).InexactFloat64()
	return res
}
