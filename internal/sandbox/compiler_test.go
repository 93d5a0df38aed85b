package sandbox

import (
	"errors"
	"strings"
	"testing"

	"github.com/atlascodesai/snake-ai-arena/internal/grid"
	"github.com/atlascodesai/snake-ai-arena/internal/sim"
)

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty source", ""},
		{"syntax error", "function algorithm(ctx) { return "},
		{"no algorithm defined", "function other(ctx) { return null; }"},
		{"algorithm not a function", "var algorithm = 42;"},
		{"throws at load time", "throw new Error('bad');"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source)
			if err == nil {
				t.Fatal("expected a compile error")
			}
			var compileErr *CompileError
			if !errors.As(err, &compileErr) {
				t.Errorf("expected *CompileError, got %T: %v", err, err)
			}
		})
	}
}

func TestCompiledFunctionReturnsDirection(t *testing.T) {
	decide, err := Compile("function algorithm(ctx) { return {x: 0, y: 1, z: 0}; }")
	if err != nil {
		t.Fatal(err)
	}
	dir, err := decide(snapshotFixture())
	if err != nil {
		t.Fatal(err)
	}
	if dir == nil || *dir != (grid.Direction{Y: 1}) {
		t.Errorf("expected {0,1,0}, got %v", dir)
	}
}

func TestFalsyReturnsBecomeNil(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"null", "function algorithm(ctx) { return null; }"},
		{"undefined", "function algorithm(ctx) { return; }"},
		{"false", "function algorithm(ctx) { return false; }"},
		{"zero", "function algorithm(ctx) { return 0; }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decide, err := Compile(tt.source)
			if err != nil {
				t.Fatal(err)
			}
			dir, err := decide(snapshotFixture())
			if err != nil {
				t.Fatal(err)
			}
			if dir != nil {
				t.Errorf("expected nil direction, got %v", dir)
			}
		})
	}
}

func TestRuntimeThrowIsDecisionError(t *testing.T) {
	decide, err := Compile("function algorithm(ctx) { throw new Error('mid-game'); }")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := decide(snapshotFixture()); err == nil {
		t.Fatal("expected a runtime error")
	} else if !strings.Contains(err.Error(), "mid-game") {
		t.Errorf("expected thrown message in error, got %v", err)
	}
}

func TestContextShape(t *testing.T) {
	// The algorithm inspects its context and encodes findings in the
	// returned direction components.
	decide, err := Compile(`
		function algorithm(ctx) {
			if (ctx.gridSize !== utils.GRID_SIZE) return null;
			if (ctx.body.length !== 3) return null;
			if (ctx.frame !== 4 || ctx.score !== 20) return null;
			if (!utils.equals(ctx.body[0], {x: 0, y: 0, z: 0})) return null;
			return {x: 0, y: 0, z: 1};
		}
	`)
	if err != nil {
		t.Fatal(err)
	}
	dir, err := decide(snapshotFixture())
	if err != nil {
		t.Fatal(err)
	}
	if dir == nil || *dir != (grid.Direction{Z: 1}) {
		t.Errorf("context shape mismatch, got %v", dir)
	}
}

func TestUtilsSurface(t *testing.T) {
	decide, err := Compile(`
		function algorithm(ctx) {
			var head = ctx.body[0];
			if (utils.distance(head, {x: 3, y: 0, z: 0}) !== 3) return null;
			if (utils.keyOf(head) !== "0,0,0") return null;
			if (utils.wrap({x: 8, y: 0, z: 0}).x !== -8) return null;
			if (utils.DIRECTIONS.length !== 6) return null;

			var set = utils.createObstacleSet(ctx.body);
			if (!(utils.keyOf(ctx.body[1]) in set)) return null;

			var path = utils.findPath(head, ctx.food, set, 32);
			if (!path || path.length === 0) return null;
			return utils.normalizeDirection(head, path[0]);
		}
	`)
	if err != nil {
		t.Fatal(err)
	}
	dir, err := decide(snapshotFixture())
	if err != nil {
		t.Fatal(err)
	}
	if dir == nil {
		t.Fatal("expected a direction from the utils pipeline")
	}
	if *dir == (grid.Direction{}) {
		t.Errorf("expected a unit step, got %v", dir)
	}
}

func TestHostGlobalsBlocked(t *testing.T) {
	decide, err := Compile(`
		function algorithm(ctx) {
			if (typeof fetch !== "undefined") return null;
			if (typeof require !== "undefined") return null;
			if (typeof XMLHttpRequest !== "undefined") return null;
			if (typeof eval !== "undefined") return null;
			if (typeof Function !== "undefined") return null;
			return {x: 1, y: 0, z: 0};
		}
	`)
	if err != nil {
		t.Fatal(err)
	}
	dir, err := decide(snapshotFixture())
	if err != nil {
		t.Fatal(err)
	}
	if dir == nil {
		t.Error("a blocked global is still reachable")
	}
}

func TestClosureStatePersistsAcrossTicks(t *testing.T) {
	decide, err := Compile(`
		var calls = 0;
		function algorithm(ctx) {
			calls++;
			if (calls >= 3) return null;
			return {x: 1, y: 0, z: 0};
		}
	`)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		dir, err := decide(snapshotFixture())
		if err != nil || dir == nil {
			t.Fatalf("call %d: dir=%v err=%v", i, dir, err)
		}
	}
	dir, err := decide(snapshotFixture())
	if err != nil {
		t.Fatal(err)
	}
	if dir != nil {
		t.Error("closure counter did not persist across ticks")
	}
}

func TestLoadTimeInfiniteLoopIsInterrupted(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the compile timeout")
	}
	_, err := Compile("while (true) {}")
	if err == nil {
		t.Fatal("expected interrupt of load-time loop")
	}
	var compileErr *CompileError
	if !errors.As(err, &compileErr) {
		t.Errorf("expected *CompileError, got %T", err)
	}
}

func TestExampleAlgorithmsPlayFullGames(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"greedy", ExampleGreedy},
		{"straight", ExampleStraight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decide, err := Compile(tt.source)
			if err != nil {
				t.Fatal(err)
			}
			final := sim.New(decide, 42, 200).RunToCompletion()
			if !final.IsOver {
				t.Fatal("game did not terminate")
			}
			if final.Reason == sim.ReasonDecisionError {
				t.Fatalf("example algorithm errored: %s", final.ReasonDetail)
			}
		})
	}
}

func snapshotFixture() sim.Snapshot {
	return sim.Snapshot{
		Body:  []grid.Position{{}, {X: -1}, {X: -2}},
		Food:  grid.Position{X: 3, Y: 2},
		Score: 20,
		Frame: 4,
	}
}
