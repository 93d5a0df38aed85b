// Package sandbox turns user-submitted JavaScript source into a decision
// function. Each compilation gets its own goja runtime with a fixed utilities
// object as the only injected capability; ambient host access is blocked.
// This is a cooperative sandbox for in-process, moderately trusted code, not
// a security boundary.
package sandbox

import (
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/atlascodesai/snake-ai-arena/internal/grid"
	"github.com/atlascodesai/snake-ai-arena/internal/sim"
)

// compileTimeout bounds top-level script evaluation. A script that loops
// forever at load time is interrupted and reported as a compile error.
const compileTimeout = 2 * time.Second

// entryPoint is the global the user source must define.
const entryPoint = "algorithm"

// CompileError reports that source text could not be turned into a callable
// decision function. It is distinct from runtime decision errors, which the
// engine records as a game's termination reason.
type CompileError struct {
	Message string
	Cause   error
}

func (e *CompileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("compile: %s: %v", e.Message, e.Cause)
	}
	return "compile: " + e.Message
}

func (e *CompileError) Unwrap() error {
	return e.Cause
}

// Compile evaluates source in an isolated runtime and returns the decision
// function it defines. The source must define a global function named
// algorithm(ctx) returning a direction object or a falsy value.
//
// The returned function owns a single goja runtime and is not safe for
// concurrent use; run independent games on independently compiled functions.
func Compile(source string) (sim.DecisionFunc, error) {
	vm := goja.New()
	blockHostGlobals(vm)
	if err := injectUtils(vm); err != nil {
		return nil, &CompileError{Message: "utility injection failed", Cause: err}
	}

	if err := runWithTimeout(vm, source); err != nil {
		return nil, &CompileError{Message: "script evaluation failed", Cause: err}
	}

	fn := vm.Get(entryPoint)
	if fn == nil || goja.IsUndefined(fn) || goja.IsNull(fn) {
		return nil, &CompileError{Message: "source does not define algorithm()"}
	}
	callable, ok := goja.AssertFunction(fn)
	if !ok {
		return nil, &CompileError{Message: "algorithm is not a function"}
	}

	return func(snap sim.Snapshot) (*grid.Direction, error) {
		ctx, err := contextObject(vm, snap)
		if err != nil {
			return nil, fmt.Errorf("building context: %w", err)
		}
		result, err := callable(goja.Undefined(), ctx)
		if err != nil {
			return nil, fmt.Errorf("algorithm(): %w", err)
		}
		return directionFromValue(vm, result), nil
	}, nil
}

// runWithTimeout evaluates the top-level source, interrupting the runtime if
// it does not finish within compileTimeout.
func runWithTimeout(vm *goja.Runtime, source string) error {
	done := make(chan error, 1)
	go func() {
		_, err := vm.RunString(source)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(compileTimeout):
		vm.Interrupt("script evaluation timeout")
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
		}
		vm.ClearInterrupt()
		return fmt.Errorf("script evaluation exceeded %s", compileTimeout)
	}
}

// blockHostGlobals removes the ambient capabilities goja scripts could
// otherwise reach for. Math, JSON, and the rest of the ECMAScript built-ins
// stay available.
func blockHostGlobals(vm *goja.Runtime) {
	for _, name := range []string{"require", "fetch", "XMLHttpRequest", "eval", "Function"} {
		vm.Set(name, goja.Undefined())
	}
}

// contextObject builds the per-tick argument handed to algorithm(): the
// snapshot fields plus the grid size. Fresh objects are built every tick so
// user mutation cannot leak into engine state or across ticks.
func contextObject(vm *goja.Runtime, snap sim.Snapshot) (goja.Value, error) {
	ctx := vm.NewObject()

	body := make([]interface{}, len(snap.Body))
	for i, p := range snap.Body {
		body[i] = positionObject(vm, p)
	}
	if err := ctx.Set("body", vm.NewArray(body...)); err != nil {
		return nil, err
	}
	if err := ctx.Set("food", positionObject(vm, snap.Food)); err != nil {
		return nil, err
	}
	if err := ctx.Set("score", snap.Score); err != nil {
		return nil, err
	}
	if err := ctx.Set("frame", snap.Frame); err != nil {
		return nil, err
	}
	if err := ctx.Set("gridSize", grid.Size); err != nil {
		return nil, err
	}
	return ctx, nil
}

func positionObject(vm *goja.Runtime, p grid.Position) *goja.Object {
	obj := vm.NewObject()
	obj.Set("x", p.X)
	obj.Set("y", p.Y)
	obj.Set("z", p.Z)
	return obj
}

// directionFromValue converts the algorithm's return value to a direction.
// Falsy values become nil, which the engine treats as "no valid move". The
// components are read literally; no unit-step validation is applied.
func directionFromValue(vm *goja.Runtime, v goja.Value) *grid.Direction {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) || !v.ToBoolean() {
		return nil
	}
	obj := v.ToObject(vm)
	return &grid.Direction{
		X: intField(obj, "x"),
		Y: intField(obj, "y"),
		Z: intField(obj, "z"),
	}
}

func intField(obj *goja.Object, name string) int {
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0
	}
	return int(v.ToInteger())
}
