package sandbox

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/atlascodesai/snake-ai-arena/internal/grid"
)

// injectUtils registers the global utils object: the enumerated capability
// surface available to user algorithms. Everything on it is a pure function
// over grid coordinates; nothing reaches back into the engine.
func injectUtils(vm *goja.Runtime) error {
	utils := vm.NewObject()

	utils.Set("wrap", func(call goja.FunctionCall) goja.Value {
		p := posFromValue(vm, argAt(call, 0))
		return positionObject(vm, grid.Wrap(p))
	})

	utils.Set("equals", func(call goja.FunctionCall) goja.Value {
		a := posFromValue(vm, argAt(call, 0))
		b := posFromValue(vm, argAt(call, 1))
		return vm.ToValue(a == b)
	})

	utils.Set("keyOf", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(grid.Key(posFromValue(vm, argAt(call, 0))))
	})

	utils.Set("distance", func(call goja.FunctionCall) goja.Value {
		a := posFromValue(vm, argAt(call, 0))
		b := posFromValue(vm, argAt(call, 1))
		return vm.ToValue(grid.Distance(a, b))
	})

	// createObstacleSet(positions) returns a plain object keyed by keyOf, so
	// user code can test membership with `key in set`.
	utils.Set("createObstacleSet", func(call goja.FunctionCall) goja.Value {
		set := vm.NewObject()
		for _, p := range positionsFromValue(vm, argAt(call, 0)) {
			set.Set(grid.Key(grid.Wrap(p)), true)
		}
		return set
	})

	// findPath(start, goal, obstacles, maxDepth) returns an array of steps
	// excluding start, or null when no path was found within the depth and
	// node budgets. obstacles may be an array of positions or an object
	// produced by createObstacleSet.
	utils.Set("findPath", func(call goja.FunctionCall) goja.Value {
		start := posFromValue(vm, argAt(call, 0))
		goal := posFromValue(vm, argAt(call, 1))
		obstacles := obstacleSetFromValue(vm, argAt(call, 2))
		maxDepth := defaultMaxDepth
		if d := argAt(call, 3); d != nil && !goja.IsUndefined(d) && !goja.IsNull(d) {
			if n := int(d.ToInteger()); n > 0 {
				maxDepth = n
			}
		}
		path, found := grid.FindPath(start, goal, obstacles, maxDepth)
		if !found {
			return goja.Null()
		}
		steps := make([]interface{}, len(path))
		for i, p := range path {
			steps[i] = positionObject(vm, p)
		}
		return vm.NewArray(steps...)
	})

	utils.Set("normalizeDirection", func(call goja.FunctionCall) goja.Value {
		from := posFromValue(vm, argAt(call, 0))
		to := posFromValue(vm, argAt(call, 1))
		d := grid.NormalizeDirection(from, to)
		obj := vm.NewObject()
		obj.Set("x", d.X)
		obj.Set("y", d.Y)
		obj.Set("z", d.Z)
		return obj
	})

	dirs := make([]interface{}, len(grid.Directions))
	for i, d := range grid.Directions {
		obj := vm.NewObject()
		obj.Set("x", d.X)
		obj.Set("y", d.Y)
		obj.Set("z", d.Z)
		dirs[i] = obj
	}
	utils.Set("DIRECTIONS", vm.NewArray(dirs...))
	utils.Set("GRID_SIZE", grid.Size)

	if err := vm.Set("utils", utils); err != nil {
		return err
	}
	_, err := vm.RunString("Object.freeze(utils)")
	return err
}

// defaultMaxDepth is used when findPath is called without a depth. The
// visited-node cap binds long before this on open ground.
const defaultMaxDepth = 64

func argAt(call goja.FunctionCall, i int) goja.Value {
	if i >= len(call.Arguments) {
		return goja.Undefined()
	}
	return call.Arguments[i]
}

func posFromValue(vm *goja.Runtime, v goja.Value) grid.Position {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return grid.Position{}
	}
	obj := v.ToObject(vm)
	return grid.Position{
		X: intField(obj, "x"),
		Y: intField(obj, "y"),
		Z: intField(obj, "z"),
	}
}

func positionsFromValue(vm *goja.Runtime, v goja.Value) []grid.Position {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj := v.ToObject(vm)
	lv := obj.Get("length")
	if lv == nil || goja.IsUndefined(lv) || goja.IsNull(lv) {
		return nil
	}
	length := int(lv.ToInteger())
	out := make([]grid.Position, 0, length)
	for i := 0; i < length; i++ {
		out = append(out, posFromValue(vm, obj.Get(fmt.Sprintf("%d", i))))
	}
	return out
}

// obstacleSetFromValue accepts either an array of positions or a keyed object
// from createObstacleSet.
func obstacleSetFromValue(vm *goja.Runtime, v goja.Value) grid.ObstacleSet {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return grid.ObstacleSet{}
	}
	obj := v.ToObject(vm)
	if lv := obj.Get("length"); lv != nil && !goja.IsUndefined(lv) {
		return grid.NewObstacleSet(positionsFromValue(vm, v)...)
	}
	set := grid.ObstacleSet{}
	for _, key := range obj.Keys() {
		var p grid.Position
		if _, err := fmt.Sscanf(key, "%d,%d,%d", &p.X, &p.Y, &p.Z); err == nil {
			set[grid.Wrap(p)] = struct{}{}
		}
	}
	return set
}
