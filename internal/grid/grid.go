// Package grid provides coordinate math for the toroidal 16x16x16 game grid.
// All functions are pure; positions outside the canonical range are accepted
// and normalized via Wrap.
package grid

// Size is the edge length of the cubic grid on each axis.
const Size = 16

// Half is Size/2; canonical coordinates lie in [-Half, Half).
const Half = Size / 2

// Position is an integer cell coordinate on the wrapped grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Direction is a step added to a position. A well-formed direction has
// exactly one non-zero axis of magnitude 1, but the engine does not enforce
// that shape; see Directions for the six canonical unit steps.
type Direction struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Directions lists the six axis-aligned unit steps of the 6-connected grid.
var Directions = []Direction{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// Wrap normalizes each axis into [-Half, Half) by repeatedly adding or
// subtracting Size. Wrap is idempotent.
func Wrap(p Position) Position {
	return Position{X: wrapAxis(p.X), Y: wrapAxis(p.Y), Z: wrapAxis(p.Z)}
}

func wrapAxis(v int) int {
	for v < -Half {
		v += Size
	}
	for v >= Half {
		v -= Size
	}
	return v
}

// Add applies a direction to a position without wrapping.
func Add(p Position, d Direction) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

// Distance returns the shortest wrapped Manhattan distance between a and b.
func Distance(a, b Position) int {
	return axisDist(a.X, b.X) + axisDist(a.Y, b.Y) + axisDist(a.Z, b.Z)
}

func axisDist(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if Size-d < d {
		return Size - d
	}
	return d
}

// Neighbors returns the six wrapped axis-aligned neighbors of p.
func Neighbors(p Position) []Position {
	out := make([]Position, 0, len(Directions))
	for _, d := range Directions {
		out = append(out, Wrap(Add(p, d)))
	}
	return out
}

// NormalizeDirection returns the unit step from one cell to an adjacent cell,
// collapsing the single-step wraparound case: any component delta with
// magnitude greater than 1 must have crossed the grid edge, so it is replaced
// by a step of the opposite sign. Behavior is unspecified when to is not
// adjacent to from.
func NormalizeDirection(from, to Position) Direction {
	return Direction{
		X: normalizeAxis(to.X - from.X),
		Y: normalizeAxis(to.Y - from.Y),
		Z: normalizeAxis(to.Z - from.Z),
	}
}

func normalizeAxis(d int) int {
	if d > 1 {
		return -1
	}
	if d < -1 {
		return 1
	}
	return d
}
