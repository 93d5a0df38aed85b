package grid

import "fmt"

// maxVisitedNodes caps the number of cells a single FindPath call may expand.
// The cap keeps worst-case cost bounded on a near-full grid; a search that
// exhausts it reports "no path" exactly like genuine unreachability, and
// callers cannot tell the two apart.
const maxVisitedNodes = 500

// Key returns the canonical string form of a position, "x,y,z".
func Key(p Position) string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// ObstacleSet is a set of blocked cells.
type ObstacleSet map[Position]struct{}

// NewObstacleSet builds an obstacle set from the given cells, wrapping each.
func NewObstacleSet(cells ...Position) ObstacleSet {
	s := make(ObstacleSet, len(cells))
	for _, c := range cells {
		s[Wrap(c)] = struct{}{}
	}
	return s
}

// Contains reports whether the wrapped cell is blocked.
func (s ObstacleSet) Contains(p Position) bool {
	_, ok := s[Wrap(p)]
	return ok
}

// FindPath runs a breadth-first search over the 6-connected wrapped grid from
// start to goal, avoiding obstacles. The returned path excludes start and is
// empty (but found) when start equals goal. found is false when no path
// exists within maxDepth steps or within the visited-node cap.
func FindPath(start, goal Position, obstacles ObstacleSet, maxDepth int) (path []Position, found bool) {
	start = Wrap(start)
	goal = Wrap(goal)
	if start == goal {
		return []Position{}, true
	}

	type node struct {
		pos   Position
		depth int
	}
	visited := map[Position]Position{start: start} // cell -> predecessor
	queue := []node{{pos: start}}

	for len(queue) > 0 {
		if len(visited) > maxVisitedNodes {
			return nil, false
		}
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, next := range Neighbors(cur.pos) {
			if _, seen := visited[next]; seen {
				continue
			}
			if obstacles.Contains(next) {
				continue
			}
			visited[next] = cur.pos
			if next == goal {
				return rebuild(visited, start, goal), true
			}
			queue = append(queue, node{pos: next, depth: cur.depth + 1})
		}
	}
	return nil, false
}

func rebuild(visited map[Position]Position, start, goal Position) []Position {
	var rev []Position
	for at := goal; at != start; at = visited[at] {
		rev = append(rev, at)
	}
	out := make([]Position, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return out
}
