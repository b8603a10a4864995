package graph

import (
	"fmt"
	"strings"
)

// CycleError reports that no linear order exists. Nodes holds the
// identities on the detected cycle, in traversal order.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Nodes, " -> "))
}

// Visitation colors. A grey node is on the current traversal path; reaching
// one again means the path closed into a cycle.
const (
	white = iota
	grey
	black
)

type frame struct {
	id   string
	next int
}

// TopoSort returns every node exactly once such that for each edge u → v,
// u appears before v. Roots are taken in insertion order and each
// adjacency list is traversed in insertion order, so the result is
// deterministic for a fixed admission sequence.
//
// The traversal is iterative with an explicit stack: cyclic input yields a
// *CycleError instead of unbounded recursion, and large graphs cannot hit
// recursion depth limits.
func (g *Graph) TopoSort() ([]string, error) {
	color := make(map[string]int, len(g.order))
	finish := make([]string, 0, len(g.order))

	for _, root := range g.order {
		if color[root] != white {
			continue
		}

		stack := []frame{{id: root}}
		color[root] = grey

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			out := g.adj[top.id]

			if top.next < len(out) {
				next := out[top.next]
				top.next++

				switch color[next] {
				case white:
					color[next] = grey
					stack = append(stack, frame{id: next})
				case grey:
					return nil, cycleOn(stack, next)
				}
				continue
			}

			color[top.id] = black
			finish = append(finish, top.id)
			stack = stack[:len(stack)-1]
		}
	}

	// Reverse finish order: a node finishes only after everything it must
	// precede, so walking finishes backwards puts it first.
	for i, j := 0, len(finish)-1; i < j; i, j = i+1, j-1 {
		finish[i], finish[j] = finish[j], finish[i]
	}
	return finish, nil
}

// cycleOn extracts the closed path from the traversal stack, starting at
// the grey node that was reached twice.
func cycleOn(stack []frame, reached string) *CycleError {
	start := 0
	for i, f := range stack {
		if f.id == reached {
			start = i
			break
		}
	}
	nodes := make([]string, 0, len(stack)-start)
	for _, f := range stack[start:] {
		nodes = append(nodes, f.id)
	}
	return &CycleError{Nodes: nodes}
}
