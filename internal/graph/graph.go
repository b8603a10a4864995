package graph

import "fmt"

type edgeKey struct {
	u, v string
}

// Graph is a directed dependency graph over identity strings. An edge
// u → v means u must precede v in the output. Nodes are compared by
// identity only; the graph never stores structural copies.
//
// Insertion order of nodes and of each adjacency list is preserved and is
// the tie-break used by TopoSort, so a fixed admission order yields a fixed
// output order.
type Graph struct {
	order []string
	nodes map[string]struct{}
	adj   map[string][]string
	edges map[edgeKey]struct{}
}

// New creates an empty graph. Lifetime is one amalgamation run.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]struct{}),
		adj:   make(map[string][]string),
		edges: make(map[edgeKey]struct{}),
	}
}

// AddNode registers an isolated node. Adding a known node is a no-op.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = struct{}{}
	g.order = append(g.order, id)
}

// AddEdge inserts the directed edge u → v, registering both endpoints.
// Duplicate edges are ignored. Self-edges are a caller bug and panic;
// callers must filter self-references before admitting dependencies.
func (g *Graph) AddEdge(u, v string) {
	if u == v {
		panic(fmt.Sprintf("graph: self-dependency on %q", u))
	}
	g.AddNode(u)
	g.AddNode(v)

	key := edgeKey{u, v}
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = struct{}{}
	g.adj[u] = append(g.adj[u], v)
}

// HasEdge reports whether the edge u → v exists.
func (g *Graph) HasEdge(u, v string) bool {
	_, ok := g.edges[edgeKey{u, v}]
	return ok
}

// NodeCount returns the number of distinct nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Nodes returns node identities in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Edges returns all edges in node-insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, u := range g.order {
		for _, v := range g.adj[u] {
			out = append(out, Edge{SourceID: u, TargetID: v, Relation: RelationDependsOn})
		}
	}
	return out
}
