package topology

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned when a node or edge endpoint is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrMissingAttributes is returned by [Graph.AddEdge] for an edge
	// without relation attributes.
	ErrMissingAttributes = errors.New("edge has no relation attributes")
)

// Node is a network device in the topology.
type Node struct {
	// ID is the device hostname as reported by the collectors.
	ID string
	// LegacyType is the coarse role some collectors attach to devices
	// (router, core, distribution, access). It is only used for placement
	// when the hostname itself cannot be classified.
	LegacyType string
}

// Graph is an undirected multigraph whose edges carry a relation.
//
// The zero value is not usable; use [New].
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	keys     map[EdgeKey]int
	incident map[string][]int // node ID -> indices into edges
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		keys:     make(map[EdgeKey]int),
		incident: make(map[string][]int),
	}
}

// AddNode inserts n, or merges it into an existing node with the same ID.
// A merge only fills an empty LegacyType; it never overwrites one. The
// boolean result reports whether the node was new.
func (g *Graph) AddNode(n Node) (bool, error) {
	if n.ID == "" {
		return false, ErrInvalidNodeID
	}
	if existing, ok := g.nodes[n.ID]; ok {
		if existing.LegacyType == "" {
			existing.LegacyType = n.LegacyType
		}
		return false, nil
	}
	g.nodes[n.ID] = &n
	return true, nil
}

// AddEdge inserts e, creating missing endpoints as plain nodes. It returns
// false without error when an edge with the same key already exists.
func (g *Graph) AddEdge(e Edge) (bool, error) {
	if e.Source == "" || e.Target == "" {
		return false, ErrInvalidNodeID
	}
	if e.Attrs == nil {
		return false, ErrMissingAttributes
	}
	key := e.Key()
	if _, dup := g.keys[key]; dup {
		return false, nil
	}
	g.AddNode(Node{ID: e.Source})
	g.AddNode(Node{ID: e.Target})

	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.keys[key] = idx
	g.incident[e.Source] = append(g.incident[e.Source], idx)
	if e.Target != e.Source {
		g.incident[e.Target] = append(g.incident[e.Target], idx)
	}
	return true, nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// HasNode reports whether id is a node of g.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// NodeIDs returns all node IDs in sorted order.
func (g *Graph) NodeIDs() []string { return slices.Sorted(maps.Keys(g.nodes)) }

// Nodes returns copies of all nodes sorted by ID.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, id := range g.NodeIDs() {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// EdgesOf returns the edges of one relation in insertion order.
func (g *Graph) EdgesOf(rel Relation) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Relation() == rel {
			out = append(out, e)
		}
	}
	return out
}

// EdgesBetween returns every edge joining a and b, in insertion order.
func (g *Graph) EdgesBetween(a, b string) []Edge {
	var out []Edge
	for _, idx := range g.incident[a] {
		if e := g.edges[idx]; e.Other(a) == b {
			out = append(out, e)
		}
	}
	return out
}

// HasEdge reports whether an edge with the given identity exists.
func (g *Graph) HasEdge(source, target string, rel Relation) bool {
	key := Edge{Source: source, Target: target, Attrs: zeroAttrs(rel)}.Key()
	_, ok := g.keys[key]
	return ok
}

func zeroAttrs(rel Relation) Attributes {
	switch rel {
	case Physical:
		return PhysicalAttrs{}
	case FHRP:
		return FHRPAttrs{}
	case BGP:
		return BGPAttrs{}
	}
	return nil
}

// Neighbors returns the sorted, distinct IDs adjacent to id over any relation.
func (g *Graph) Neighbors(id string) []string {
	seen := make(map[string]struct{})
	for _, idx := range g.incident[id] {
		if other := g.edges[idx].Other(id); other != id {
			seen[other] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Degree returns the number of edges incident to id.
func (g *Graph) Degree(id string) int { return len(g.incident[id]) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Induced returns the subgraph on ids: the listed nodes that exist in g and
// every edge whose endpoints are both listed. Edge order is preserved.
func (g *Graph) Induced(ids []string) *Graph {
	keep := make(map[string]struct{}, len(ids))
	sub := New()
	for _, id := range ids {
		n, ok := g.nodes[id]
		if !ok {
			continue
		}
		keep[id] = struct{}{}
		sub.AddNode(*n)
	}
	for _, e := range g.edges {
		_, okS := keep[e.Source]
		_, okT := keep[e.Target]
		if okS && okT {
			sub.AddEdge(e)
		}
	}
	return sub
}
