package topology

// Dataset is the output of one collector: devices it saw and edges of a
// single relation. A missing collector is represented by the zero Dataset.
type Dataset struct {
	Relation Relation
	Nodes    []Node
	Edges    []Edge
}

// Empty reports whether the dataset carries no data.
func (d Dataset) Empty() bool { return len(d.Nodes) == 0 && len(d.Edges) == 0 }

// BuildStats reports what Build did with its input.
type BuildStats struct {
	Nodes      int              `json:"nodes"`
	Implicit   int              `json:"implicit_nodes"`
	Edges      map[Relation]int `json:"edges"`
	Duplicates int              `json:"duplicate_edges"`
	Skipped    int              `json:"skipped_edges"`
}

// Build merges the three relation datasets into one graph.
//
// All declared nodes are added first, physical before fhrp before bgp, so
// a device's legacy type comes from the first dataset that names one. Edge
// endpoints that no dataset declares become implicit nodes. Edges with an
// empty endpoint, or whose attributes belong to another relation, are
// skipped rather than failing the build.
func Build(physical, fhrp, bgp Dataset) (*Graph, BuildStats) {
	g := New()
	stats := BuildStats{Edges: make(map[Relation]int, len(Relations))}

	inputs := []struct {
		rel Relation
		ds  Dataset
	}{
		{Physical, physical},
		{FHRP, fhrp},
		{BGP, bgp},
	}

	for _, in := range inputs {
		for _, n := range in.ds.Nodes {
			g.AddNode(n)
		}
	}
	declared := g.NodeCount()

	for _, in := range inputs {
		for _, e := range in.ds.Edges {
			if e.Relation() != in.rel {
				stats.Skipped++
				continue
			}
			added, err := g.AddEdge(e)
			switch {
			case err != nil:
				stats.Skipped++
			case !added:
				stats.Duplicates++
			default:
				stats.Edges[in.rel]++
			}
		}
	}

	stats.Nodes = g.NodeCount()
	stats.Implicit = stats.Nodes - declared
	return g, stats
}
