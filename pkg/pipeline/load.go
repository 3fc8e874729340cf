package pipeline

import (
	"cmp"
	"context"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topostack/pkg/cache"
	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/graph"
	"github.com/matzehuels/topostack/pkg/ingest"
	"github.com/matzehuels/topostack/pkg/observability"
	"github.com/matzehuels/topostack/pkg/topology"
)

// =============================================================================
// Load Stage
// =============================================================================

// Paths locates the three dataset files. An empty path is a missing file.
type Paths struct {
	Physical string
	FHRP     string
	BGP      string
}

// PathsIn returns the standard file names inside dir.
func PathsIn(dir string) Paths {
	return Paths{
		Physical: filepath.Join(dir, ingest.PhysicalFile),
		FHRP:     filepath.Join(dir, ingest.FHRPFile),
		BGP:      filepath.Join(dir, ingest.BGPFile),
	}
}

func (p Paths) of(rel topology.Relation) string {
	switch rel {
	case topology.Physical:
		return p.Physical
	case topology.FHRP:
		return p.FHRP
	case topology.BGP:
		return p.BGP
	}
	return ""
}

// Inputs holds the three relation datasets of one run. Zero datasets are
// allowed; they contribute nothing.
type Inputs struct {
	Physical topology.Dataset
	FHRP     topology.Dataset
	BGP      topology.Dataset
}

func (in *Inputs) set(d topology.Dataset) {
	switch d.Relation {
	case topology.Physical:
		in.Physical = d
	case topology.FHRP:
		in.FHRP = d
	case topology.BGP:
		in.BGP = d
	}
}

// InputsFrom converts an ingest result.
func InputsFrom(r ingest.Result) Inputs {
	return Inputs{Physical: r.Physical, FHRP: r.FHRP, BGP: r.BGP}
}

// LoadInputs reads the dataset files. A missing file yields an empty
// dataset and a warning; undecodable JSON is an INVALID_DATASET error.
func LoadInputs(ctx context.Context, paths Paths, logger *log.Logger) (Inputs, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	var in Inputs
	for _, rel := range topology.Relations {
		if err := ctx.Err(); err != nil {
			return Inputs{}, err
		}
		start := time.Now()
		d, err := loadDataset(paths.of(rel), rel, logger)
		observability.Pipeline().OnLoadComplete(ctx, string(rel), len(d.Edges), time.Since(start), err)
		if err != nil {
			return Inputs{}, err
		}
		in.set(d)
	}
	return in, nil
}

func loadDataset(path string, rel topology.Relation, logger *log.Logger) (topology.Dataset, error) {
	empty := topology.Dataset{Relation: rel}
	if path == "" {
		logger.Warn("no dataset given, relation will be empty", "relation", rel)
		return empty, nil
	}
	d, err := graph.ReadDatasetFile(path, rel)
	if errs.Is(err, errs.ErrCodeFileNotFound) {
		logger.Warn("dataset not found, relation will be empty", "relation", rel, "path", path)
		return empty, nil
	}
	if err != nil {
		return empty, err
	}
	logger.Debug("loaded dataset", "relation", rel, "nodes", len(d.Nodes), "edges", len(d.Edges))
	return d, nil
}

// =============================================================================
// Graph Hash
// =============================================================================

type canonicalGraph struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// GraphHash returns a content hash of g that does not depend on the order
// in which distinct edges were added.
func GraphHash(g *topology.Graph) string {
	c := canonicalGraph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	for _, n := range g.Nodes() {
		c.Nodes = append(c.Nodes, graph.Node{Name: n.ID, Type: n.LegacyType})
	}
	for _, e := range g.Edges() {
		c.Edges = append(c.Edges, graph.FromEdge(e))
	}
	slices.SortFunc(c.Edges, func(a, b graph.Edge) int {
		return cmp.Or(
			cmp.Compare(a.LinkType, b.LinkType),
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(a.Target, b.Target),
		)
	})
	h, _ := cache.HashJSON(c)
	return h
}
