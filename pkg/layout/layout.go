package layout

import (
	"cmp"
	"context"
	"io"
	"runtime"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/topostack/pkg/classify"
	"github.com/matzehuels/topostack/pkg/ha"
	"github.com/matzehuels/topostack/pkg/registry"
	"github.com/matzehuels/topostack/pkg/topology"
)

// Point is a 3D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Result maps node IDs to coordinates.
type Result map[string]Point

// Placement records how a node's layer and lane were chosen.
type Placement struct {
	Identity classify.Identity
	Z        float64
	Lane     int
	// Legacy is set when z came from the node's legacy type because the
	// hostname did not classify.
	Legacy bool
}

// Bucket is one (z, lane) cell and its sorted members.
type Bucket struct {
	Z       float64  `json:"z"`
	Lane    int      `json:"lane"`
	Members []string `json:"members"`
}

// Layout is the outcome of [Build] for one view of the topology.
type Layout struct {
	// Datacenter is the filter the layout was built with, or "".
	Datacenter string
	Positions  Result
	Placements map[string]Placement
	// Buckets are ordered top layer first, then by lane.
	Buckets []Bucket
	HAPairs []ha.Pair
}

// NodeCount returns the number of positioned nodes.
func (l Layout) NodeCount() int { return len(l.Positions) }

// Option configures [Build].
type Option func(*config)

type config struct {
	datacenter string
	sub        SubLayout
	workers    int
	seed       *uint64
	logger     *log.Logger
}

// WithDatacenter restricts the layout to devices classified in dc. Edges
// leaving the datacenter are ignored.
func WithDatacenter(dc string) Option { return func(c *config) { c.datacenter = dc } }

// WithSubLayout replaces the default [Spring] sub-layout.
func WithSubLayout(s SubLayout) Option { return func(c *config) { c.sub = s } }

// WithWorkers bounds the number of buckets laid out concurrently.
func WithWorkers(n int) Option { return func(c *config) { c.workers = n } }

// WithSeed overrides the registry spring seed.
func WithSeed(seed uint64) Option { return func(c *config) { c.seed = &seed } }

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option { return func(c *config) { c.logger = l } }

func newConfig(opts ...Option) config {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sub == nil {
		cfg.sub = Spring{}
	}
	if cfg.workers <= 0 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard)
	}
	return cfg
}

type bucketKey struct {
	z    float64
	lane int
}

// Build lays out g. Every node of g (or of the datacenter view) receives
// exactly one coordinate. An empty graph yields an empty layout. The only
// error is cancellation of ctx.
func Build(ctx context.Context, g *topology.Graph, c *classify.Classifier, reg *registry.Registry, opts ...Option) (Layout, error) {
	cfg := newConfig(opts...)
	out := Layout{
		Datacenter: cfg.datacenter,
		Positions:  Result{},
		Placements: map[string]Placement{},
	}
	if g == nil || g.NodeCount() == 0 {
		return out, nil
	}

	var members []string
	for _, id := range g.NodeIDs() {
		p := place(g, c, reg, id)
		if cfg.datacenter != "" {
			if dc, ok := p.Identity.Datacenter(); !ok || dc != cfg.datacenter {
				continue
			}
		}
		out.Placements[id] = p
		members = append(members, id)
	}

	view := g
	if cfg.datacenter != "" {
		view = g.Induced(members)
	}
	out.Buckets = bucketize(out.Placements, members)

	params := Params{
		Seed:       reg.Spring().Seed,
		Iterations: reg.Spring().Iterations,
		K:          reg.Spring().K,
		Spread:     reg.Spring().Spread,
	}
	if cfg.seed != nil {
		params.Seed = *cfg.seed
	}

	results := make([]Result, len(out.Buckets))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.workers)
	for i, b := range out.Buckets {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i] = placeBucket(view, b, reg, cfg.sub, params)
			cfg.logger.Debug("placed bucket", "z", b.Z, "lane", b.Lane, "members", len(b.Members))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Layout{}, err
	}
	if err := ctx.Err(); err != nil {
		return Layout{}, err
	}

	for _, r := range results {
		for id, p := range r {
			out.Positions[id] = p
		}
	}

	if reg.HAEnabled() {
		ids := make([]classify.Identity, 0, len(members))
		for _, id := range members {
			ids = append(ids, out.Placements[id].Identity)
		}
		out.HAPairs = ha.FindIdentities(ids)
		applyHAOffset(out.Positions, out.HAPairs, reg.HAOffset())
	}

	cfg.logger.Debug("layout complete",
		"datacenter", cfg.datacenter,
		"nodes", len(out.Positions),
		"buckets", len(out.Buckets),
		"ha_pairs", len(out.HAPairs))
	return out, nil
}

func place(g *topology.Graph, c *classify.Classifier, reg *registry.Registry, id string) Placement {
	ident := c.Classify(id)
	p := Placement{Identity: ident, Z: ident.Z(), Lane: ident.Lane()}
	if ident.Valid() {
		return p
	}
	if n, ok := g.Node(id); ok && n.LegacyType != "" {
		if z, ok := reg.LegacyZ(n.LegacyType); ok {
			p.Z = z
			p.Legacy = true
		}
	}
	return p
}

func bucketize(placements map[string]Placement, members []string) []Bucket {
	index := make(map[bucketKey]int)
	var buckets []Bucket
	for _, id := range members {
		p := placements[id]
		key := bucketKey{z: p.Z, lane: p.Lane}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Z: p.Z, Lane: p.Lane})
		}
		buckets[i].Members = append(buckets[i].Members, id)
	}
	slices.SortFunc(buckets, func(a, b Bucket) int {
		if c := cmp.Compare(b.Z, a.Z); c != 0 {
			return c
		}
		return cmp.Compare(a.Lane, b.Lane)
	})
	return buckets
}

func placeBucket(g *topology.Graph, b Bucket, reg *registry.Registry, sub SubLayout, params Params) Result {
	x := reg.LaneX(b.Lane)
	out := make(Result, len(b.Members))
	if len(b.Members) == 1 {
		out[b.Members[0]] = Point{X: x, Y: 0, Z: b.Z}
		return out
	}
	ys := sub.Place(g.Induced(b.Members), params)
	for _, id := range b.Members {
		out[id] = Point{X: x, Y: ys[id], Z: b.Z}
	}
	return out
}

// applyHAOffset moves each pair's A down and B up on y. Pairs are applied
// in order, so a device with several partners accumulates offsets.
func applyHAOffset(pos Result, pairs []ha.Pair, offset float64) {
	if offset == 0 {
		return
	}
	for _, p := range pairs {
		a, okA := pos[p.A]
		b, okB := pos[p.B]
		if !okA || !okB {
			continue
		}
		a.Y -= offset
		b.Y += offset
		pos[p.A] = a
		pos[p.B] = b
	}
}
