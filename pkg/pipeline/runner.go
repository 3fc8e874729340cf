package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/topostack/pkg/cache"
	"github.com/matzehuels/topostack/pkg/topology"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses [cache.NewDefaultKeyer] and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute builds the graph from in, then lays out and renders every view.
func (r *Runner) Execute(ctx context.Context, in Inputs, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	res := &Result{RunID: uuid.NewString()}
	logger := opts.Logger.With("run", res.RunID[:8])

	// Stage 1: Build
	start := time.Now()
	g, stats := topology.Build(in.Physical, in.FHRP, in.BGP)
	res.Graph = g
	res.Build = stats
	res.GraphHash = GraphHash(g)
	res.Stats.BuildTime = time.Since(start)
	res.Stats.NodeCount = g.NodeCount()
	res.Stats.EdgeCount = g.EdgeCount()

	logger.Info("built topology",
		"nodes", g.NodeCount(),
		"implicit", stats.Implicit,
		"edges", g.EdgeCount())
	if stats.Skipped > 0 || stats.Duplicates > 0 {
		logger.Warn("dropped edges", "skipped", stats.Skipped, "duplicates", stats.Duplicates)
	}

	// Stages 2 and 3 per view
	for _, name := range ViewNames(g, opts) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		layoutStart := time.Now()
		doc, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, res.GraphHash, name, opts)
		if err != nil {
			return nil, fmt.Errorf("layout %s: %w", name, err)
		}
		res.Stats.LayoutTime += time.Since(layoutStart)

		renderStart := time.Now()
		artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, doc, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}
		res.Stats.RenderTime += time.Since(renderStart)

		logger.Debug("view ready",
			"view", name,
			"nodes", len(doc.Nodes),
			"ha_pairs", len(doc.HAPairs),
			"layout_cached", layoutHit,
			"render_cached", renderHit)

		res.Views = append(res.Views, View{
			Name:      name,
			Document:  doc,
			Artifacts: artifacts,
			CacheInfo: CacheInfo{LayoutHit: layoutHit, RenderHit: renderHit},
		})
	}

	logger.Info("pipeline complete",
		"views", len(res.Views),
		"formats", opts.Formats,
		"layout", res.Stats.LayoutTime,
		"render", res.Stats.RenderTime)
	return res, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
