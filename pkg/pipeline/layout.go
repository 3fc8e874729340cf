package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/topostack/pkg/classify"
	"github.com/matzehuels/topostack/pkg/graph"
	"github.com/matzehuels/topostack/pkg/layout"
	"github.com/matzehuels/topostack/pkg/observability"
	"github.com/matzehuels/topostack/pkg/partition"
	"github.com/matzehuels/topostack/pkg/topology"
)

// =============================================================================
// Views
// =============================================================================

// ViewNames lists the views a run over g produces: the global view (or
// the single Datacenter view), then one per datacenter with PerDatacenter.
// Devices that match no datacenter only appear in the global view.
func ViewNames(g *topology.Graph, opts Options) []string {
	opts.SetDefaults()
	if opts.Datacenter != "" {
		return []string{opts.Datacenter}
	}
	names := []string{ViewAll}
	if opts.PerDatacenter {
		groups := partition.ByDatacenter(classify.New(opts.Registry), g.NodeIDs())
		names = append(names, partition.Sites(groups)...)
	}
	return names
}

func viewDatacenter(name string) string {
	if name == ViewAll {
		return ""
	}
	return name
}

// =============================================================================
// Layout Stage
// =============================================================================

// LayoutView computes the document of one view. view is [ViewAll] or a
// datacenter code.
func LayoutView(ctx context.Context, g *topology.Graph, view string, opts Options) (graph.Document, error) {
	opts.SetDefaults()
	reg := opts.Registry

	lopts := []layout.Option{
		layout.WithSeed(opts.Seed),
		layout.WithLogger(opts.Logger),
	}
	if dc := viewDatacenter(view); dc != "" {
		lopts = append(lopts, layout.WithDatacenter(dc))
	}
	if opts.Workers > 0 {
		lopts = append(lopts, layout.WithWorkers(opts.Workers))
	}

	observability.Pipeline().OnLayoutStart(ctx, view, g.NodeCount())
	start := time.Now()
	l, err := layout.Build(ctx, g, classify.New(reg), reg, lopts...)
	observability.Pipeline().OnLayoutComplete(ctx, view, time.Since(start), err)
	if err != nil {
		return graph.Document{}, err
	}

	doc := graph.NewDocument(g, l, reg)
	doc.ID = uuid.NewString()
	return doc, nil
}

// LayoutWithCacheInfo returns the document of one view, from cache when
// possible.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *topology.Graph, graphHash, view string, opts Options) (graph.Document, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Document{}, false, err
	}

	key := r.Keyer.LayoutKey(graphHash, opts.Registry.Fingerprint(), opts.LayoutKeyOpts(viewDatacenter(view)))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if doc, err := graph.UnmarshalDocument(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return doc, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "key", key, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	doc, err := LayoutView(ctx, g, view, opts)
	if err != nil {
		return graph.Document{}, false, err
	}

	if data, err := graph.MarshalDocument(doc); err == nil {
		if err := r.Cache.Set(ctx, key, data, ttlLayout); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return doc, false, nil
}
