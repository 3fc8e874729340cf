package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/topostack/pkg/cache"
	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/graph"
	"github.com/matzehuels/topostack/pkg/observability"
	"github.com/matzehuels/topostack/pkg/registry"
	"github.com/matzehuels/topostack/pkg/render/nodelink"
)

var (
	ttlLayout   = cache.TTLLayout
	ttlArtifact = cache.TTLArtifact
)

// =============================================================================
// Render Stage
// =============================================================================

// Render produces doc in every requested format.
func Render(ctx context.Context, doc graph.Document, reg *registry.Registry, opts Options) (map[string][]byte, error) {
	opts.SetDefaults()
	if reg == nil {
		reg = opts.Registry
	}
	out := make(map[string][]byte, len(opts.Formats))

	var dot string
	dotFor := func() string {
		if dot == "" {
			dot = nodelink.ToDOT(doc.Graph(), doc.Layout(), reg, opts.NodelinkOptions())
		}
		return dot
	}

	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatJSON:
			data, err = graph.MarshalDocument(doc)
		case FormatDOT:
			data = []byte(dotFor())
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dotFor())
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dotFor())
		default:
			return nil, errs.New(errs.ErrCodeUnsupported, "unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		out[format] = data
	}
	return out, nil
}

// RenderWithCacheInfo renders doc, reusing cached artifacts when every
// requested format is cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, doc graph.Document, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	docData, err := graph.MarshalDocument(doc)
	if err != nil {
		return nil, false, fmt.Errorf("serialize document for cache key: %w", err)
	}
	docHash := cache.Hash(docData)

	if !opts.Refresh {
		cached := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format)))
			if err != nil || !hit {
				break
			}
			cached[format] = data
		}
		if len(cached) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return cached, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, doc, opts.Registry, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(docHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, ttlArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}
