// Package pipeline runs topostack end to end: load the relation datasets,
// build the topology graph, lay out one or more views and render them.
//
// The CLI and the HTTP server both go through [Runner], so defaults,
// validation and caching behave the same everywhere.
//
// # Stages
//
//  1. Load: read the physical, fhrp and bgp dataset files. A missing file is
//     an empty relation and a warning, not an error.
//  2. Build: merge the datasets into a [topology.Graph].
//  3. Layout: compute the global view and, with PerDatacenter, one view per
//     datacenter. Each view is a [graph.Document].
//  4. Render: produce the requested formats (json, dot, svg, png) per view.
//
// # Usage
//
//	in, err := pipeline.LoadInputs(ctx, pipeline.PathsIn("out/"), logger)
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, err := runner.Execute(ctx, in, pipeline.Options{
//	    PerDatacenter: true,
//	    Formats:       []string{pipeline.FormatJSON, pipeline.FormatSVG},
//	})
//	for _, v := range res.Views {
//	    os.WriteFile(v.Name+".svg", v.Artifacts[pipeline.FormatSVG], 0o644)
//	}
//
// # Caching
//
// Layout documents are cached under a key made of the canonical graph
// hash, the registry fingerprint and the layout options, so the same
// datasets laid out with the same registry are computed once. Artifacts are
// cached under the hash of the document they were rendered from.
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/topostack/pkg/cache"
	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/graph"
	"github.com/matzehuels/topostack/pkg/registry"
	"github.com/matzehuels/topostack/pkg/render/nodelink"
	"github.com/matzehuels/topostack/pkg/topology"
)

// =============================================================================
// Default Values
// =============================================================================

// ViewAll names the view that contains every device.
const ViewAll = "all"

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// DefaultFormats is used when no format is requested.
var DefaultFormats = []string{FormatJSON}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It decodes from API request bodies.
type Options struct {
	// Datacenter restricts the run to a single datacenter view.
	Datacenter string `json:"datacenter,omitempty"`
	// PerDatacenter adds one view per datacenter next to the global view.
	PerDatacenter bool `json:"per_datacenter,omitempty"`
	// Seed overrides the registry spring seed. Zero keeps the registry value.
	Seed uint64 `json:"seed,omitempty"`
	// Workers bounds concurrent bucket layouts. Zero means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`

	Formats   []string `json:"formats,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"`
	HidePairs bool     `json:"hide_pairs,omitempty"`
	// Refresh recomputes every view and overwrites cached entries.
	Refresh bool `json:"refresh,omitempty"`

	Registry *registry.Registry `json:"-"`
	Logger   *log.Logger        `json:"-"`

	validated bool
}

// Result is the outcome of [Runner.Execute].
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string
	// GraphHash is the canonical content hash of the built graph.
	GraphHash string
	Graph     *topology.Graph
	Build     topology.BuildStats
	// Views holds the global view (or the Datacenter view) first, then
	// datacenter views in sorted order.
	Views []View
	Stats Stats
}

// View is one laid out and rendered view of the topology.
type View struct {
	Name      string
	Document  graph.Document
	Artifacts map[string][]byte
	CacheInfo CacheInfo
}

// View returns the view with the given name.
func (r *Result) View(name string) (View, bool) {
	i := slices.IndexFunc(r.Views, func(v View) bool { return v.Name == name })
	if i < 0 {
		return View{}, false
	}
	return r.Views[i], true
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for one view.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format: %q (must be one of: json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks every format.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma separated list, trimming blanks.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills unset options. It never fails.
func (o *Options) SetDefaults() {
	if o.Registry == nil {
		o.Registry = registry.Default()
	}
	if o.Seed == 0 {
		o.Seed = o.Registry.Spring().Seed
	}
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.Datacenter = strings.ToLower(strings.TrimSpace(o.Datacenter))
}

// Validate checks options after [Options.SetDefaults].
func (o *Options) Validate() error {
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Workers < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "workers must not be negative")
	}
	if o.Datacenter != "" {
		if err := errs.ValidateDatacenter(o.Datacenter); err != nil {
			return err
		}
		if !o.Registry.HasDatacenter(o.Datacenter) {
			return errs.New(errs.ErrCodeInvalidDatacenter, "unknown datacenter %q (known: %s)",
				o.Datacenter, strings.Join(o.Registry.Datacenters(), ", "))
		}
		if o.PerDatacenter {
			return errs.New(errs.ErrCodeInvalidInput, "datacenter and per_datacenter are mutually exclusive")
		}
	}
	return nil
}

// ValidateAndSetDefaults applies defaults and validates. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// LayoutKeyOpts returns the cache key options for one view.
func (o *Options) LayoutKeyOpts(datacenter string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{Datacenter: datacenter, Seed: o.Seed}
}

// NodelinkOptions returns the drawing options for DOT, SVG and PNG.
func (o *Options) NodelinkOptions() nodelink.Options {
	return nodelink.Options{Detailed: o.Detailed, HidePairs: o.HidePairs}
}

// ArtifactKeyOpts returns the cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	if format != FormatJSON {
		k.Detailed = o.Detailed
		k.HidePairs = o.HidePairs
		if o.Registry != nil {
			k.Registry = o.Registry.Fingerprint()
		}
	}
	return k
}
