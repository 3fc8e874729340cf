package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/pipeline"
)

// layoutFlags are the flags of the layout command.
type layoutFlags struct {
	paths   pipeline.Paths
	formats string
	output  string
	cache   cacheFlags
}

// layoutCommand creates the layout command, which runs the full pipeline
// over a set of relation datasets.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags layoutFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [dataset-dir]",
		Short: "Lay out a topology from relation datasets",
		Long: `Lay out a topology from the physical, FHRP and BGP datasets.

The datasets are read from dataset-dir (cdp_topology.json,
hsrp_topology.json, bgp_topology.json) unless given one by one with
--physical, --fhrp and --bgp. A missing dataset is treated as empty.

One document is written per view: <view>.json for the global view "all"
and, with --per-datacenter, one per datacenter. Other formats (dot, svg,
png) are written next to it.

Results are cached locally for faster subsequent runs.`,
		Example: `  topostack layout data
  topostack layout data --per-datacenter -f json,svg -o out
  topostack layout --physical cdp.json --datacenter npc`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runLayout(cmd.Context(), cmd.OutOrStdout(), dir, flags, opts)
		},
	}

	cmd.Flags().StringVar(&flags.paths.Physical, "physical", "", "physical (CDP) dataset file")
	cmd.Flags().StringVar(&flags.paths.FHRP, "fhrp", "", "FHRP dataset file")
	cmd.Flags().StringVar(&flags.paths.BGP, "bgp", "", "BGP dataset file")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", pipeline.FormatJSON, "output formats: json, dot, svg, png (comma-separated)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", ".", "output directory")
	flags.cache.register(cmd)

	cmd.Flags().StringVar(&opts.Datacenter, "datacenter", "", "lay out a single datacenter")
	cmd.Flags().BoolVar(&opts.PerDatacenter, "per-datacenter", false, "add one view per datacenter")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "sub-layout seed (default: registry seed)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel bucket layouts (default: number of CPUs)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "label devices with position and parse method (dot, svg, png)")
	cmd.Flags().BoolVar(&opts.HidePairs, "hide-pairs", false, "omit HA pair edges (dot, svg, png)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute and overwrite cached results")

	return cmd
}

// resolvePaths fills unset dataset paths from dir.
func resolvePaths(dir string, explicit pipeline.Paths) pipeline.Paths {
	p := pipeline.PathsIn(dir)
	if explicit.Physical != "" || explicit.FHRP != "" || explicit.BGP != "" {
		p = explicit
	}
	return p
}

func (c *CLI) runLayout(ctx context.Context, w io.Writer, dir string, flags layoutFlags, opts pipeline.Options) error {
	if err := errs.ValidatePath(flags.output); err != nil {
		return err
	}
	reg, err := c.registry()
	if err != nil {
		return err
	}
	logger := loggerFromContext(ctx)
	opts.Registry = reg
	opts.Logger = logger
	opts.Formats = pipeline.ParseFormats(flags.formats)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	in, err := pipeline.LoadInputs(ctx, resolvePaths(dir, flags.paths), logger)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.cache, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerTo(ctx, os.Stderr, w, "Computing layout...")
	spinner.Start()
	res, err := runner.Execute(ctx, in, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if err := os.MkdirAll(flags.output, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	printSuccess(w, "Layout complete %s", StyleDim.Render(res.RunID[:8]))
	var first string
	for _, v := range res.Views {
		for _, format := range opts.Formats {
			path := filepath.Join(flags.output, v.Name+"."+format)
			if err := os.WriteFile(path, v.Artifacts[format], 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			printFile(w, path)
			if first == "" && format == pipeline.FormatJSON {
				first = path
			}
		}
		printStats(w, len(v.Document.Nodes), len(v.Document.Edges), v.CacheInfo.LayoutHit)
	}
	if res.Build.Implicit > 0 || res.Build.Skipped > 0 {
		printWarning(w, "%d implicit devices, %d skipped edges", res.Build.Implicit, res.Build.Skipped)
	}

	if first != "" {
		printNewline(w)
		printNextStep(w, "Browse", appName+" browse "+first)
		if !strings.Contains(flags.formats, pipeline.FormatSVG) {
			printNextStep(w, "Render", appName+" render "+first+" -f svg")
		}
	}
	return nil
}
