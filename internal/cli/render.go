package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/graph"
	"github.com/matzehuels/topostack/pkg/pipeline"
)

// renderCommand creates the render command, which draws a layout document
// produced by the layout command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formats string
		output  string
		flags   cacheFlags
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render <document.json>",
		Short: "Render a layout document to SVG, PNG or DOT",
		Long: `Render a layout document to a node-link diagram.

Devices are pinned to their layout coordinates projected onto the page:
lanes run left to right, layers bottom to top. Rendering uses Graphviz in
process; no external tools are needed.`,
		Example: `  topostack render all.json
  topostack render npc.json -f svg,png --detailed -o out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = pipeline.ParseFormats(formats)
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), args[0], output, flags, opts)
		},
	}

	cmd.Flags().StringVarP(&formats, "format", "f", pipeline.FormatSVG, "output formats: svg, png, dot (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (default: next to the document)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "label devices with position and parse method")
	cmd.Flags().BoolVar(&opts.HidePairs, "hide-pairs", false, "omit HA pair edges")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-render and overwrite cached artifacts")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, w io.Writer, input, output string, flags cacheFlags, opts pipeline.Options) error {
	if slices.Contains(opts.Formats, pipeline.FormatJSON) {
		return errs.New(errs.ErrCodeInvalidFormat, "render writes dot, svg or png; the document already is the json output")
	}
	if output == "" {
		output = filepath.Dir(input)
	} else if err := errs.ValidatePath(output); err != nil {
		return err
	}

	reg, err := c.registry()
	if err != nil {
		return err
	}
	opts.Registry = reg
	opts.Logger = loggerFromContext(ctx)

	doc, err := graph.ReadDocumentFile(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags, nil)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerTo(ctx, os.Stderr, w, "Rendering...")
	spinner.Start()
	artifacts, cached, err := runner.RenderWithCacheInfo(ctx, doc, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))

	printSuccess(w, "Render complete")
	for _, format := range opts.Formats {
		path := filepath.Join(output, base+"."+format)
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(w, path)
	}
	printStats(w, len(doc.Nodes), len(doc.Edges), cached)
	return nil
}
