package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/ingest"
	"github.com/matzehuels/topostack/pkg/topology"
)

// ingestCommand creates the ingest command, which turns raw device captures
// into the three relation datasets.
func (c *CLI) ingestCommand() *cobra.Command {
	opts := ingest.Options{}
	var output string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build relation datasets from CDP captures and device configs",
		Long: `Build the physical, FHRP and BGP datasets from raw device captures.

--cdp-dir holds one <device>_cdp.txt per device ("show cdp neighbors detail").
--config-dir holds one running config per device (<device>.cfg or .txt).
Either directory may be missing; its relations are then written empty.`,
		Example: `  topostack ingest --cdp-dir captures/cdp --config-dir captures/configs -o data
  topostack layout data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.CDPDir == "" && opts.ConfigDir == "" {
				return errs.New(errs.ErrCodeInvalidInput, "at least one of --cdp-dir or --config-dir is required")
			}
			if err := errs.ValidatePath(output); err != nil {
				return err
			}
			return runIngest(cmd.Context(), cmd.OutOrStdout(), opts, output)
		},
	}

	cmd.Flags().StringVar(&opts.CDPDir, "cdp-dir", "", "directory of CDP neighbor captures")
	cmd.Flags().StringVar(&opts.ConfigDir, "config-dir", "", "directory of running configs")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel file parsers (default: number of CPUs)")
	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory")

	return cmd
}

func runIngest(ctx context.Context, w io.Writer, opts ingest.Options, output string) error {
	logger := loggerFromContext(ctx)
	opts.Logger = logger

	prog := newProgress(logger)
	res, err := ingest.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	prog.done(fmt.Sprintf("Parsed %d devices", res.Devices))

	if err := res.WriteDir(output); err != nil {
		return fmt.Errorf("write datasets: %w", err)
	}

	printSuccess(w, "Ingest complete")
	counts := map[topology.Relation]int{
		topology.Physical: len(res.Physical.Edges),
		topology.FHRP:     len(res.FHRP.Edges),
		topology.BGP:      len(res.BGP.Edges),
	}
	for _, rel := range topology.Relations {
		printFile(w, filepath.Join(output, ingest.FileFor(rel)))
		printDetail(w, "%d %s edges", counts[rel], rel)
	}
	printNewline(w)
	printNextStep(w, "Lay out", appName+" layout "+output)
	return nil
}
