package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topostack/pkg/registry"
)

// registryCommand creates the registry command group.
func (c *CLI) registryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and validate position registries",
	}

	cmd.AddCommand(c.registryValidateCommand())
	cmd.AddCommand(c.registryShowCommand())

	return cmd
}

// registryValidateCommand creates the "registry validate" subcommand.
func (c *CLI) registryValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a registry file",
		Long: `Check a registry file (toml, yaml or json) without running anything.

Exits with status 2 when the registry is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Load(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printSuccess(w, "Registry is valid")
			printDetail(w, "%s", reg.Summary())
			return nil
		},
	}
}

// registryShowCommand creates the "registry show" subcommand.
func (c *CLI) registryShowCommand() *cobra.Command {
	var (
		format    string
		positions bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active registry",
		Long: `Print the registry selected by --registry, or the built-in one.

The output is a complete registry file and can be used as a starting point
for a site-specific registry:

  topostack registry show -o toml > registry.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			if positions {
				printPositions(cmd.OutOrStdout(), reg)
				return nil
			}
			return registry.Encode(cmd.OutOrStdout(), reg.File(), registry.Format(strings.ToLower(format)))
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", string(registry.FormatTOML), "output format: toml, yaml, json")
	cmd.Flags().BoolVar(&positions, "positions", false, "print the position table instead of the file")

	return cmd
}

// printPositions prints positions top layer first, then the registry
// summary.
func printPositions(w io.Writer, reg *registry.Registry) {
	t := newTable("Code", "Name", "Layer", "Lane", "X")
	for _, p := range reg.Positions() {
		t.Row(p.Code, p.Name,
			strconv.FormatFloat(p.Z, 'f', -1, 64),
			strconv.Itoa(p.Lane),
			strconv.FormatFloat(reg.LaneX(p.Lane), 'f', -1, 64))
	}
	fmt.Fprintln(w, t.Render())

	printKeyValue(w, "datacenters", strings.Join(reg.Datacenters(), ", "))
	printKeyValue(w, "device types", strings.Join(reg.DeviceTypes(), ", "))
	printKeyValue(w, "fingerprint", reg.Fingerprint()[:12])
}
