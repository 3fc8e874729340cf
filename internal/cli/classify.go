package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topostack/pkg/classify"
	errs "github.com/matzehuels/topostack/pkg/errors"
)

// classifyCommand creates the classify command.
func (c *CLI) classifyCommand() *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "classify [hostname...]",
		Short: "Show how hostnames map to datacenter, position and layer",
		Long: `Classify hostnames against the position registry.

Hostnames are read from the arguments and, with --file, from a file with one
hostname per line ('#' starts a comment, '-' reads stdin).`,
		Example: `  topostack classify npccosr01 wpcdisw12
  topostack classify --file devices.txt --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			hosts := append([]string(nil), args...)
			if file != "" {
				more, err := readHostnames(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				hosts = append(hosts, more...)
			}
			if len(hosts) == 0 {
				return errs.New(errs.ErrCodeInvalidInput, "no hostnames given")
			}
			return c.runClassify(cmd.OutOrStdout(), hosts, asJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read hostnames from a file ('-' for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print identities as JSON")

	return cmd
}

func (c *CLI) runClassify(w io.Writer, hosts []string, asJSON bool) error {
	reg, err := c.registry()
	if err != nil {
		return err
	}
	for _, h := range hosts {
		if err := errs.ValidateHostname(h); err != nil {
			return err
		}
	}

	cl := classify.New(reg)
	ids := make([]classify.Identity, len(hosts))
	for i, h := range hosts {
		ids[i] = cl.Classify(h)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ids)
	}

	t := newTable("Hostname", "DC", "Position", "Type", "Seq", "Method", "Layer", "Lane")
	resolved := 0
	for _, id := range ids {
		dc, _ := id.Datacenter()
		pos, _ := id.Position()
		typ, _ := id.DeviceType()
		seq, _ := id.Sequence()
		if id.Valid() {
			resolved++
		}
		posName := pos
		if pos != "" {
			posName = fmt.Sprintf("%s (%s)", reg.DisplayName(pos), pos)
		}
		t.Row(id.Hostname, orDash(dc), orDash(posName), orDash(typ), orDash(seq),
			string(id.Method()), strconv.FormatFloat(id.Z(), 'f', -1, 64), strconv.Itoa(id.Lane()))
	}
	fmt.Fprintln(w, t.Render())
	printDetail(w, "%d of %d resolved", resolved, len(ids))
	return nil
}

// readHostnames reads one hostname per line, skipping blanks and comments.
func readHostnames(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "hostname file %s", path)
			}
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var hosts []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		if line = strings.TrimSpace(line); line != "" {
			hosts = append(hosts, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return hosts, nil
}
