package ingest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/graph"
	"github.com/matzehuels/topostack/pkg/topology"
)

// Dataset file names written by [Result.WriteDir] and read by the pipeline.
const (
	PhysicalFile = "cdp_topology.json"
	FHRPFile     = "hsrp_topology.json"
	BGPFile      = "bgp_topology.json"
)

// FileFor returns the conventional dataset file name of a relation.
func FileFor(rel topology.Relation) string {
	switch rel {
	case topology.FHRP:
		return FHRPFile
	case topology.BGP:
		return BGPFile
	}
	return PhysicalFile
}

// Options configure [Run].
type Options struct {
	// CDPDir holds one <device>_cdp.txt per device.
	CDPDir string
	// ConfigDir holds one <device>.cfg or <device>.txt running config per device.
	ConfigDir string
	// Workers bounds concurrent file parsing. Zero means GOMAXPROCS.
	Workers int
	Logger  *log.Logger
}

// Result holds the three relation datasets and the raw records they were
// derived from.
type Result struct {
	Physical topology.Dataset
	FHRP     topology.Dataset
	BGP      topology.Dataset

	Neighbors []Neighbor
	Members   []Member
	Peers     []Peer
	Devices   int
}

// Run parses every CDP and configuration file found in the option
// directories. An empty or missing directory yields an empty relation and a
// warning. Files are parsed concurrently; results keep file name order.
func Run(ctx context.Context, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var res Result

	cdpFiles, err := glob(opts.CDPDir, "*_cdp.txt")
	if err != nil {
		return Result{}, err
	}
	if len(cdpFiles) == 0 {
		logger.Warn("no CDP files found", "dir", opts.CDPDir)
	}
	perFile := make([][]Neighbor, len(cdpFiles))
	if err := parallel(ctx, workers, cdpFiles, func(i int, path string) error {
		local := strings.TrimSuffix(stem(path), "_cdp")
		ns, err := withFile(path, func(r io.Reader) ([]Neighbor, error) { return ParseCDP(local, r) })
		perFile[i] = ns
		return err
	}); err != nil {
		return Result{}, err
	}
	for _, ns := range perFile {
		res.Neighbors = append(res.Neighbors, ns...)
	}
	res.Physical = CDPDataset(res.Neighbors)

	configs, err := ReadConfigDir(ctx, opts.ConfigDir, workers)
	if err != nil {
		return Result{}, err
	}
	if len(configs) == 0 {
		logger.Warn("no configuration files found", "dir", opts.ConfigDir)
	}
	for _, cfg := range configs {
		res.Members = append(res.Members, FHRPMembers(cfg)...)
		res.Peers = append(res.Peers, BGPPeers(cfg)...)
	}
	res.FHRP = FHRPDataset(res.Members)
	res.BGP = BGPDataset(configs)
	res.Devices = len(configs)

	logger.Info("ingest complete",
		"cdp_files", len(cdpFiles),
		"configs", len(configs),
		"physical", len(res.Physical.Edges),
		"fhrp", len(res.FHRP.Edges),
		"bgp", len(res.BGP.Edges))
	return res, nil
}

// ReadConfigDir parses every *.cfg and *.txt file of dir, skipping CDP
// captures. The device name is the file name without extension.
func ReadConfigDir(ctx context.Context, dir string, workers int) ([]*Config, error) {
	var files []string
	for _, pattern := range []string{"*.cfg", "*.txt"} {
		matches, err := glob(dir, pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !strings.HasSuffix(m, "_cdp.txt") {
				files = append(files, m)
			}
		}
	}

	out := make([]*Config, len(files))
	err := parallel(ctx, max(workers, 1), files, func(i int, path string) error {
		cfg, err := withFile(path, func(r io.Reader) (*Config, error) { return ParseConfig(stem(path), r) })
		out[i] = cfg
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteDir writes the three datasets to dir using the conventional names.
func (r Result) WriteDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidPath, err, "create %s", dir)
	}
	for _, d := range []topology.Dataset{r.Physical, r.FHRP, r.BGP} {
		path := filepath.Join(dir, FileFor(d.Relation))
		if err := graph.WriteDatasetFile(path, d); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err, "write %s", path)
		}
	}
	return nil
}

func glob(dir, pattern string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "glob %s", dir)
	}
	return matches, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func withFile[T any](path string, fn func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, errs.Wrap(errs.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	v, err := fn(f)
	if err != nil {
		return zero, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse %s", path)
	}
	return v, nil
}

func parallel(ctx context.Context, workers int, files []string, fn func(int, string) error) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, path := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(i, path)
		})
	}
	return eg.Wait()
}
