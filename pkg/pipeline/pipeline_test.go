package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/topostack/pkg/cache"
	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/registry"
	"github.com/matzehuels/topostack/pkg/topology"
)

func loadFull(t *testing.T) Inputs {
	t.Helper()
	in, err := LoadInputs(context.Background(), PathsIn(filepath.Join("testdata", "full")), nil)
	if err != nil {
		t.Fatal(err)
	}
	return in
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errs.Is(err, errs.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errs.GetCode(err))
		}
	}
}

func TestParseFormats(t *testing.T) {
	got := ParseFormats(" SVG, json,,dot ")
	want := []string{"svg", "json", "dot"}
	if !slices.Equal(got, want) {
		t.Errorf("ParseFormats() = %v, want %v", got, want)
	}
	if ParseFormats("") != nil {
		t.Error("ParseFormats(\"\") should be nil")
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Seed != 42 {
		t.Errorf("Seed = %d, want registry seed 42", opts.Seed)
	}
	if !slices.Equal(opts.Formats, DefaultFormats) {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.Registry == nil || opts.Logger == nil {
		t.Error("Registry and Logger must be set")
	}

	opts = Options{Datacenter: " NPC "}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Datacenter != "npc" {
		t.Errorf("Datacenter = %q, want npc", opts.Datacenter)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errs.Code
	}{
		{"unknown datacenter", Options{Datacenter: "zzz"}, errs.ErrCodeInvalidDatacenter},
		{"malformed datacenter", Options{Datacenter: "n-p-c"}, errs.ErrCodeInvalidDatacenter},
		{"datacenter and per datacenter", Options{Datacenter: "npc", PerDatacenter: true}, errs.ErrCodeInvalidInput},
		{"negative workers", Options{Workers: -1}, errs.ErrCodeInvalidInput},
		{"bad format", Options{Formats: []string{"gif"}}, errs.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errs.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadInputsMissingFile(t *testing.T) {
	in, err := LoadInputs(context.Background(), PathsIn(filepath.Join("testdata", "partial")), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(in.Physical.Edges) != 5 || len(in.FHRP.Edges) != 1 {
		t.Errorf("physical=%d fhrp=%d", len(in.Physical.Edges), len(in.FHRP.Edges))
	}
	if !in.BGP.Empty() || in.BGP.Relation != topology.BGP {
		t.Errorf("BGP = %+v, want empty bgp dataset", in.BGP)
	}
}

func TestLoadInputsBroken(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "cdp_topology.json"), []byte(`{"edges": [`), 0o644)

	_, err := LoadInputs(context.Background(), PathsIn(dir), nil)
	if !errs.Is(err, errs.ErrCodeInvalidDataset) {
		t.Errorf("error = %v, want INVALID_DATASET", err)
	}
}

func TestGraphHashOrderIndependent(t *testing.T) {
	in := loadFull(t)
	g1, _ := topology.Build(in.Physical, in.FHRP, in.BGP)

	rev := in.Physical
	rev.Edges = slices.Clone(rev.Edges)
	slices.Reverse(rev.Edges)
	g2, _ := topology.Build(rev, in.FHRP, in.BGP)

	if GraphHash(g1) != GraphHash(g2) {
		t.Error("edge order changed the graph hash")
	}
	g3, _ := topology.Build(in.Physical, in.FHRP, topology.Dataset{})
	if GraphHash(g1) == GraphHash(g3) {
		t.Error("different graphs share a hash")
	}
}

func TestViewNames(t *testing.T) {
	in := loadFull(t)
	g, _ := topology.Build(in.Physical, in.FHRP, in.BGP)

	tests := []struct {
		opts Options
		want []string
	}{
		{Options{}, []string{ViewAll}},
		{Options{PerDatacenter: true}, []string{ViewAll, "npc", "wpc"}},
		{Options{Datacenter: "wpc"}, []string{"wpc"}},
	}
	for _, tt := range tests {
		if got := ViewNames(g, tt.opts); !slices.Equal(got, tt.want) {
			t.Errorf("ViewNames(%+v) = %v, want %v", tt.opts, got, tt.want)
		}
	}
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), loadFull(t), Options{
		PerDatacenter: true,
		Formats:       []string{FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatal(err)
	}

	if res.RunID == "" || res.GraphHash == "" {
		t.Error("RunID and GraphHash must be set")
	}
	if res.Stats.NodeCount != 5 {
		t.Errorf("NodeCount = %d, want 5", res.Stats.NodeCount)
	}
	if len(res.Views) != 3 {
		t.Fatalf("views = %d, want 3", len(res.Views))
	}

	all, _ := res.View(ViewAll)
	if len(all.Document.Nodes) != 5 {
		t.Errorf("global view nodes = %d, want 5", len(all.Document.Nodes))
	}
	edge, ok := all.Document.Node("EDGE-RTR-1")
	if !ok || edge.Z != 4.0 || !edge.LegacyZ {
		t.Errorf("EDGE-RTR-1 = %+v, want legacy router layer 4", edge)
	}
	for _, f := range []string{FormatJSON, FormatDOT} {
		if len(all.Artifacts[f]) == 0 {
			t.Errorf("global view missing %s artifact", f)
		}
	}

	npc, ok := res.View("npc")
	if !ok {
		t.Fatal("npc view missing")
	}
	if _, ok := npc.Document.Node("wpccosr01"); ok {
		t.Error("npc view contains a wpc device")
	}
	if len(npc.Document.HAPairs) != 1 {
		t.Errorf("npc HA pairs = %v", npc.Document.HAPairs)
	}
	if bytes.Contains(npc.Artifacts[FormatDOT], []byte("wpccosr01")) {
		t.Error("npc DOT draws a wpc device")
	}
}

func TestExecuteCachedSecondRun(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	in := loadFull(t)
	opts := Options{PerDatacenter: true, Formats: []string{FormatJSON, FormatDOT}}

	first, err := r.Execute(context.Background(), in, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(context.Background(), in, opts)
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range second.Views {
		if !v.CacheInfo.LayoutHit || !v.CacheInfo.RenderHit {
			t.Errorf("view %s: cache info %+v, want hits", v.Name, v.CacheInfo)
		}
		if first.Views[i].CacheInfo.LayoutHit {
			t.Errorf("view %s: first run reported a hit", v.Name)
		}
		for f, data := range first.Views[i].Artifacts {
			if !bytes.Equal(data, v.Artifacts[f]) {
				t.Errorf("view %s: %s artifact differs between runs", v.Name, f)
			}
		}
	}

	refreshed, err := r.Execute(context.Background(), in, Options{PerDatacenter: true, Formats: opts.Formats, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.Views[0].CacheInfo.LayoutHit {
		t.Error("Refresh should bypass the cache")
	}
}

func TestExecuteRegistryChangesKey(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	r := NewRunner(c, nil, nil)
	in := loadFull(t)

	if _, err := r.Execute(context.Background(), in, Options{}); err != nil {
		t.Fatal(err)
	}

	f := registry.DefaultFile()
	f.HA.Enabled = new(bool)
	res, err := r.Execute(context.Background(), in, Options{Registry: registry.MustNew(f)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Views[0].CacheInfo.LayoutHit {
		t.Error("a different registry reused the cached layout")
	}
	if len(res.Views[0].Document.HAPairs) != 0 {
		t.Error("HA pairs present with HA disabled")
	}
}

func TestExecuteDatacenter(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), loadFull(t), Options{Datacenter: "wpc"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Views) != 1 || res.Views[0].Name != "wpc" {
		t.Fatalf("views = %+v", res.Views)
	}
	doc := res.Views[0].Document
	if len(doc.Nodes) != 1 || doc.Nodes[0].ID != "wpccosr01" {
		t.Errorf("wpc view nodes = %+v", doc.Nodes)
	}
	if doc.Datacenter != "wpc" {
		t.Errorf("Datacenter = %q", doc.Datacenter)
	}
}

func TestExecuteEmpty(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Inputs{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Views) != 1 || len(res.Views[0].Document.Nodes) != 0 {
		t.Errorf("views = %+v", res.Views)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRunner(nil, nil, nil).Execute(ctx, loadFull(t), Options{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
