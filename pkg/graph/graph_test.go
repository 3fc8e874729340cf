package graph

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/topostack/pkg/classify"
	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/layout"
	"github.com/matzehuels/topostack/pkg/registry"
	"github.com/matzehuels/topostack/pkg/topology"
)

func readFixture(t *testing.T, name string, rel topology.Relation) topology.Dataset {
	t.Helper()
	d, err := ReadDatasetFile(filepath.Join("testdata", name), rel)
	if err != nil {
		t.Fatalf("ReadDatasetFile(%s) error = %v", name, err)
	}
	return d
}

func TestReadDatasetPhysical(t *testing.T) {
	d := readFixture(t, "cdp_topology.json", topology.Physical)

	if len(d.Nodes) != 3 || len(d.Edges) != 2 {
		t.Fatalf("got %d nodes, %d edges", len(d.Nodes), len(d.Edges))
	}
	if d.Nodes[0].LegacyType != "" {
		t.Errorf("unknown type kept as %q", d.Nodes[0].LegacyType)
	}
	if d.Nodes[2].LegacyType != "router" {
		t.Errorf("LegacyType = %q, want router", d.Nodes[2].LegacyType)
	}
	attrs, ok := d.Edges[0].Attrs.(topology.PhysicalAttrs)
	if !ok {
		t.Fatalf("Attrs = %T, want PhysicalAttrs", d.Edges[0].Attrs)
	}
	if attrs.SourceInterface != "TenGigabitEthernet1/1" {
		t.Errorf("SourceInterface = %q", attrs.SourceInterface)
	}
}

func TestReadDatasetFHRP(t *testing.T) {
	d := readFixture(t, "hsrp_topology.json", topology.FHRP)

	tests := []struct {
		want topology.FHRPAttrs
	}{
		{topology.FHRPAttrs{Protocol: "HSRP", Group: "10", VirtualIP: "10.1.10.1", ActivePriority: 110, StandbyPriority: 100}},
		{topology.FHRPAttrs{Protocol: "VRRP", Group: "20", VirtualIP: "10.1.20.1"}},
		{topology.FHRPAttrs{Protocol: "HSRP", Group: "30", ActivePriority: 100}},
	}
	if len(d.Edges) != len(tests) {
		t.Fatalf("got %d edges, want %d", len(d.Edges), len(tests))
	}
	for i, tt := range tests {
		if got := d.Edges[i].Attrs; got != tt.want {
			t.Errorf("edge %d attrs = %+v, want %+v", i, got, tt.want)
		}
	}
}

func TestReadDatasetBGP(t *testing.T) {
	d := readFixture(t, "bgp_topology.json", topology.BGP)

	tests := []struct {
		target      string
		remoteAS    string
		peeringType string
	}{
		{"npccosr02", "65001", "iBGP"},
		{"203.0.113.1", "174", "eBGP"},
		{"198.51.100.9", "", ""},
	}
	for i, tt := range tests {
		e := d.Edges[i]
		a := e.Attrs.(topology.BGPAttrs)
		if e.Target != tt.target || a.RemoteAS != tt.remoteAS || a.PeeringType != tt.peeringType {
			t.Errorf("edge %d = %s %+v, want target %s remote %q peering %q", i, e.Target, a, tt.target, tt.remoteAS, tt.peeringType)
		}
	}
}

func TestReadDatasetErrors(t *testing.T) {
	_, err := ReadDatasetFile(filepath.Join("testdata", "missing.json"), topology.BGP)
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}

	_, err = ReadDatasetFile(filepath.Join("testdata", "broken.json"), topology.Physical)
	if !errs.Is(err, errs.ErrCodeInvalidDataset) {
		t.Errorf("broken file error = %v, want INVALID_DATASET", err)
	}
}

func TestReadDatasetBareNodesAndUnknownLinkType(t *testing.T) {
	in := `{"nodes": ["a", " b "], "edges": [
		{"source": "a", "target": "b"},
		{"source": "a", "target": "b", "link_type": "ospf"}
	]}`
	d, err := ReadDataset(strings.NewReader(in), topology.Physical)
	if err != nil {
		t.Fatal(err)
	}
	if d.Nodes[1].ID != "b" {
		t.Errorf("node ID = %q, want trimmed b", d.Nodes[1].ID)
	}
	if d.Edges[0].Relation() != topology.Physical {
		t.Errorf("relation = %q, want fallback physical", d.Edges[0].Relation())
	}
	if d.Edges[1].Attrs != nil {
		t.Errorf("unknown link_type produced %T", d.Edges[1].Attrs)
	}

	g, stats := topology.Build(d, topology.Dataset{}, topology.Dataset{})
	if g.EdgeCount() != 1 || stats.Skipped != 1 {
		t.Errorf("EdgeCount = %d, Skipped = %d", g.EdgeCount(), stats.Skipped)
	}
}

func TestWriteDatasetRoundTrip(t *testing.T) {
	in := readFixture(t, "bgp_topology.json", topology.BGP)

	var buf bytes.Buffer
	if err := WriteDataset(&buf, in); err != nil {
		t.Fatal(err)
	}
	out, err := ReadDataset(&buf, topology.BGP)
	if err != nil {
		t.Fatal(err)
	}
	for i := range in.Edges {
		if in.Edges[i] != out.Edges[i] {
			t.Errorf("edge %d = %+v, want %+v", i, out.Edges[i], in.Edges[i])
		}
	}
}

func buildDocument(t *testing.T) (Document, *topology.Graph) {
	t.Helper()
	g, _ := topology.Build(
		readFixture(t, "cdp_topology.json", topology.Physical),
		readFixture(t, "hsrp_topology.json", topology.FHRP),
		readFixture(t, "bgp_topology.json", topology.BGP),
	)
	reg := registry.Default()
	l, err := layout.Build(context.Background(), g, classify.New(reg), reg)
	if err != nil {
		t.Fatal(err)
	}
	return NewDocument(g, l, reg), g
}

func TestNewDocument(t *testing.T) {
	doc, g := buildDocument(t)

	if len(doc.Nodes) != g.NodeCount() || len(doc.Edges) != g.EdgeCount() {
		t.Fatalf("document = %d nodes, %d edges; graph = %d, %d", len(doc.Nodes), len(doc.Edges), g.NodeCount(), g.EdgeCount())
	}
	n, ok := doc.Node("npccosr01")
	if !ok {
		t.Fatal("npccosr01 missing")
	}
	if n.PositionName != "Core" || n.Icon.Symbol != "diamond" || n.Z != 3.5 {
		t.Errorf("npccosr01 = %+v", n)
	}
	rtr, _ := doc.Node("EDGE-RTR-1")
	if !rtr.LegacyZ || rtr.Z != 4.0 || rtr.Icon.Description != "Unknown Device" {
		t.Errorf("EDGE-RTR-1 = %+v", rtr)
	}
	if doc.Summary.Devices != g.NodeCount() {
		t.Errorf("Summary.Devices = %d", doc.Summary.Devices)
	}
	if len(doc.HAPairs) == 0 {
		t.Error("no HA pairs")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	doc, g := buildDocument(t)

	data, err := MarshalDocument(doc)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalDocument(data)
	if err != nil {
		t.Fatal(err)
	}

	want := doc.Positions()
	for id, p := range got.Positions() {
		if want[id] != p {
			t.Errorf("%s = %+v, want %+v", id, p, want[id])
		}
	}
	rebuilt := got.Graph()
	if rebuilt.NodeCount() != g.NodeCount() || rebuilt.EdgeCount() != g.EdgeCount() {
		t.Errorf("rebuilt graph = %d nodes, %d edges", rebuilt.NodeCount(), rebuilt.EdgeCount())
	}
	if !rebuilt.HasEdge("npccosr01", "203.0.113.1", topology.BGP) {
		t.Error("bgp edge lost in round trip")
	}
	n, _ := got.Node("npccosr01")
	if dc, ok := n.Identity.Datacenter(); !ok || dc != "npc" {
		t.Errorf("identity datacenter = %q, %v", dc, ok)
	}
	if got.Layout().Placements["npccosr01"].Lane != 0 {
		t.Errorf("placement lane = %d", got.Layout().Placements["npccosr01"].Lane)
	}
}

func TestUnmarshalDocumentRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"dangling edge", `{"nodes":[{"id":"a"}],"edges":[{"source":"a","target":"b"}]}`},
		{"duplicate node", `{"nodes":[{"id":"a"},{"id":"a"}],"edges":[]}`},
		{"empty id", `{"nodes":[{"id":""}],"edges":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalDocument([]byte(tt.data)); !errs.Is(err, errs.ErrCodeInvalidDataset) {
				t.Errorf("error = %v, want INVALID_DATASET", err)
			}
		})
	}
}

func TestDocumentFile(t *testing.T) {
	doc, _ := buildDocument(t)
	path := filepath.Join(t.TempDir(), "topology.json")

	if err := WriteDocumentFile(doc, path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadDocumentFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != len(doc.Nodes) {
		t.Errorf("nodes = %d, want %d", len(got.Nodes), len(doc.Nodes))
	}
	if _, err := ReadDocumentFile(filepath.Join(t.TempDir(), "nope.json")); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing document error = %v", err)
	}
}
