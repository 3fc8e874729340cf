package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/topostack/pkg/graph"
	"github.com/matzehuels/topostack/pkg/topology"
)

func parseConfigFile(t *testing.T, name string) *Config {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "configs", name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := ParseConfig(strings.TrimSuffix(name, filepath.Ext(name)), f)
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestParseConfigTree(t *testing.T) {
	cfg := parseConfigFile(t, "npcdisw01.txt")

	intfs := cfg.Top(interfaceRE)
	if len(intfs) != 3 {
		t.Fatalf("interfaces = %d, want 3", len(intfs))
	}
	vlan20 := intfs[1]
	if vlan20.Text != "interface Vlan20" || len(vlan20.Children) != 3 {
		t.Fatalf("Vlan20 = %q with %d children", vlan20.Text, len(vlan20.Children))
	}
	hsrp := vlan20.Children[2]
	if hsrp.Text != "hsrp 20" || len(hsrp.Children) != 4 {
		t.Errorf("hsrp block = %q with %d children", hsrp.Text, len(hsrp.Children))
	}
}

func TestParseCDP(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "cdp", "npccosr01_cdp.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ns, err := ParseCDP("npccosr01", f)
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) != 2 {
		t.Fatalf("neighbors = %d, want 2", len(ns))
	}
	want := Neighbor{
		LocalDevice:     "npccosr01",
		LocalInterface:  "TenGigabitEthernet2/1",
		RemoteDevice:    "npcdisw01",
		RemoteInterface: "Ethernet1/49",
		RemoteIP:        "10.0.1.1",
		Platform:        "N9K-C93180YC-EX",
		Capabilities:    "Router Switch",
	}
	if ns[1] != want {
		t.Errorf("neighbor = %+v\nwant %+v", ns[1], want)
	}
}

func TestCDPDatasetDedup(t *testing.T) {
	ns := []Neighbor{
		{LocalDevice: "a", LocalInterface: "g1", RemoteDevice: "b", RemoteInterface: "g2"},
		{LocalDevice: "b", LocalInterface: "g2", RemoteDevice: "a", RemoteInterface: "g1"},
		{LocalDevice: "a", LocalInterface: "g3", RemoteDevice: "b", RemoteInterface: "g4"},
	}
	d := CDPDataset(ns)
	if len(d.Edges) != 2 {
		t.Errorf("edges = %d, want 2 (mirror entry collapsed, parallel link kept)", len(d.Edges))
	}
	if len(d.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(d.Nodes))
	}
}

func TestLegacyType(t *testing.T) {
	tests := map[string]string{
		"LAB-CORE-1":  "core",
		"lab-dist-2":  "distribution",
		"LAB-ACC-SW1": "access",
		"EDGE-1":      "router",
		"wan-rtr":     "router",
		"npccosr01":   "",
	}
	for name, want := range tests {
		if got := LegacyType(name); got != want {
			t.Errorf("LegacyType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestFHRPMembers(t *testing.T) {
	tests := []struct {
		file string
		want []Member
	}{
		{
			file: "npccosr01.cfg",
			want: []Member{
				{Device: "npccosr01", Interface: "Vlan10", Protocol: "HSRP", Group: "10", VirtualIP: "10.1.10.1", Priority: 110, Preempt: true},
				{Device: "npccosr01", Interface: "Vlan30", Protocol: "HSRP", Group: "30", Priority: 90},
			},
		},
		{
			file: "npcdisw01.txt",
			want: []Member{
				{Device: "npcdisw01", Interface: "Vlan20", Protocol: "HSRP", Group: "20", VirtualIP: "10.1.20.1", Priority: 150, Preempt: true, Authentication: true},
				{Device: "npcdisw01", Interface: "Vlan40", Protocol: "VRRP", Group: "40", VirtualIP: "10.1.40.1", Priority: 200},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got := FHRPMembers(parseConfigFile(t, tt.file))
			if len(got) != len(tt.want) {
				t.Fatalf("members = %+v", got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("member %d = %+v\nwant %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFHRPDatasetChainsByPriority(t *testing.T) {
	members := []Member{
		{Device: "c", Interface: "Vlan1", Group: "1", VirtualIP: "10.0.0.1", Priority: 100, Protocol: "HSRP"},
		{Device: "a", Interface: "Vlan1", Group: "1", VirtualIP: "10.0.0.1", Priority: 120, Protocol: "HSRP"},
		{Device: "b", Interface: "Vlan1", Group: "1", VirtualIP: "10.0.0.1", Priority: 100, Protocol: "HSRP"},
		{Device: "solo", Interface: "Vlan9", Group: "9", Priority: 100, Protocol: "HSRP"},
	}
	d := FHRPDataset(members)

	want := [][2]string{{"a", "b"}, {"b", "c"}}
	if len(d.Edges) != len(want) {
		t.Fatalf("edges = %+v", d.Edges)
	}
	for i, e := range d.Edges {
		if e.Source != want[i][0] || e.Target != want[i][1] {
			t.Errorf("edge %d = %s->%s, want %s->%s", i, e.Source, e.Target, want[i][0], want[i][1])
		}
		a := e.Attrs.(topology.FHRPAttrs)
		if a.ActivePriority != 120 || a.StandbyPriority != 100 || a.VirtualIP != "10.0.0.1" {
			t.Errorf("edge %d attrs = %+v", i, a)
		}
	}
}

func TestBGPPeers(t *testing.T) {
	tests := []struct {
		file string
		want []Peer
	}{
		{
			file: "npccosr01.cfg",
			want: []Peer{
				{Device: "npccosr01", LocalAS: "65001", NeighborIP: "10.255.0.2", RemoteAS: "65001", Description: "core peer", Template: "IBGP"},
				{Device: "npccosr01", LocalAS: "65001", NeighborIP: "203.0.113.1", RemoteAS: "174", Description: "ISP uplink"},
			},
		},
		{
			file: "npcdisw01.txt",
			want: []Peer{
				{Device: "npcdisw01", LocalAS: "65001", NeighborIP: "10.255.0.1", RemoteAS: "65001", Description: "to core", Template: "CORE"},
				{Device: "npcdisw01", LocalAS: "65001", NeighborIP: "10.255.0.2", RemoteAS: "65001", Description: "override", Template: "CORE"},
			},
		},
		{file: "npcdisw02.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got := BGPPeers(parseConfigFile(t, tt.file))
			if len(got) != len(tt.want) {
				t.Fatalf("peers = %+v", got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("peer %d = %+v\nwant %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoopback(t *testing.T) {
	tests := map[string]string{
		"npccosr01.cfg": "10.255.0.1",
		"npcdisw01.txt": "10.255.1.1",
		"npcdisw02.txt": "",
	}
	for file, want := range tests {
		got, _ := Loopback(parseConfigFile(t, file))
		if got != want {
			t.Errorf("Loopback(%s) = %q, want %q", file, got, want)
		}
	}
}

func TestRun(t *testing.T) {
	res, err := Run(context.Background(), Options{
		CDPDir:    filepath.Join("testdata", "cdp"),
		ConfigDir: filepath.Join("testdata", "configs"),
		Workers:   2,
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := len(res.Physical.Edges); got != 3 {
		t.Errorf("physical edges = %d, want 3", got)
	}
	if got := len(res.FHRP.Edges); got != 4 {
		t.Errorf("fhrp edges = %d, want 4", got)
	}
	if got := len(res.BGP.Edges); got != 5 {
		t.Errorf("bgp edges = %d, want 5", got)
	}
	if res.Devices != 4 {
		t.Errorf("Devices = %d, want 4", res.Devices)
	}

	g, stats := topology.Build(res.Physical, res.FHRP, res.BGP)
	if stats.Skipped != 0 {
		t.Errorf("Skipped = %d", stats.Skipped)
	}
	if !g.HasEdge("npccosr01", "npccosr02", topology.BGP) {
		t.Error("loopback not resolved to device name")
	}
	if !g.HasNode("203.0.113.1") {
		t.Error("external peer missing as implicit node")
	}
	e := g.EdgesBetween("npccosr01", "203.0.113.1")[0]
	if a := e.Attrs.(topology.BGPAttrs); a.PeeringType != "eBGP" {
		t.Errorf("PeeringType = %q, want eBGP", a.PeeringType)
	}
	n, _ := g.Node("LAB-ACC-SW1")
	if n.LegacyType != "access" {
		t.Errorf("LAB-ACC-SW1 LegacyType = %q", n.LegacyType)
	}
}

func TestRunMissingDirs(t *testing.T) {
	res, err := Run(context.Background(), Options{CDPDir: filepath.Join(t.TempDir(), "nope")})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Physical.Empty() || !res.FHRP.Empty() || !res.BGP.Empty() {
		t.Errorf("expected empty datasets, got %+v", res)
	}
}

func TestWriteDir(t *testing.T) {
	res, err := Run(context.Background(), Options{
		CDPDir:    filepath.Join("testdata", "cdp"),
		ConfigDir: filepath.Join("testdata", "configs"),
	})
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "out")
	if err := res.WriteDir(dir); err != nil {
		t.Fatal(err)
	}

	for _, rel := range topology.Relations {
		d, err := graph.ReadDatasetFile(filepath.Join(dir, FileFor(rel)), rel)
		if err != nil {
			t.Fatalf("%s: %v", rel, err)
		}
		var want topology.Dataset
		switch rel {
		case topology.Physical:
			want = res.Physical
		case topology.FHRP:
			want = res.FHRP
		case topology.BGP:
			want = res.BGP
		}
		if len(d.Edges) != len(want.Edges) {
			t.Errorf("%s edges = %d, want %d", rel, len(d.Edges), len(want.Edges))
		}
		for i := range d.Edges {
			if d.Edges[i] != want.Edges[i] {
				t.Errorf("%s edge %d = %+v, want %+v", rel, i, d.Edges[i], want.Edges[i])
			}
		}
	}
}
