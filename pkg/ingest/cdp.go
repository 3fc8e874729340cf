package ingest

import (
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/topostack/pkg/topology"
)

const cdpSeparator = "-------------------------"

var (
	cdpDeviceRE   = regexp.MustCompile(`Device ID:\s*(\S+)`)
	cdpIPRE       = regexp.MustCompile(`IP address:\s*(\S+)`)
	cdpPlatformRE = regexp.MustCompile(`Platform:\s*cisco\s*([^,]+)`)
	cdpCapsRE     = regexp.MustCompile(`Capabilities:\s*(.+?)(?:\n|$)`)
	cdpLocalIntRE = regexp.MustCompile(`Interface:\s*(\S+),`)
	cdpRemoteRE   = regexp.MustCompile(`Port ID \(outgoing port\):\s*(\S+)`)
)

// Neighbor is one entry of "show cdp neighbors detail".
type Neighbor struct {
	LocalDevice     string `json:"local_device"`
	LocalInterface  string `json:"local_interface,omitempty"`
	RemoteDevice    string `json:"remote_device"`
	RemoteInterface string `json:"remote_interface,omitempty"`
	RemoteIP        string `json:"remote_ip,omitempty"`
	Platform        string `json:"platform,omitempty"`
	Capabilities    string `json:"capabilities,omitempty"`
}

// ParseCDP parses the detail output collected on device local. Entries
// without a Device ID are ignored.
func ParseCDP(local string, r io.Reader) ([]Neighbor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var out []Neighbor
	for _, block := range strings.Split(string(data), cdpSeparator) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		n := Neighbor{LocalDevice: local}
		n.RemoteDevice = submatch(cdpDeviceRE, block)
		if n.RemoteDevice == "" {
			continue
		}
		n.RemoteIP = submatch(cdpIPRE, block)
		n.Platform = strings.TrimSpace(submatch(cdpPlatformRE, block))
		n.Capabilities = strings.TrimSpace(submatch(cdpCapsRE, block))
		n.LocalInterface = submatch(cdpLocalIntRE, block)
		n.RemoteInterface = submatch(cdpRemoteRE, block)
		out = append(out, n)
	}
	return out, nil
}

// CDPDataset turns neighbor entries into the physical relation. A link seen
// from both ends is kept once, keyed on the sorted device:interface pair.
// Node legacy types are inferred from the device names.
func CDPDataset(neighbors []Neighbor) topology.Dataset {
	d := topology.Dataset{Relation: topology.Physical}
	seenLink := map[[2]string]bool{}
	seenNode := map[string]bool{}
	addNode := func(name string) {
		if seenNode[name] {
			return
		}
		seenNode[name] = true
		d.Nodes = append(d.Nodes, topology.Node{ID: name, LegacyType: LegacyType(name)})
	}

	for _, n := range neighbors {
		ends := []string{n.LocalDevice + ":" + n.LocalInterface, n.RemoteDevice + ":" + n.RemoteInterface}
		slices.Sort(ends)
		key := [2]string{ends[0], ends[1]}
		if seenLink[key] {
			continue
		}
		seenLink[key] = true

		d.Edges = append(d.Edges, topology.Edge{
			Source: n.LocalDevice,
			Target: n.RemoteDevice,
			Attrs: topology.PhysicalAttrs{
				SourceInterface: n.LocalInterface,
				TargetInterface: n.RemoteInterface,
			},
		})
		addNode(n.LocalDevice)
		addNode(n.RemoteDevice)
	}
	return d
}

// LegacyType infers a coarse device role from naming keywords. It returns
// "" when no keyword matches.
func LegacyType(name string) string {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "CORE"):
		return "core"
	case strings.Contains(upper, "DIST"):
		return "distribution"
	case strings.Contains(upper, "ACC"):
		return "access"
	case strings.Contains(upper, "EDGE"), strings.Contains(upper, "RTR"):
		return "router"
	}
	return ""
}

func submatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
