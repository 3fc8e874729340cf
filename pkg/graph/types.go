package graph

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/matzehuels/topostack/pkg/topology"
)

// =============================================================================
// Dataset - Relation Records
// =============================================================================

// Dataset is the wire form of one relation file as written by the ingest
// stage (cdp_topology.json, hsrp_topology.json, bgp_topology.json). Extra
// keys such as "groups", "peers" or "neighbor_details" are ignored.
type Dataset struct {
	Nodes []Node `json:"nodes,omitempty"`
	Edges []Edge `json:"edges"`
}

// Node is a device record. It decodes from either {"name", "type"} or a
// bare hostname string.
type Node struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// UnmarshalJSON accepts an object or a bare string.
func (n *Node) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &n.Name)
	}
	type plain Node
	return json.Unmarshal(data, (*plain)(n))
}

// =============================================================================
// Edge - Flat Relation Record
// =============================================================================

// Edge is a flat edge record. Relation-specific fields are optional; which
// ones apply is decided by LinkType, or by the relation of the file the
// record came from when LinkType is empty.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	LinkType string `json:"link_type,omitempty"`

	// physical
	SourceInterface string `json:"source_interface,omitempty"`
	TargetInterface string `json:"target_interface,omitempty"`

	// fhrp
	Protocol        string `json:"protocol,omitempty"`
	Group           Text   `json:"group,omitempty"`
	GroupID         Text   `json:"group_id,omitempty"`
	VirtualIP       string `json:"virtual_ip,omitempty"`
	VIP             string `json:"vip,omitempty"`
	ActivePriority  int    `json:"active_priority,omitempty"`
	StandbyPriority int    `json:"standby_priority,omitempty"`

	// bgp
	PeeringType string `json:"peering_type,omitempty"`
	LocalAS     Text   `json:"local_as,omitempty"`
	RemoteAS    Text   `json:"remote_as,omitempty"`
	NeighborIP  string `json:"neighbor_ip,omitempty"`
	Description string `json:"description,omitempty"`
}

// Text is a string that also decodes from a JSON number, so AS numbers and
// group IDs may be written either way.
type Text string

// UnmarshalJSON accepts a string, a number or null.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

// relation resolves the relation of e. ok is false when LinkType names no
// known relation.
func (e Edge) relation(fallback topology.Relation) (topology.Relation, bool) {
	if e.LinkType == "" {
		return fallback, fallback != ""
	}
	rel, err := topology.ParseRelation(e.LinkType)
	return rel, err == nil
}

// Topology converts the record into a graph edge. Records whose relation
// cannot be determined get nil attributes and are skipped by the builder.
func (e Edge) Topology(fallback topology.Relation) topology.Edge {
	out := topology.Edge{Source: strings.TrimSpace(e.Source), Target: strings.TrimSpace(e.Target)}
	rel, ok := e.relation(fallback)
	if !ok {
		return out
	}
	switch rel {
	case topology.Physical:
		out.Attrs = topology.PhysicalAttrs{
			SourceInterface: e.SourceInterface,
			TargetInterface: e.TargetInterface,
		}
	case topology.FHRP:
		out.Attrs = topology.FHRPAttrs{
			Protocol:        e.protocol(),
			Group:           string(firstText(e.Group, e.GroupID)),
			VirtualIP:       firstNonEmpty(e.VirtualIP, e.VIP),
			ActivePriority:  e.ActivePriority,
			StandbyPriority: e.StandbyPriority,
		}
	case topology.BGP:
		peering := e.PeeringType
		if peering == "" && e.LocalAS != "" && e.RemoteAS != "" {
			peering = topology.PeeringType(string(e.LocalAS), string(e.RemoteAS))
		}
		out.Attrs = topology.BGPAttrs{
			PeeringType: peering,
			LocalAS:     string(e.LocalAS),
			RemoteAS:    string(e.RemoteAS),
			NeighborIP:  e.NeighborIP,
			Description: e.Description,
		}
	}
	return out
}

func (e Edge) protocol() string {
	if e.Protocol != "" {
		return strings.ToUpper(e.Protocol)
	}
	switch strings.ToLower(e.LinkType) {
	case "hsrp", "vrrp":
		return strings.ToUpper(e.LinkType)
	}
	return ""
}

// FromEdge flattens a graph edge into a record with LinkType set.
func FromEdge(e topology.Edge) Edge {
	out := Edge{Source: e.Source, Target: e.Target, LinkType: string(e.Relation())}
	switch a := e.Attrs.(type) {
	case topology.PhysicalAttrs:
		out.SourceInterface = a.SourceInterface
		out.TargetInterface = a.TargetInterface
	case topology.FHRPAttrs:
		out.Protocol = a.Protocol
		out.Group = Text(a.Group)
		out.VirtualIP = a.VirtualIP
		out.ActivePriority = a.ActivePriority
		out.StandbyPriority = a.StandbyPriority
	case topology.BGPAttrs:
		out.PeeringType = a.PeeringType
		out.LocalAS = Text(a.LocalAS)
		out.RemoteAS = Text(a.RemoteAS)
		out.NeighborIP = a.NeighborIP
		out.Description = a.Description
	}
	return out
}

// =============================================================================
// Dataset ↔ topology.Dataset Conversion
// =============================================================================

// Topology converts d to a builder dataset for relation rel. The legacy
// type "unknown" is treated as absent.
func (d Dataset) Topology(rel topology.Relation) topology.Dataset {
	out := topology.Dataset{
		Relation: rel,
		Nodes:    make([]topology.Node, 0, len(d.Nodes)),
		Edges:    make([]topology.Edge, 0, len(d.Edges)),
	}
	for _, n := range d.Nodes {
		t := n.Type
		if strings.EqualFold(t, "unknown") {
			t = ""
		}
		out.Nodes = append(out.Nodes, topology.Node{ID: strings.TrimSpace(n.Name), LegacyType: t})
	}
	for _, e := range d.Edges {
		out.Edges = append(out.Edges, e.Topology(rel))
	}
	return out
}

// FromTopology converts a builder dataset to its wire form.
func FromTopology(d topology.Dataset) Dataset {
	out := Dataset{
		Nodes: make([]Node, 0, len(d.Nodes)),
		Edges: make([]Edge, 0, len(d.Edges)),
	}
	for _, n := range d.Nodes {
		out.Nodes = append(out.Nodes, Node{Name: n.ID, Type: n.LegacyType})
	}
	for _, e := range d.Edges {
		out.Edges = append(out.Edges, FromEdge(e))
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstText(vals ...Text) Text {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
