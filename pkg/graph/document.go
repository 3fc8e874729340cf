package graph

import (
	"encoding/json"
	"os"
	"slices"

	"github.com/matzehuels/topostack/pkg/classify"
	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/ha"
	"github.com/matzehuels/topostack/pkg/layout"
	"github.com/matzehuels/topostack/pkg/registry"
	"github.com/matzehuels/topostack/pkg/topology"
)

// =============================================================================
// Document - Positioned Topology View
// =============================================================================

// Document is the output format for one view of the topology: every device
// with its identity, icon and coordinates, the typed edges between them, the
// HA pairs and summary statistics.
type Document struct {
	ID         string           `json:"id,omitempty"`
	Datacenter string           `json:"datacenter,omitempty"`
	Nodes      []DocumentNode   `json:"nodes"`
	Edges      []Edge           `json:"edges"`
	HAPairs    []ha.Pair        `json:"ha_pairs"`
	Buckets    []layout.Bucket  `json:"buckets,omitempty"`
	Summary    topology.Summary `json:"summary"`
}

// DocumentNode is a positioned device.
type DocumentNode struct {
	ID           string            `json:"id"`
	PositionName string            `json:"position_name,omitempty"`
	LegacyType   string            `json:"legacy_type,omitempty"`
	LegacyZ      bool              `json:"legacy_z,omitempty"`
	Identity     classify.Identity `json:"identity"`
	Icon         registry.Icon     `json:"icon"`
	layout.Point
}

// NewDocument assembles the document for layout l of g. Only nodes
// positioned by l and edges between them are included.
func NewDocument(g *topology.Graph, l layout.Layout, reg *registry.Registry) Document {
	ids := make([]string, 0, len(l.Positions))
	for id := range l.Positions {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	view := topology.New()
	if g != nil {
		view = g.Induced(ids)
	}

	doc := Document{
		Datacenter: l.Datacenter,
		Nodes:      make([]DocumentNode, 0, len(ids)),
		Edges:      make([]Edge, 0, view.EdgeCount()),
		HAPairs:    l.HAPairs,
		Buckets:    l.Buckets,
		Summary:    topology.Summarize(view),
	}
	if doc.HAPairs == nil {
		doc.HAPairs = []ha.Pair{}
	}

	for _, id := range ids {
		p := l.Placements[id]
		n := DocumentNode{
			ID:       id,
			LegacyZ:  p.Legacy,
			Identity: p.Identity,
			Point:    l.Positions[id],
		}
		if node, ok := view.Node(id); ok {
			n.LegacyType = node.LegacyType
		}
		if pos, ok := p.Identity.Position(); ok {
			n.PositionName = reg.DisplayName(pos)
		}
		typ, _ := p.Identity.DeviceType()
		n.Icon = reg.Icon(typ)
		doc.Nodes = append(doc.Nodes, n)
	}
	for _, e := range view.Edges() {
		doc.Edges = append(doc.Edges, FromEdge(e))
	}
	return doc
}

// Node returns the node with the given ID.
func (d Document) Node(id string) (DocumentNode, bool) {
	i := slices.IndexFunc(d.Nodes, func(n DocumentNode) bool { return n.ID == id })
	if i < 0 {
		return DocumentNode{}, false
	}
	return d.Nodes[i], true
}

// Positions returns the coordinates of every node.
func (d Document) Positions() layout.Result {
	out := make(layout.Result, len(d.Nodes))
	for _, n := range d.Nodes {
		out[n.ID] = n.Point
	}
	return out
}

// Graph rebuilds the topology graph described by d.
func (d Document) Graph() *topology.Graph {
	g := topology.New()
	for _, n := range d.Nodes {
		g.AddNode(topology.Node{ID: n.ID, LegacyType: n.LegacyType})
	}
	for _, e := range d.Edges {
		g.AddEdge(e.Topology(""))
	}
	return g
}

// Layout rebuilds the layout described by d. Placements carry the
// identities and legacy flags; buckets and HA pairs are copied.
func (d Document) Layout() layout.Layout {
	l := layout.Layout{
		Datacenter: d.Datacenter,
		Positions:  d.Positions(),
		Placements: make(map[string]layout.Placement, len(d.Nodes)),
		Buckets:    d.Buckets,
		HAPairs:    d.HAPairs,
	}
	for _, n := range d.Nodes {
		l.Placements[n.ID] = layout.Placement{
			Identity: n.Identity,
			Z:        n.Z,
			Lane:     n.Identity.Lane(),
			Legacy:   n.LegacyZ,
		}
	}
	return l
}

// =============================================================================
// Document Serialization API
// =============================================================================

// MarshalDocument serializes d to indented JSON.
func MarshalDocument(d Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// UnmarshalDocument decodes a document and checks that every edge connects
// two listed nodes.
func UnmarshalDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, errs.Wrap(errs.ErrCodeInvalidDataset, err, "unmarshal document")
	}
	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			return Document{}, errs.New(errs.ErrCodeInvalidDataset, "document node without id")
		}
		if seen[n.ID] {
			return Document{}, errs.New(errs.ErrCodeInvalidDataset, "duplicate document node %q", n.ID)
		}
		seen[n.ID] = true
	}
	for _, e := range d.Edges {
		if !seen[e.Source] || !seen[e.Target] {
			return Document{}, errs.New(errs.ErrCodeInvalidDataset, "edge %s-%s references unknown node", e.Source, e.Target)
		}
	}
	return d, nil
}

// WriteDocumentFile writes d to path.
func WriteDocumentFile(d Document, path string) error {
	data, err := MarshalDocument(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadDocumentFile reads a document from path.
func ReadDocumentFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "document %s", path)
		}
		return Document{}, errs.Wrap(errs.ErrCodeInvalidPath, err, "read %s", path)
	}
	return UnmarshalDocument(data)
}
