package topology

import (
	"fmt"
	"strings"
)

// Relation is the kind of relationship an edge represents.
type Relation string

const (
	Physical Relation = "physical"
	FHRP     Relation = "fhrp"
	BGP      Relation = "bgp"
)

// Relations lists every relation in canonical order.
var Relations = []Relation{Physical, FHRP, BGP}

// Directed reports whether edge direction is part of the relation's identity.
func (r Relation) Directed() bool { return r == BGP }

// ParseRelation accepts a relation name. The protocol names hsrp and vrrp
// are accepted as aliases of fhrp.
func ParseRelation(s string) (Relation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "physical", "cdp", "lldp":
		return Physical, nil
	case "fhrp", "hsrp", "vrrp":
		return FHRP, nil
	case "bgp":
		return BGP, nil
	}
	return "", fmt.Errorf("unknown relation %q", s)
}

// Attributes are the relation-specific properties of an edge. The set of
// implementations is closed: PhysicalAttrs, FHRPAttrs and BGPAttrs.
type Attributes interface {
	Relation() Relation
	isAttributes()
}

// PhysicalAttrs describes a cabled adjacency seen by CDP or LLDP.
type PhysicalAttrs struct {
	SourceInterface string `json:"source_interface,omitempty"`
	TargetInterface string `json:"target_interface,omitempty"`
}

// FHRPAttrs describes membership of two devices in one redundancy group.
type FHRPAttrs struct {
	Protocol        string `json:"protocol,omitempty"`
	Group           string `json:"group,omitempty"`
	VirtualIP       string `json:"virtual_ip,omitempty"`
	ActivePriority  int    `json:"active_priority,omitempty"`
	StandbyPriority int    `json:"standby_priority,omitempty"`
}

// BGPAttrs describes one configured BGP session.
type BGPAttrs struct {
	PeeringType string `json:"peering_type,omitempty"`
	LocalAS     string `json:"local_as,omitempty"`
	RemoteAS    string `json:"remote_as,omitempty"`
	NeighborIP  string `json:"neighbor_ip,omitempty"`
	Description string `json:"description,omitempty"`
}

func (PhysicalAttrs) Relation() Relation { return Physical }
func (FHRPAttrs) Relation() Relation     { return FHRP }
func (BGPAttrs) Relation() Relation      { return BGP }

func (PhysicalAttrs) isAttributes() {}
func (FHRPAttrs) isAttributes()     {}
func (BGPAttrs) isAttributes()      {}

// PeeringType returns eBGP when the autonomous systems differ, else iBGP.
func PeeringType(localAS, remoteAS string) string {
	if localAS != remoteAS {
		return "eBGP"
	}
	return "iBGP"
}

// Edge connects two devices under one relation.
type Edge struct {
	Source string
	Target string
	Attrs  Attributes
}

// Relation returns the relation implied by the edge attributes.
func (e Edge) Relation() Relation {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs.Relation()
}

// EdgeKey is the identity of an edge inside a Graph.
type EdgeKey struct {
	Source   string
	Target   string
	Relation Relation
}

// Key returns the identity of e. Endpoints of undirected relations are
// ordered so that A–B and B–A share a key.
func (e Edge) Key() EdgeKey {
	rel := e.Relation()
	src, dst := e.Source, e.Target
	if !rel.Directed() && dst < src {
		src, dst = dst, src
	}
	return EdgeKey{Source: src, Target: dst, Relation: rel}
}

// Other returns the endpoint of e opposite to id.
func (e Edge) Other(id string) string {
	if e.Source == id {
		return e.Target
	}
	return e.Source
}
