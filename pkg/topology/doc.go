// Package topology provides the relation-typed multigraph that unifies
// physical adjacency, first-hop redundancy and BGP peering into a single
// network model.
//
// # Overview
//
// Three collectors each describe one kind of relationship between devices.
// [Build] merges their [Dataset] values into one [Graph]:
//
//	g, stats := topology.Build(physical, fhrp, bgp)
//
// Nodes are the union of every declared node and every edge endpoint. A
// device that only ever appears as the far end of a BGP session still
// becomes a node and will be laid out like any other.
//
// # Edges
//
// An [Edge] carries exactly one [Attributes] value, which is one of
// [PhysicalAttrs], [FHRPAttrs] or [BGPAttrs]; the concrete type determines
// the edge's [Relation]. The same device pair may be joined once per
// relation, so a physical link and a BGP session between two routers are
// two distinct edges.
//
// Edge identity is (source, target, relation). Physical and FHRP edges are
// undirected, so A–B and B–A are the same edge; BGP edges keep their
// direction (local speaker → neighbor). When a duplicate identity is added,
// the first edge wins and the duplicate is counted in [BuildStats].
//
// # Concurrency
//
// A Graph is not safe for concurrent mutation. Once built it is only read,
// and concurrent reads (as done by the layout engine) are safe.
package topology
