// Package layout computes deterministic 3D coordinates for a topology.
//
// # Overview
//
// Every device is first classified. Its position code fixes two of the
// three coordinates:
//
//   - z, the vertical layer (internet gateways on top, customer hubs at the bottom)
//   - x, the lane, converted to a coordinate with the registry lane width
//
// Devices sharing a (z, lane) cell form a bucket. A bucket of one is placed
// at y = 0. Larger buckets are spread along y by a [SubLayout], by default
// the seeded force-directed [Spring], which only sees the edges between the
// bucket's own members.
//
// Finally HA partners (npccosr01 / npccosr02) are pushed apart on y by the
// registry HA offset so they never coincide.
//
// # Determinism
//
// For the same graph, registry and options, [Build] returns bit-identical
// coordinates. Buckets are computed in parallel but each bucket's result
// depends only on its sorted members and the seed, and results are merged
// after all workers finish.
//
// # Usage
//
//	c := classify.New(reg)
//	l, err := layout.Build(ctx, g, c, reg, layout.WithDatacenter("npc"))
//	if err != nil {
//	    return err
//	}
//	p := l.Positions["npccosr01"]
package layout
