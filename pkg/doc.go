// Package pkg provides the core libraries of topostack.
//
// # Overview
//
// Topostack places the devices of a network in a stacked 3D view: layers
// (z) come from the device role, lanes (x) from its position in the
// registry, and depth (y) from a seeded spring layout inside each bucket of
// devices sharing a layer and lane. The libraries are organized by stage:
//
//	raw captures (CDP, running configs)
//	         ↓
//	    [ingest]         relation datasets (physical, fhrp, bgp)
//	         ↓
//	    [topology]       one merged multigraph
//	         ↓
//	    [classify]       hostname → datacenter, position, layer, lane
//	         ↓
//	    [layout]         coordinates, HA pairs, buckets
//	         ↓
//	    [graph]          JSON documents    [render/nodelink]  DOT, SVG, PNG
//
// [pipeline] runs these stages with caching and is shared by the CLI and
// the HTTP server.
//
// # Main Packages
//
// [registry] - The position registry: datacenters, positions with their
// layer and lane, device type icons and link styles. Loaded from TOML, YAML
// or JSON and validated before use.
//
// [classify] - Hostname classification with a full
// {datacenter}{position}{type}{NN} pattern and a {type}{NN} fallback.
//
// [partition] and [ha] - Datacenter grouping and HA pair detection.
//
// [cache] - File, Redis and null caches with content-addressed keys.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hooks for metrics and tracing; the server installs a
// Prometheus implementation.
//
// [ingest]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/ingest
// [topology]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/topology
// [classify]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/classify
// [layout]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/layout
// [graph]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/graph
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/pipeline
// [registry]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/registry
// [partition]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/partition
// [ha]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/ha
// [cache]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/topostack/pkg/observability
package pkg
