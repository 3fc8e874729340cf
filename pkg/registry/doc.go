// Package registry holds the position registry: the immutable vocabulary and
// geometry that every other package consults when it turns a hostname into a
// place in 3D space.
//
// # Overview
//
// A [Registry] answers four questions:
//
//   - Which datacenter, position and device-type codes exist?
//   - Which vertical layer (z) and horizontal lane does a position occupy?
//   - Which icon represents a device type?
//   - Which tunables drive the layout (lane width, spring parameters, HA offset)?
//
// Registries are built once at startup with [New], [Load] or [Default] and are
// read-only afterwards, so a single value can be shared across goroutines.
//
// # Validation
//
// Construction is all-or-nothing. A position without a z layer or lane, a
// lane outside [LaneMin, LaneMax], or a malformed code aborts with an
// INVALID_CONFIG error wrapping one of the sentinel errors below. A process
// must not start with a broken registry.
//
// # File Formats
//
// [Load] picks the decoder from the file extension:
//
//	.toml        BurntSushi/toml
//	.yaml, .yml  gopkg.in/yaml.v3
//	.json        encoding/json
//
// A minimal TOML registry:
//
//	datacenters = ["npc", "wpc"]
//
//	[lanes]
//	min = -10
//	max = 10
//	width = 2.0
//
//	[positions.co]
//	name = "Core"
//	z = 3.5
//	lane = 0
//
//	[types.sr]
//	symbol = "diamond"
//	size = 12
//	color = "#FF6B6B"
//	description = "Switch Router"
package registry
