// Package ingest turns collected device output into relation datasets.
//
// Three relations are produced, each from a different source:
//
//	physical  show cdp neighbors detail, one <device>_cdp.txt per device
//	fhrp      HSRP / VRRP groups in running configs (IOS and NX-OS syntax)
//	bgp       router bgp neighbors in running configs, resolved via Loopback0
//
// [Run] walks the input directories and returns all three datasets;
// [Result.WriteDir] stores them under the names the layout pipeline reads
// by default ([PhysicalFile], [FHRPFile], [BGPFile]).
//
// Parsing is lenient: lines that are not understood are ignored and a file
// that yields nothing simply contributes no records.
package ingest
