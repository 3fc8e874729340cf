package topology

import (
	"fmt"
	"io"
	"maps"
	"slices"
)

// Summary is a compact statistical description of a topology, suitable for
// audit reports.
type Summary struct {
	Devices       int            `json:"devices"`
	PhysicalLinks int            `json:"physical_links"`
	FHRPPairs     int            `json:"fhrp_pairs"`
	FHRPDevices   int            `json:"fhrp_devices"`
	BGPSpeakers   int            `json:"bgp_speakers"`
	BGPPeerings   int            `json:"bgp_peerings"`
	EBGPPeerings  int            `json:"ebgp_peerings"`
	IBGPPeerings  int            `json:"ibgp_peerings"`
	DeviceTypes   map[string]int `json:"device_types"`
}

// Summarize computes the summary of g. Devices without a legacy type are
// counted under "unknown".
func Summarize(g *Graph) Summary {
	s := Summary{Devices: g.NodeCount(), DeviceTypes: map[string]int{}}

	fhrpDevices := map[string]struct{}{}
	bgpSpeakers := map[string]struct{}{}
	for _, e := range g.edges {
		switch a := e.Attrs.(type) {
		case PhysicalAttrs:
			s.PhysicalLinks++
		case FHRPAttrs:
			s.FHRPPairs++
			fhrpDevices[e.Source] = struct{}{}
			fhrpDevices[e.Target] = struct{}{}
		case BGPAttrs:
			s.BGPPeerings++
			bgpSpeakers[e.Source] = struct{}{}
			bgpSpeakers[e.Target] = struct{}{}
			switch a.PeeringType {
			case "eBGP":
				s.EBGPPeerings++
			case "iBGP":
				s.IBGPPeerings++
			}
		}
	}
	s.FHRPDevices = len(fhrpDevices)
	s.BGPSpeakers = len(bgpSpeakers)

	for _, n := range g.nodes {
		t := n.LegacyType
		if t == "" {
			t = "unknown"
		}
		s.DeviceTypes[t]++
	}
	return s
}

// WriteText prints the summary in a human readable form.
func (s Summary) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Devices:        %d\nPhysical links: %d\nFHRP pairs:     %d (%d devices)\nBGP peerings:   %d (%d eBGP, %d iBGP, %d speakers)\n",
		s.Devices, s.PhysicalLinks, s.FHRPPairs, s.FHRPDevices, s.BGPPeerings, s.EBGPPeerings, s.IBGPPeerings, s.BGPSpeakers)
	if err != nil {
		return err
	}
	for _, t := range slices.Sorted(maps.Keys(s.DeviceTypes)) {
		if _, err := fmt.Fprintf(w, "  %-14s %d\n", t, s.DeviceTypes[t]); err != nil {
			return err
		}
	}
	return nil
}
