// Package classify turns hostnames into device identities.
//
// Hostnames follow the convention {datacenter}{position}{type}{NN}, for
// example npccosr01 = npc + co + sr + 01. A [Classifier] tries an ordered
// chain of strategies and stops at the first match:
//
//  1. full: all four segments, vocabularies taken from the registry
//  2. type_count: {type}{NN} only, for short lab names such as sr01
//  3. none: the identity is unresolved and takes the registry defaults
//
// Matching is case-insensitive and ignores surrounding whitespace.
// Classification never fails; a hostname that matches nothing still yields
// an Identity with Method() == MethodNone.
package classify

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/matzehuels/topostack/pkg/registry"
)

// Classifier classifies hostnames against one registry. It is immutable and
// safe for concurrent use.
type Classifier struct {
	reg       *registry.Registry
	full      *regexp.Regexp
	typeCount *regexp.Regexp
}

// New compiles the matching patterns for reg.
func New(reg *registry.Registry) *Classifier {
	typ := `[a-z]{2}`
	if types := reg.DeviceTypes(); len(types) > 0 {
		typ = alternation(types)
	}
	dc := alternation(reg.Datacenters())
	pos := alternation(reg.PositionCodes())

	return &Classifier{
		reg:       reg,
		full:      regexp.MustCompile(`^(` + dc + `)(` + pos + `)(` + typ + `)(\d{2})$`),
		typeCount: regexp.MustCompile(`^(` + typ + `)(\d{2})$`),
	}
}

// alternation builds a deterministic regexp alternation, longest codes
// first so that ukrc is tried before a hypothetical uk.
func alternation(codes []string) string {
	codes = slices.Clone(codes)
	slices.SortFunc(codes, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return strings.Join(lo.Map(codes, func(c string, _ int) string {
		return regexp.QuoteMeta(c)
	}), "|")
}

// Registry returns the registry the classifier was built with.
func (c *Classifier) Registry() *registry.Registry { return c.reg }

// Classify returns the identity of hostname.
func (c *Classifier) Classify(hostname string) Identity {
	clean := strings.ToLower(strings.TrimSpace(hostname))

	if m := c.full.FindStringSubmatch(clean); m != nil {
		pos := m[2]
		return Identity{
			Hostname: hostname,
			class: Class{
				Method:   MethodFull,
				Segments: Segments{Datacenter: m[1], Position: pos, DeviceType: m[3], Sequence: m[4]},
				Z:        c.reg.ZLayer(pos),
				Lane:     c.reg.Lane(pos),
			},
		}
	}

	if m := c.typeCount.FindStringSubmatch(clean); m != nil {
		return Identity{
			Hostname: hostname,
			class: Class{
				Method:   MethodTypeCount,
				Segments: Segments{DeviceType: m[1], Sequence: m[2]},
				Z:        c.reg.DefaultZ(),
				Lane:     c.reg.DefaultLane(),
			},
		}
	}

	return Identity{
		Hostname: hostname,
		class: Class{
			Method: MethodNone,
			Z:      c.reg.DefaultZ(),
			Lane:   c.reg.DefaultLane(),
		},
	}
}

// ClassifyAll classifies every hostname, keyed by the raw hostname.
func (c *Classifier) ClassifyAll(hostnames []string) map[string]Identity {
	out := make(map[string]Identity, len(hostnames))
	for _, h := range hostnames {
		out[h] = c.Classify(h)
	}
	return out
}

// LaneX returns the x coordinate of the identity's lane.
func (c *Classifier) LaneX(id Identity) float64 { return c.reg.LaneX(id.Lane()) }

// Icon returns the icon for the identity's device type.
func (c *Classifier) Icon(id Identity) registry.Icon {
	t, _ := id.DeviceType()
	return c.reg.Icon(t)
}
