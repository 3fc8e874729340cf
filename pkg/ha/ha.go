// Package ha detects high-availability pairs among classified devices.
//
// Two devices form a pair when both identities are resolved, they agree on
// datacenter, position and device type, and their sequence numbers differ:
// npccosr01 and npccosr02 are partners, npccosr01 and wpccosr02 are not.
//
// Identities are bucketed by (datacenter, position, type) first, so only
// devices that could possibly pair are compared.
package ha

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/matzehuels/topostack/pkg/classify"
)

// Pair is an unordered HA pair, normalized so that A < B.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewPair returns the normalized pair of two hostnames.
func NewPair(x, y string) Pair {
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// Contains reports whether hostname is one of the partners.
func (p Pair) Contains(hostname string) bool { return p.A == hostname || p.B == hostname }

type bucketKey struct {
	datacenter string
	position   string
	deviceType string
}

// Find classifies hostnames and returns their HA pairs. Duplicate hostnames
// are ignored.
func Find(c *classify.Classifier, hostnames []string) []Pair {
	ids := lo.Map(lo.Uniq(hostnames), func(h string, _ int) classify.Identity {
		return c.Classify(h)
	})
	return FindIdentities(ids)
}

// FindIdentities returns the HA pairs among already classified identities,
// sorted by (A, B).
func FindIdentities(ids []classify.Identity) []Pair {
	valid := lo.Filter(ids, func(id classify.Identity, _ int) bool { return id.Valid() })
	buckets := lo.GroupBy(valid, func(id classify.Identity) bucketKey {
		s, _ := id.Segments()
		return bucketKey{datacenter: s.Datacenter, position: s.Position, deviceType: s.DeviceType}
	})

	seen := make(map[Pair]struct{})
	var pairs []Pair
	for _, members := range buckets {
		for i := range members {
			for j := i + 1; j < len(members); j++ {
				a, b := members[i], members[j]
				if a.Hostname == b.Hostname || !partners(a, b) {
					continue
				}
				p := NewPair(a.Hostname, b.Hostname)
				if _, dup := seen[p]; dup {
					continue
				}
				seen[p] = struct{}{}
				pairs = append(pairs, p)
			}
		}
	}

	slices.SortFunc(pairs, func(x, y Pair) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return pairs
}

// AreHAPair reports whether two identities are HA partners.
func AreHAPair(a, b classify.Identity) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	sa, _ := a.Segments()
	sb, _ := b.Segments()
	if sa.Datacenter != sb.Datacenter || sa.Position != sb.Position || sa.DeviceType != sb.DeviceType {
		return false
	}
	return partners(a, b)
}

func partners(a, b classify.Identity) bool {
	sa, _ := a.Sequence()
	sb, _ := b.Sequence()
	return sa != sb
}

// Partners indexes pairs by hostname.
func Partners(pairs []Pair) map[string][]string {
	out := make(map[string][]string)
	for _, p := range pairs {
		out[p.A] = append(out[p.A], p.B)
		out[p.B] = append(out[p.B], p.A)
	}
	for h := range out {
		slices.Sort(out[h])
	}
	return out
}
