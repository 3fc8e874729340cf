// Package partition groups devices by the datacenter encoded in their
// hostnames.
package partition

import (
	"slices"

	"github.com/samber/lo"

	"github.com/matzehuels/topostack/pkg/classify"
)

// Unknown is the reserved group for devices without a datacenter. The
// registry refuses it as a datacenter code.
const Unknown = "unknown"

// Key returns the partition key of an identity.
func Key(id classify.Identity) string {
	if dc, ok := id.Datacenter(); ok {
		return dc
	}
	return Unknown
}

// ByDatacenter classifies hostnames and groups them by datacenter. Member
// lists are sorted and duplicate-free; devices without a datacenter land
// under [Unknown].
func ByDatacenter(c *classify.Classifier, hostnames []string) map[string][]string {
	groups := lo.GroupBy(lo.Uniq(hostnames), func(h string) string {
		return Key(c.Classify(h))
	})
	for k := range groups {
		slices.Sort(groups[k])
	}
	return groups
}

// Sites returns the datacenter keys of groups in sorted order, without
// [Unknown].
func Sites(groups map[string][]string) []string {
	keys := lo.Without(lo.Keys(groups), Unknown)
	slices.Sort(keys)
	return keys
}
