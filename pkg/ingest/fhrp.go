package ingest

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/matzehuels/topostack/pkg/topology"
)

// DefaultPriority is the HSRP and VRRP priority when none is configured.
const DefaultPriority = 100

var (
	interfaceRE = regexp.MustCompile(`^interface\s+(\S+)`)
	fhrpGroupRE = regexp.MustCompile(`^(standby|hsrp|vrrp)\s+(\d+)\b\s*(.*)$`)
	fhrpVIPRE   = regexp.MustCompile(`(?:^|\s)(?:ip|address)\s+(\d+\.\d+\.\d+\.\d+)`)
	fhrpPrioRE  = regexp.MustCompile(`(?:^|\s)priority\s+(\d+)`)
)

// Member is one device's participation in a redundancy group.
type Member struct {
	Device         string `json:"device"`
	Interface      string `json:"interface"`
	Protocol       string `json:"protocol"`
	Group          string `json:"group"`
	VirtualIP      string `json:"virtual_ip,omitempty"`
	Priority       int    `json:"priority"`
	Preempt        bool   `json:"preempt"`
	Authentication bool   `json:"authentication"`
}

// FHRPMembers extracts HSRP and VRRP groups from a configuration. IOS
// one-line statements (standby 10 ip ..., standby 10 priority ...) and NX-OS
// blocks (hsrp 10 / vrrp 10 with indented options) are both understood.
// Statements for the same interface, protocol and group are merged.
func FHRPMembers(cfg *Config) []Member {
	var out []Member
	for _, intf := range cfg.Top(interfaceRE) {
		name := interfaceRE.FindStringSubmatch(intf.Text)[1]
		index := map[string]int{}

		for _, child := range intf.Children {
			m := fhrpGroupRE.FindStringSubmatch(child.Text)
			if m == nil {
				continue
			}
			protocol := "HSRP"
			if m[1] == "vrrp" {
				protocol = "VRRP"
			}
			key := protocol + "/" + m[2]
			i, ok := index[key]
			if !ok {
				i = len(out)
				index[key] = i
				out = append(out, Member{
					Device:    cfg.Device,
					Interface: name,
					Protocol:  protocol,
					Group:     m[2],
					Priority:  DefaultPriority,
				})
			}
			applyFHRPOption(&out[i], m[3])
			for _, opt := range child.Children {
				applyFHRPOption(&out[i], opt.Text)
			}
		}
	}
	return out
}

func applyFHRPOption(m *Member, text string) {
	if v := submatch(fhrpVIPRE, text); v != "" {
		m.VirtualIP = v
	}
	if v := submatch(fhrpPrioRE, text); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			m.Priority = p
		}
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "preempt") {
		m.Preempt = true
	}
	if strings.Contains(lower, "authentication") {
		m.Authentication = true
	}
}

// GroupKey identifies the redundancy group a member belongs to: its virtual
// IP, or interface and group number when no address is configured.
func (m Member) GroupKey() string {
	if m.VirtualIP != "" {
		return m.VirtualIP
	}
	return fmt.Sprintf("%s_group%s", m.Interface, m.Group)
}

// FHRPDataset builds the fhrp relation. Members sharing a group key are
// ordered by priority (highest first, ties by device name) and chained:
// active to first standby, first standby to second, and so on. Groups with
// a single device produce no edges.
func FHRPDataset(members []Member) topology.Dataset {
	d := topology.Dataset{Relation: topology.FHRP}

	var order []string
	groups := map[string][]Member{}
	for _, m := range members {
		key := m.GroupKey()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], m)
	}

	for _, key := range order {
		ranked := slices.Clone(groups[key])
		slices.SortStableFunc(ranked, func(a, b Member) int {
			if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
				return c
			}
			return strings.Compare(a.Device, b.Device)
		})
		ranked = lo.UniqBy(ranked, func(m Member) string { return m.Device })
		if len(ranked) < 2 {
			continue
		}

		vip := ranked[0].VirtualIP
		for i := 0; i < len(ranked)-1; i++ {
			d.Edges = append(d.Edges, topology.Edge{
				Source: ranked[i].Device,
				Target: ranked[i+1].Device,
				Attrs: topology.FHRPAttrs{
					Protocol:        ranked[i].Protocol,
					Group:           ranked[i].Group,
					VirtualIP:       vip,
					ActivePriority:  ranked[0].Priority,
					StandbyPriority: ranked[1].Priority,
				},
			})
		}
	}
	return d
}
