package ingest

import (
	"net/netip"
	"regexp"
	"strings"

	"github.com/matzehuels/topostack/pkg/topology"
)

var (
	routerBGPRE   = regexp.MustCompile(`^router bgp\s+(\d+(?:\.\d+)?)`)
	neighborRE    = regexp.MustCompile(`^neighbor\s+(\S+)(?:\s+(.*))?$`)
	templateRE    = regexp.MustCompile(`^template peer\s+(\S+)`)
	remoteASRE    = regexp.MustCompile(`^remote-as\s+(\d+(?:\.\d+)?)`)
	descriptionRE = regexp.MustCompile(`^description\s+(.+)$`)
	inheritRE     = regexp.MustCompile(`^(?:inherit peer|peer-group)\s+(\S+)`)
	loopbackRE    = regexp.MustCompile(`(?i)^interface\s+loopback0$`)
	ipAddressRE   = regexp.MustCompile(`^ip address\s+(\S+)`)
)

// Peer is one configured BGP neighbor.
type Peer struct {
	Device      string `json:"device"`
	LocalAS     string `json:"local_as"`
	NeighborIP  string `json:"neighbor_ip"`
	RemoteAS    string `json:"remote_as"`
	Description string `json:"description,omitempty"`
	Template    string `json:"template,omitempty"`
}

// Loopback returns the address of interface Loopback0, without prefix
// length.
func Loopback(cfg *Config) (string, bool) {
	for _, intf := range cfg.Top(loopbackRE) {
		for _, child := range intf.Children {
			if v := submatch(ipAddressRE, child.Text); v != "" {
				addr, _, _ := strings.Cut(v, "/")
				return addr, true
			}
		}
	}
	return "", false
}

// BGPPeers extracts the neighbors of the first "router bgp" block. IOS
// one-line statements, NX-OS neighbor blocks, NX-OS peer templates and IOS
// peer groups are understood; options set on the neighbor itself override
// inherited ones. Neighbors without a remote AS are dropped, as are peer
// group and template names.
func BGPPeers(cfg *Config) []Peer {
	routers := cfg.Top(routerBGPRE)
	if len(routers) == 0 {
		return nil
	}
	router := routers[0]
	localAS := submatch(routerBGPRE, router.Text)

	templates := map[string]*Peer{}
	router.Walk(func(l *Line) {
		name := submatch(templateRE, l.Text)
		if name == "" {
			return
		}
		t := &Peer{}
		for _, c := range l.Children {
			applyNeighborOption(t, c.Text)
		}
		templates[name] = t
	})

	var order []string
	peers := map[string]*Peer{}
	router.Walk(func(l *Line) {
		m := neighborRE.FindStringSubmatch(l.Text)
		if m == nil {
			return
		}
		p, ok := peers[m[1]]
		if !ok {
			p = &Peer{Device: cfg.Device, LocalAS: localAS, NeighborIP: m[1]}
			peers[m[1]] = p
			order = append(order, m[1])
		}
		applyNeighborOption(p, m[2])
		for _, c := range l.Children {
			applyNeighborOption(p, c.Text)
		}
	})

	// IOS peer groups are declared as neighbors with a name instead of an
	// address.
	for name, p := range peers {
		if _, err := netip.ParseAddr(name); err != nil {
			templates[name] = p
		}
	}

	var out []Peer
	for _, ip := range order {
		if _, err := netip.ParseAddr(ip); err != nil {
			continue
		}
		p := *peers[ip]
		if t, ok := templates[p.Template]; ok && p.Template != "" {
			if p.RemoteAS == "" {
				p.RemoteAS = t.RemoteAS
			}
			if p.Description == "" {
				p.Description = t.Description
			}
		}
		if p.RemoteAS == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func applyNeighborOption(p *Peer, text string) {
	text = strings.TrimSpace(text)
	if v := submatch(remoteASRE, text); v != "" {
		p.RemoteAS = v
	}
	if v := submatch(descriptionRE, text); v != "" {
		p.Description = strings.TrimSpace(v)
	}
	if v := submatch(inheritRE, text); v != "" {
		p.Template = v
	}
}

// BGPDataset builds the bgp relation from a set of device configurations.
// Neighbor addresses that match another device's Loopback0 are replaced by
// that device's name; others stay as the raw address and become implicit
// nodes. Each (device, neighbor address) session is kept once.
func BGPDataset(configs []*Config) topology.Dataset {
	d := topology.Dataset{Relation: topology.BGP}

	loopbacks := map[string]string{}
	for _, cfg := range configs {
		if ip, ok := Loopback(cfg); ok {
			if _, taken := loopbacks[ip]; !taken {
				loopbacks[ip] = cfg.Device
			}
		}
	}

	seen := map[[2]string]bool{}
	for _, cfg := range configs {
		for _, p := range BGPPeers(cfg) {
			key := [2]string{p.Device, p.NeighborIP}
			if seen[key] {
				continue
			}
			seen[key] = true

			target := p.NeighborIP
			if dev, ok := loopbacks[p.NeighborIP]; ok {
				target = dev
			}
			d.Edges = append(d.Edges, topology.Edge{
				Source: p.Device,
				Target: target,
				Attrs: topology.BGPAttrs{
					PeeringType: topology.PeeringType(p.LocalAS, p.RemoteAS),
					LocalAS:     p.LocalAS,
					RemoteAS:    p.RemoteAS,
					NeighborIP:  p.NeighborIP,
					Description: p.Description,
				},
			})
		}
	}
	return d
}
