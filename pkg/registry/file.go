package registry

// File is the serialized form of a registry. It is what [Load] decodes and
// what [Registry.File] returns for export. Optional sections left out of a
// file are filled by [File.SetDefaults].
type File struct {
	Datacenters []string                `toml:"datacenters" yaml:"datacenters" json:"datacenters" validate:"required,min=1,unique,dive,required,lowercase,alphanum,ne=unknown"`
	Lanes       LaneSpec                `toml:"lanes" yaml:"lanes" json:"lanes"`
	Defaults    DefaultSpec             `toml:"defaults" yaml:"defaults" json:"defaults"`
	Positions   map[string]PositionSpec `toml:"positions" yaml:"positions" json:"positions" validate:"required,min=1,dive,keys,required,lowercase,alphanum,endkeys"`
	Types       map[string]Icon         `toml:"types" yaml:"types" json:"types,omitempty" validate:"dive,keys,required,lowercase,alphanum,endkeys"`
	DefaultIcon *Icon                   `toml:"default_icon" yaml:"default_icon" json:"default_icon,omitempty"`
	Legacy      map[string]float64      `toml:"legacy" yaml:"legacy" json:"legacy,omitempty" validate:"dive,keys,required,lowercase,endkeys"`
	Links       map[string]LinkStyle    `toml:"links" yaml:"links" json:"links,omitempty" validate:"dive,keys,required,endkeys"`
	Spring      SpringSpec              `toml:"spring" yaml:"spring" json:"spring"`
	HA          HASpec                  `toml:"ha" yaml:"ha" json:"ha"`
}

// LaneSpec bounds the horizontal lane axis.
type LaneSpec struct {
	Min   int     `toml:"min" yaml:"min" json:"min"`
	Max   int     `toml:"max" yaml:"max" json:"max"`
	Width float64 `toml:"width" yaml:"width" json:"width" validate:"gt=0"`
}

// DefaultSpec is the placement of devices whose position is unknown.
type DefaultSpec struct {
	Z    *float64 `toml:"z" yaml:"z" json:"z,omitempty"`
	Lane *int     `toml:"lane" yaml:"lane" json:"lane,omitempty"`
}

// PositionSpec declares one position code. Z and Lane are pointers so a
// missing key can be told apart from an explicit zero.
type PositionSpec struct {
	Name string   `toml:"name" yaml:"name" json:"name,omitempty"`
	Z    *float64 `toml:"z" yaml:"z" json:"z"`
	Lane *int     `toml:"lane" yaml:"lane" json:"lane"`
}

// SpringSpec tunes the force-directed sub-layout.
type SpringSpec struct {
	K          float64 `toml:"k" yaml:"k" json:"k" validate:"gt=0"`
	Iterations int     `toml:"iterations" yaml:"iterations" json:"iterations" validate:"gte=1,lte=10000"`
	Seed       *uint64 `toml:"seed" yaml:"seed" json:"seed,omitempty"`
	Spread     float64 `toml:"spread" yaml:"spread" json:"spread" validate:"gte=0"`
}

// HASpec controls high-availability pair handling.
type HASpec struct {
	Enabled *bool    `toml:"enabled" yaml:"enabled" json:"enabled,omitempty"`
	Offset  *float64 `toml:"offset" yaml:"offset" json:"offset,omitempty" validate:"omitempty,gte=0"`
}

// Icon is the visual representation of a device type.
type Icon struct {
	Symbol      string `toml:"symbol" yaml:"symbol" json:"symbol" validate:"required"`
	Size        int    `toml:"size" yaml:"size" json:"size" validate:"gt=0"`
	Color       string `toml:"color" yaml:"color" json:"color" validate:"omitempty,hexcolor"`
	Description string `toml:"description" yaml:"description" json:"description"`
}

// LinkStyle is the drawing style of one relation.
type LinkStyle struct {
	Color string `toml:"color" yaml:"color" json:"color" validate:"omitempty,hexcolor"`
	Width int    `toml:"width" yaml:"width" json:"width" validate:"gte=0"`
	Dash  string `toml:"dash" yaml:"dash" json:"dash" validate:"omitempty,oneof=solid dash dot"`
}

// SetDefaults fills optional sections that a file left empty.
func (f *File) SetDefaults() {
	d := DefaultFile()
	if f.Lanes == (LaneSpec{}) {
		f.Lanes = d.Lanes
	}
	if f.Lanes.Width == 0 {
		f.Lanes.Width = d.Lanes.Width
	}
	if f.Defaults.Z == nil {
		f.Defaults.Z = d.Defaults.Z
	}
	if f.Defaults.Lane == nil {
		f.Defaults.Lane = d.Defaults.Lane
	}
	if f.DefaultIcon == nil {
		f.DefaultIcon = d.DefaultIcon
	}
	if f.Legacy == nil {
		f.Legacy = d.Legacy
	}
	if f.Links == nil {
		f.Links = d.Links
	}
	if f.Spring.K == 0 {
		f.Spring.K = d.Spring.K
	}
	if f.Spring.Iterations == 0 {
		f.Spring.Iterations = d.Spring.Iterations
	}
	if f.Spring.Seed == nil {
		f.Spring.Seed = d.Spring.Seed
	}
	if f.Spring.Spread == 0 {
		f.Spring.Spread = d.Spring.Spread
	}
	if f.HA.Enabled == nil {
		f.HA.Enabled = d.HA.Enabled
	}
	if f.HA.Offset == nil {
		f.HA.Offset = d.HA.Offset
	}
}

// DefaultFile returns the built-in registry definition.
func DefaultFile() File {
	return File{
		Datacenters: []string{"npc", "wpc", "apc", "apd", "ukrc", "ukpc", "ch2", "va1", "ma5", "ld5"},
		Lanes:       LaneSpec{Min: -10, Max: 10, Width: 2.0},
		Defaults:    DefaultSpec{Z: ptr(1.5), Lane: ptr(0)},
		Positions: map[string]PositionSpec{
			"igw": {Name: "Internet Gateway", Z: ptr(5.0), Lane: ptr(0)},
			"pub": {Name: "Public DMZ", Z: ptr(4.5), Lane: ptr(2)},
			"co":  {Name: "Core", Z: ptr(3.5), Lane: ptr(0)},
			"dc":  {Name: "Data Center Core", Z: ptr(3.0), Lane: ptr(-2)},
			"di":  {Name: "Distribution", Z: ptr(2.5), Lane: ptr(0)},
			"lb":  {Name: "Load Balancer", Z: ptr(2.0), Lane: ptr(-3)},
			"acc": {Name: "Access", Z: ptr(1.5), Lane: ptr(0)},
			"wd":  {Name: "Workstation Distribution", Z: ptr(1.0), Lane: ptr(-5)},
			"prv": {Name: "Private", Z: ptr(0.5), Lane: ptr(5)},
			"csh": {Name: "Customer Hub", Z: ptr(0.0), Lane: ptr(8)},
		},
		Types: map[string]Icon{
			"sr": {Symbol: "diamond", Size: 12, Color: "#FF6B6B", Description: "Switch Router"},
			"sw": {Symbol: "square", Size: 10, Color: "#4ECDC4", Description: "Switch"},
			"fw": {Symbol: "diamond-open", Size: 14, Color: "#FFD93D", Description: "Firewall"},
			"lb": {Symbol: "circle", Size: 11, Color: "#95E1D3", Description: "Load Balancer"},
		},
		DefaultIcon: &Icon{Symbol: "circle", Size: 8, Color: "#AAAAAA", Description: "Unknown Device"},
		Legacy: map[string]float64{
			"router":       4.0,
			"core":         3.5,
			"distribution": 2.5,
			"access":       1.5,
		},
		Links: map[string]LinkStyle{
			"physical": {Color: "#CCCCCC", Width: 2, Dash: "solid"},
			"fhrp":     {Color: "#FF6B6B", Width: 4, Dash: "dash"},
			"bgp":      {Color: "#4ECDC4", Width: 3, Dash: "solid"},
			"ha":       {Color: "#FF6B6B", Width: 2, Dash: "dash"},
		},
		Spring: SpringSpec{K: 2.0, Iterations: 100, Seed: ptr(uint64(42)), Spread: 3.0},
		HA:     HASpec{Enabled: ptr(true), Offset: ptr(0.3)},
	}
}

func ptr[T any](v T) *T { return &v }
