package classify

import "encoding/json"

// Method names the strategy that produced an Identity.
type Method string

const (
	// MethodFull matched {datacenter}{position}{type}{NN}.
	MethodFull Method = "full"
	// MethodTypeCount matched {type}{NN} only.
	MethodTypeCount Method = "type_count"
	// MethodNone matched nothing; the identity is unresolved.
	MethodNone Method = "none"
)

// Segments are the parts recovered from a hostname. Datacenter and Position
// are empty for type_count matches.
type Segments struct {
	Datacenter string
	Position   string
	DeviceType string
	Sequence   string
}

// Class is the structural part of an Identity: everything except the raw
// hostname. Two spellings of one device share a Class.
type Class struct {
	Method   Method
	Segments Segments
	Z        float64
	Lane     int
}

// Identity is the classification of a single hostname. It is either
// resolved (full or type_count) or unresolved; segment accessors report
// which through their second result.
type Identity struct {
	// Hostname is the raw input, used as the node identifier.
	Hostname string
	class    Class
}

// Valid reports whether any strategy matched.
func (id Identity) Valid() bool { return id.class.Method != MethodNone && id.class.Method != "" }

// Method returns the strategy that produced the identity.
func (id Identity) Method() Method {
	if id.class.Method == "" {
		return MethodNone
	}
	return id.class.Method
}

// Class returns the structural part of the identity.
func (id Identity) Class() Class { return id.class }

// Z returns the vertical layer.
func (id Identity) Z() float64 { return id.class.Z }

// Lane returns the horizontal lane.
func (id Identity) Lane() int { return id.class.Lane }

// Segments returns the parsed segments; ok is false for unresolved identities.
func (id Identity) Segments() (s Segments, ok bool) {
	return id.class.Segments, id.Valid()
}

// Datacenter returns the datacenter code, if the hostname carried one.
func (id Identity) Datacenter() (string, bool) {
	dc := id.class.Segments.Datacenter
	return dc, dc != ""
}

// Position returns the position code, if the hostname carried one.
func (id Identity) Position() (string, bool) {
	p := id.class.Segments.Position
	return p, p != ""
}

// DeviceType returns the device-type code of a resolved identity.
func (id Identity) DeviceType() (string, bool) {
	t := id.class.Segments.DeviceType
	return t, t != ""
}

// Sequence returns the two-digit sequence of a resolved identity.
func (id Identity) Sequence() (string, bool) {
	s := id.class.Segments.Sequence
	return s, s != ""
}

type identityJSON struct {
	Hostname    string  `json:"hostname"`
	Datacenter  *string `json:"datacenter"`
	Position    *string `json:"position"`
	DeviceType  *string `json:"device_type"`
	Sequence    *string `json:"sequence"`
	Valid       bool    `json:"valid"`
	ParseMethod Method  `json:"parse_method"`
	Z           float64 `json:"z_layer"`
	Lane        int     `json:"lane"`
}

func optional(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}

// MarshalJSON renders absent segments as null.
func (id Identity) MarshalJSON() ([]byte, error) {
	dc, dcOK := id.Datacenter()
	pos, posOK := id.Position()
	typ, typOK := id.DeviceType()
	seq, seqOK := id.Sequence()
	return json.Marshal(identityJSON{
		Hostname:    id.Hostname,
		Datacenter:  optional(dc, dcOK),
		Position:    optional(pos, posOK),
		DeviceType:  optional(typ, typOK),
		Sequence:    optional(seq, seqOK),
		Valid:       id.Valid(),
		ParseMethod: id.Method(),
		Z:           id.class.Z,
		Lane:        id.class.Lane,
	})
}

// UnmarshalJSON restores an identity written by MarshalJSON.
func (id *Identity) UnmarshalJSON(data []byte) error {
	var raw identityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	method := raw.ParseMethod
	if method == "" {
		method = MethodNone
	}
	*id = Identity{
		Hostname: raw.Hostname,
		class: Class{
			Method: method,
			Segments: Segments{
				Datacenter: deref(raw.Datacenter),
				Position:   deref(raw.Position),
				DeviceType: deref(raw.DeviceType),
				Sequence:   deref(raw.Sequence),
			},
			Z:    raw.Z,
			Lane: raw.Lane,
		},
	}
	return nil
}
