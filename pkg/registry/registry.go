package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	errs "github.com/matzehuels/topostack/pkg/errors"
)

var (
	// ErrMissingZ is returned when a position declares no z layer.
	ErrMissingZ = errors.New("position has no z layer")
	// ErrMissingLane is returned when a position declares no lane.
	ErrMissingLane = errors.New("position has no lane")
	// ErrLaneOutOfRange is returned when a lane falls outside the lane bounds.
	ErrLaneOutOfRange = errors.New("lane out of range")
	// ErrInvalidBounds is returned when the lane minimum exceeds the maximum.
	ErrInvalidBounds = errors.New("lane minimum exceeds maximum")
	// ErrUnknownFormat is returned by Load for unsupported file extensions.
	ErrUnknownFormat = errors.New("unknown registry format")
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Position is a resolved position profile.
type Position struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Z    float64 `json:"z"`
	Lane int     `json:"lane"`
}

// Spring holds the resolved sub-layout tunables.
type Spring struct {
	K          float64
	Iterations int
	Seed       uint64
	Spread     float64
}

// Registry is an immutable, validated position registry. The zero value is
// not usable; build one with [New], [Load] or [Default].
type Registry struct {
	file        File
	datacenters []string
	positions   map[string]Position
	types       map[string]Icon
	defaultIcon Icon
	legacy      map[string]float64
	links       map[string]LinkStyle
	laneMin     int
	laneMax     int
	laneWidth   float64
	defaultZ    float64
	defaultLane int
	spring      Spring
	haEnabled   bool
	haOffset    float64
	fingerprint string
}

// New validates f and builds a Registry from it. Any failure is an
// INVALID_CONFIG error; the caller must treat it as fatal.
func New(f File) (*Registry, error) {
	f = f.clone()
	f.SetDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}

	r := &Registry{
		file:        f,
		datacenters: slices.Clone(f.Datacenters),
		positions:   make(map[string]Position, len(f.Positions)),
		types:       maps.Clone(f.Types),
		defaultIcon: *f.DefaultIcon,
		legacy:      maps.Clone(f.Legacy),
		links:       maps.Clone(f.Links),
		laneMin:     f.Lanes.Min,
		laneMax:     f.Lanes.Max,
		laneWidth:   f.Lanes.Width,
		defaultZ:    *f.Defaults.Z,
		defaultLane: *f.Defaults.Lane,
		spring: Spring{
			K:          f.Spring.K,
			Iterations: f.Spring.Iterations,
			Seed:       *f.Spring.Seed,
			Spread:     f.Spring.Spread,
		},
		haEnabled: *f.HA.Enabled,
		haOffset:  *f.HA.Offset,
	}
	for code, p := range f.Positions {
		name := p.Name
		if name == "" {
			name = strings.ToUpper(code)
		}
		r.positions[code] = Position{Code: code, Name: name, Z: *p.Z, Lane: *p.Lane}
	}
	if r.types == nil {
		r.types = map[string]Icon{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "encode registry")
	}
	sum := sha256.Sum256(data)
	r.fingerprint = hex.EncodeToString(sum[:])
	return r, nil
}

// MustNew is like New but panics on error. Intended for built-in tables.
func MustNew(f File) *Registry {
	r, err := New(f)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns a registry built from [DefaultFile].
func Default() *Registry {
	return MustNew(DefaultFile())
}

// Validate checks f. Semantic checks run first so the most useful sentinel
// error is reported; struct tag rules run afterwards.
func (f File) Validate() error {
	if f.Lanes.Min > f.Lanes.Max {
		return errs.Wrap(errs.ErrCodeInvalidConfig, ErrInvalidBounds, "lanes [%d, %d]", f.Lanes.Min, f.Lanes.Max)
	}
	for _, code := range slices.Sorted(maps.Keys(f.Positions)) {
		p := f.Positions[code]
		if p.Z == nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, ErrMissingZ, "position %q", code)
		}
		if p.Lane == nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, ErrMissingLane, "position %q", code)
		}
		if *p.Lane < f.Lanes.Min || *p.Lane > f.Lanes.Max {
			return errs.Wrap(errs.ErrCodeInvalidConfig, ErrLaneOutOfRange,
				"position %q lane %d not in [%d, %d]", code, *p.Lane, f.Lanes.Min, f.Lanes.Max)
		}
	}
	if f.Defaults.Lane != nil && (*f.Defaults.Lane < f.Lanes.Min || *f.Defaults.Lane > f.Lanes.Max) {
		return errs.Wrap(errs.ErrCodeInvalidConfig, ErrLaneOutOfRange,
			"default lane %d not in [%d, %d]", *f.Defaults.Lane, f.Lanes.Min, f.Lanes.Max)
	}
	if err := validate.Struct(f); err != nil {
		return configError(err)
	}
	return nil
}

func configError(err error) error {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "%s fails %q", fe.Namespace(), fe.Tag())
	}
	return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid registry")
}

func (f File) clone() File {
	c := f
	c.Datacenters = slices.Clone(f.Datacenters)
	c.Positions = maps.Clone(f.Positions)
	c.Types = maps.Clone(f.Types)
	c.Legacy = maps.Clone(f.Legacy)
	c.Links = maps.Clone(f.Links)
	if f.DefaultIcon != nil {
		icon := *f.DefaultIcon
		c.DefaultIcon = &icon
	}
	return c
}

// =============================================================================
// Vocabulary
// =============================================================================

// Datacenters returns the datacenter codes in declaration order.
func (r *Registry) Datacenters() []string { return slices.Clone(r.datacenters) }

// HasDatacenter reports whether code is a declared datacenter.
func (r *Registry) HasDatacenter(code string) bool { return slices.Contains(r.datacenters, code) }

// PositionCodes returns the declared position codes, sorted.
func (r *Registry) PositionCodes() []string { return slices.Sorted(maps.Keys(r.positions)) }

// DeviceTypes returns the declared device-type codes, sorted.
func (r *Registry) DeviceTypes() []string { return slices.Sorted(maps.Keys(r.types)) }

// Position returns the profile of a position code.
func (r *Registry) Position(code string) (Position, bool) {
	p, ok := r.positions[code]
	return p, ok
}

// Positions returns all position profiles ordered by descending z, then code.
func (r *Registry) Positions() []Position {
	out := slices.Collect(maps.Values(r.positions))
	slices.SortFunc(out, func(a, b Position) int {
		if a.Z != b.Z {
			if a.Z > b.Z {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Code, b.Code)
	})
	return out
}

// =============================================================================
// Geometry
// =============================================================================

// ZLayer returns the z layer of a position, or the default z when the
// position is unknown.
func (r *Registry) ZLayer(position string) float64 {
	if p, ok := r.positions[position]; ok {
		return p.Z
	}
	return r.defaultZ
}

// Lane returns the clamped lane of a position, or the default lane when the
// position is unknown.
func (r *Registry) Lane(position string) int {
	if p, ok := r.positions[position]; ok {
		return r.ClampLane(p.Lane)
	}
	return r.ClampLane(r.defaultLane)
}

// ClampLane limits lane to the configured bounds.
func (r *Registry) ClampLane(lane int) int {
	return max(r.laneMin, min(r.laneMax, lane))
}

// LaneX converts a lane number to an x coordinate.
func (r *Registry) LaneX(lane int) float64 { return float64(lane) * r.laneWidth }

// LaneBounds returns the inclusive lane range.
func (r *Registry) LaneBounds() (lo, hi int) { return r.laneMin, r.laneMax }

// LaneWidth returns the distance between adjacent lanes.
func (r *Registry) LaneWidth() float64 { return r.laneWidth }

// DefaultZ is the layer used for devices with no known position.
func (r *Registry) DefaultZ() float64 { return r.defaultZ }

// DefaultLane is the lane used for devices with no known position.
func (r *Registry) DefaultLane() int { return r.ClampLane(r.defaultLane) }

// LegacyZ maps a coarse legacy node type (router, core, ...) to a layer.
// The second result is false when the type is not mapped.
func (r *Registry) LegacyZ(legacyType string) (float64, bool) {
	z, ok := r.legacy[strings.ToLower(legacyType)]
	return z, ok
}

// =============================================================================
// Presentation
// =============================================================================

// Icon returns the icon of a device type, falling back to the default icon.
func (r *Registry) Icon(deviceType string) Icon {
	if icon, ok := r.types[deviceType]; ok {
		return icon
	}
	return r.defaultIcon
}

// DisplayName returns the human readable name of a position code. Unknown
// codes are upper-cased.
func (r *Registry) DisplayName(position string) string {
	if p, ok := r.positions[position]; ok {
		return p.Name
	}
	return strings.ToUpper(position)
}

// LinkStyle returns the drawing style for a relation name.
func (r *Registry) LinkStyle(relation string) (LinkStyle, bool) {
	s, ok := r.links[relation]
	return s, ok
}

// =============================================================================
// Layout tunables
// =============================================================================

// Spring returns the sub-layout tunables.
func (r *Registry) Spring() Spring { return r.spring }

// HAEnabled reports whether HA pair offsets are applied.
func (r *Registry) HAEnabled() bool { return r.haEnabled }

// HAOffset is the y distance each HA partner is moved away from the other.
func (r *Registry) HAOffset() float64 { return r.haOffset }

// File returns a copy of the normalized definition the registry was built
// from, with all defaults filled in.
func (r *Registry) File() File { return r.file.clone() }

// Fingerprint is a content hash of the normalized definition. Registries
// with equal fingerprints place every device identically.
func (r *Registry) Fingerprint() string { return r.fingerprint }

// Summary describes the registry in one line.
func (r *Registry) Summary() string {
	layers := make(map[float64]struct{})
	for _, p := range r.positions {
		layers[p.Z] = struct{}{}
	}
	return fmt.Sprintf("%d datacenters, %d positions, %d layers, %d device types, lanes %d..%d",
		len(r.datacenters), len(r.positions), len(layers), len(r.types), r.laneMin, r.laneMax)
}
