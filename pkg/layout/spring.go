package layout

import (
	"math"
	"math/rand/v2"

	"github.com/matzehuels/topostack/pkg/topology"
)

// Params are the tunables passed to a SubLayout.
type Params struct {
	Seed       uint64
	Iterations int
	// K is the optimal distance between connected nodes.
	K float64
	// Spread scales the normalized [-1, 1] output.
	Spread float64
}

// SubLayout spreads the members of one bucket along the y axis. It receives
// the subgraph induced by the bucket and must return a y value for every
// node of it. Implementations must be deterministic for a given subgraph
// and Params, and safe to call from several goroutines.
type SubLayout interface {
	Place(sub *topology.Graph, p Params) map[string]float64
}

// SubLayoutFunc adapts a function to the SubLayout interface.
type SubLayoutFunc func(sub *topology.Graph, p Params) map[string]float64

// Place calls f.
func (f SubLayoutFunc) Place(sub *topology.Graph, p Params) map[string]float64 { return f(sub, p) }

// Spring is a Fruchterman-Reingold force-directed layout in two dimensions
// whose y coordinate is kept. Initial positions come from a PCG generator
// seeded with Params.Seed, and nodes are processed in sorted ID order, so
// output depends only on the subgraph and Params.
type Spring struct{}

const (
	minDistance = 0.01
	threshold   = 1e-4
)

// Place implements SubLayout.
func (Spring) Place(sub *topology.Graph, p Params) map[string]float64 {
	ids := sub.NodeIDs()
	n := len(ids)
	out := make(map[string]float64, n)
	switch n {
	case 0:
		return out
	case 1:
		out[ids[0]] = 0
		return out
	}

	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}
	adj := make([][]float64, n)
	for i := range adj {
		adj[i] = make([]float64, n)
	}
	for _, e := range sub.Edges() {
		i, okI := index[e.Source]
		j, okJ := index[e.Target]
		if !okI || !okJ || i == j {
			continue
		}
		adj[i][j] = 1
		adj[j][i] = 1
	}

	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0xdeadbeef))
	pos := make([][2]float64, n)
	for i := range pos {
		pos[i] = [2]float64{rng.Float64(), rng.Float64()}
	}

	k := p.K
	if k <= 0 {
		k = math.Sqrt(1.0 / float64(n))
	}
	iterations := max(p.Iterations, 1)

	t := 0.1 * max(span(pos, 0), span(pos, 1))
	dt := t / float64(iterations+1)

	disp := make([][2]float64, n)
	for range iterations {
		for i := range n {
			var dx, dy float64
			for j := range n {
				if i == j {
					continue
				}
				ddx := pos[i][0] - pos[j][0]
				ddy := pos[i][1] - pos[j][1]
				d := max(math.Hypot(ddx, ddy), minDistance)
				f := k*k/(d*d) - adj[i][j]*d/k
				dx += ddx * f
				dy += ddy * f
			}
			disp[i] = [2]float64{dx, dy}
		}

		var moved float64
		for i := range n {
			length := max(math.Hypot(disp[i][0], disp[i][1]), minDistance)
			sx := disp[i][0] * t / length
			sy := disp[i][1] * t / length
			pos[i][0] += sx
			pos[i][1] += sy
			moved += math.Hypot(sx, sy)
		}
		t -= dt
		if moved/float64(n) < threshold {
			break
		}
	}

	rescale(pos)
	for i, id := range ids {
		out[id] = pos[i][1] * p.Spread
	}
	return out
}

func span(pos [][2]float64, axis int) float64 {
	lo, hi := pos[0][axis], pos[0][axis]
	for _, p := range pos[1:] {
		lo = min(lo, p[axis])
		hi = max(hi, p[axis])
	}
	return hi - lo
}

// rescale centers pos on the origin and scales it so the largest absolute
// coordinate is 1.
func rescale(pos [][2]float64) {
	var mx, my float64
	for _, p := range pos {
		mx += p[0]
		my += p[1]
	}
	mx /= float64(len(pos))
	my /= float64(len(pos))

	var lim float64
	for i := range pos {
		pos[i][0] -= mx
		pos[i][1] -= my
		lim = max(lim, math.Abs(pos[i][0]), math.Abs(pos[i][1]))
	}
	if lim == 0 {
		return
	}
	for i := range pos {
		pos[i][0] /= lim
		pos[i][1] /= lim
	}
}
