// Package field owns the attractor population: points in the work area
// that pull growth tips toward them and are permanently spent once
// growth passes close enough.
package field

import (
	"fmt"
	"math/rand"

	"github.com/kingrea/tendril/internal/geom"
	"github.com/kingrea/tendril/internal/noise"
)

// rejection sampling gives up after this many attempts per requested
// attractor; clustered seeding may therefore place fewer than count.
const attemptsPerAttractor = 10

// Attractor is a point that influences nearby tips until deactivated.
type Attractor struct {
	Pos    geom.Vec2
	Active bool
}

// Params configures field seeding.
type Params struct {
	Count     int
	Clustered bool
	// Frequency scales positions before sampling the noise source.
	Frequency float64
	// Threshold is the minimum noise value for a clustered candidate
	// to be accepted.
	Threshold float64
	Seed      int64
}

// Field holds the attractor population for one growth episode.
type Field struct {
	bounds     geom.Rect
	attractors []Attractor
	active     int
}

// New seeds the field. With Clustered set, candidate points are kept
// only where the noise source exceeds the threshold; sampling stops
// after 10x Count attempts regardless of how many were placed, which
// guarantees termination at the cost of an exact count. Without it,
// points are drawn uniformly over bounds.
func New(bounds geom.Rect, p Params, src noise.Source) (*Field, error) {
	if !bounds.Valid() {
		return nil, fmt.Errorf("field: invalid bounds %+v", bounds)
	}
	if p.Count < 0 {
		return nil, fmt.Errorf("field: negative attractor count %d", p.Count)
	}
	if p.Clustered && src == nil {
		return nil, fmt.Errorf("field: clustered seeding requires a noise source")
	}
	f := &Field{
		bounds:     bounds,
		attractors: make([]Attractor, 0, p.Count),
	}
	rng := rand.New(rand.NewSource(p.Seed))
	draw := func() geom.Vec2 {
		return geom.Vec2{
			X: bounds.Min.X + rng.Float64()*bounds.Width(),
			Y: bounds.Min.Y + rng.Float64()*bounds.Height(),
		}
	}
	if p.Clustered {
		for attempts := 0; attempts < p.Count*attemptsPerAttractor && len(f.attractors) < p.Count; attempts++ {
			cand := draw()
			if src.Eval2(cand.X*p.Frequency, cand.Y*p.Frequency) > p.Threshold {
				f.attractors = append(f.attractors, Attractor{Pos: cand, Active: true})
			}
		}
	} else {
		for i := 0; i < p.Count; i++ {
			f.attractors = append(f.attractors, Attractor{Pos: draw(), Active: true})
		}
	}
	f.active = len(f.attractors)
	return f, nil
}

// FromPositions builds a field with attractors at exactly the given
// positions, all active. Used for scripted scenarios and tests.
func FromPositions(bounds geom.Rect, positions []geom.Vec2) (*Field, error) {
	if !bounds.Valid() {
		return nil, fmt.Errorf("field: invalid bounds %+v", bounds)
	}
	f := &Field{bounds: bounds, attractors: make([]Attractor, 0, len(positions))}
	for _, p := range positions {
		f.attractors = append(f.attractors, Attractor{Pos: p, Active: true})
	}
	f.active = len(f.attractors)
	return f, nil
}

// Bounds returns the seeding rectangle.
func (f *Field) Bounds() geom.Rect { return f.bounds }

// Len returns the total attractor count, spent ones included.
func (f *Field) Len() int { return len(f.attractors) }

// ActiveCount returns how many attractors are still live.
func (f *Field) ActiveCount() int { return f.active }

// QueryNear returns the positions of all active attractors within
// radius of pos, in no particular order.
func (f *Field) QueryNear(pos geom.Vec2, radius float64) []geom.Vec2 {
	var out []geom.Vec2
	for i := range f.attractors {
		a := &f.attractors[i]
		if a.Active && a.Pos.Dist(pos) <= radius {
			out = append(out, a.Pos)
		}
	}
	return out
}

// DeactivateWithin permanently spends every active attractor within
// killRadius of pos and reports how many were spent.
func (f *Field) DeactivateWithin(pos geom.Vec2, killRadius float64) int {
	spent := 0
	for i := range f.attractors {
		a := &f.attractors[i]
		if a.Active && a.Pos.Dist(pos) <= killRadius {
			a.Active = false
			f.active--
			spent++
		}
	}
	return spent
}

// ActivePositions returns a copy of all live attractor positions for
// read-only consumers such as the renderer.
func (f *Field) ActivePositions() []geom.Vec2 {
	out := make([]geom.Vec2, 0, f.active)
	for i := range f.attractors {
		if f.attractors[i].Active {
			out = append(out, f.attractors[i].Pos)
		}
	}
	return out
}
