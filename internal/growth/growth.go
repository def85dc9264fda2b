// Package growth advances the tree: the step engine moves one tip per
// invocation under attractor influence and optional steering, and the
// clusterer turns a tip's surroundings into discrete branch directions.
package growth

import (
	"github.com/kingrea/tendril/internal/field"
	"github.com/kingrea/tendril/internal/geom"
	"github.com/kingrea/tendril/internal/noise"
	"github.com/kingrea/tendril/internal/tree"
)

// Params carries the tunable growth constants. Work is the allowed
// rectangle for new nodes, already excluding any reserved UI band.
type Params struct {
	AttractionRadius float64
	KillRadius       float64
	SegmentLength    float64
	EdgeMargin       float64
	// Jitter is the half-width, in radians, of the random wobble
	// applied when steered growth finds no usable attractors.
	Jitter float64
	// SteerDotMin discards attractors whose direction scores below
	// this dot product against the steering target.
	SteerDotMin float64
	Work        geom.Rect
}

// edgeRepulsionStrength is the maximum magnitude of the boundary push
// added before final normalization.
const edgeRepulsionStrength = 2.0

// steerBlend mixes the attractor consensus with the steering target.
const steerBlend = 0.5

// Step grows tip by one segment. A nil target means free growth: the
// tip only moves if at least one attractor influences it. With a
// target, attractors pointing too far off-heading are discarded and a
// starved tip still advances along the jittered target. The new node
// takes the given role; kill controls whether attractors near the new
// position are spent (foreground growth) or left alone (background).
// seedLane keys the jitter noise so repeated starved steps wobble
// instead of repeating.
func Step(t *tree.Tree, f *field.Field, tip int, target *geom.Vec2, p Params, src noise.Source, role tree.Role, kill bool, seedLane float64) (int, bool) {
	if !t.IsTip(tip) {
		return 0, false
	}
	pos := t.Node(tip).Pos

	var dirs []geom.Vec2
	for _, apos := range f.QueryNear(pos, p.AttractionRadius) {
		d, ok := apos.Sub(pos).Normalize()
		if !ok {
			continue
		}
		if target != nil && d.Dot(*target) < p.SteerDotMin {
			continue
		}
		dirs = append(dirs, d)
	}

	var dir geom.Vec2
	switch {
	case len(dirs) == 0 && target == nil:
		return 0, false
	case len(dirs) == 0:
		// Starved region: continue along the target with a small
		// angular wobble so growth does not halt.
		wobble := (src.Eval3(pos.X, pos.Y, seedLane) - 0.5) * 2 * p.Jitter
		dir = target.Rotate(wobble)
	default:
		var sum geom.Vec2
		for _, d := range dirs {
			align := 1.0
			if target != nil {
				align = d.Dot(*target)
			}
			sum = sum.Add(d.Scale(0.5 + 0.5*align))
		}
		var ok bool
		dir, ok = sum.Normalize()
		if !ok {
			return 0, false
		}
		if target != nil {
			dir = dir.Scale(1 - steerBlend).Add(target.Scale(steerBlend))
		}
	}

	dir = dir.Add(p.Work.EdgePush(pos, p.EdgeMargin, edgeRepulsionStrength))
	dir, ok := dir.Normalize()
	if !ok {
		return 0, false
	}

	newPos := p.Work.Clamp(pos.Add(dir.Scale(p.SegmentLength)))
	id := t.Add(tip, newPos, role)
	if kill {
		f.DeactivateWithin(newPos, p.KillRadius)
	}
	return id, true
}
