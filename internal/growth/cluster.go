package growth

import (
	"math"
	"sort"

	"github.com/kingrea/tendril/internal/field"
	"github.com/kingrea/tendril/internal/geom"
	"github.com/kingrea/tendril/internal/noise"
	"github.com/kingrea/tendril/internal/tree"
)

// ClusterGap is the angular gap, in radians, that separates two
// adjacent candidate directions into distinct clusters.
const ClusterGap = math.Pi / 4

// optionRadiusFactor widens the search when generating user-facing
// option directions, so choices reflect more of the surroundings than
// a single growth step would.
const optionRadiusFactor = 2.0

// fallbackMinSeparation keeps synthesized directions from collapsing
// onto directions already chosen for other slots.
const fallbackMinSeparation = 0.1

// noiseCoordScale shrinks world coordinates into the noise domain.
const noiseCoordScale = 0.01

type clusterRep struct {
	dir  geom.Vec2
	size int
}

// clusterByAngle groups unit directions by angular adjacency: sorted by
// angle, a gap above ClusterGap starts a new cluster, and the first and
// last clusters merge when the wrap-around gap closes the circle. Each
// cluster's representative is the normalized sum of its members; a
// cluster whose members exactly cancel is dropped.
func clusterByAngle(dirs []geom.Vec2) []clusterRep {
	if len(dirs) == 0 {
		return nil
	}
	sorted := make([]geom.Vec2, len(dirs))
	copy(sorted, dirs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Angle() < sorted[j].Angle()
	})

	type cluster struct {
		sum  geom.Vec2
		size int
	}
	clusters := []cluster{{sum: sorted[0], size: 1}}
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Angle() - sorted[i-1].Angle()
		if gap > ClusterGap {
			clusters = append(clusters, cluster{sum: sorted[i], size: 1})
			continue
		}
		last := &clusters[len(clusters)-1]
		last.sum = last.sum.Add(sorted[i])
		last.size++
	}
	// Circular adjacency: close the wrap-around gap between the last
	// and first entries.
	if len(clusters) > 1 {
		wrap := (sorted[0].Angle() + 2*math.Pi) - sorted[len(sorted)-1].Angle()
		if wrap <= ClusterGap {
			last := clusters[len(clusters)-1]
			clusters[0].sum = clusters[0].sum.Add(last.sum)
			clusters[0].size += last.size
			clusters = clusters[:len(clusters)-1]
		}
	}

	reps := make([]clusterRep, 0, len(clusters))
	for _, c := range clusters {
		if dir, ok := c.sum.Normalize(); ok {
			reps = append(reps, clusterRep{dir: dir, size: c.size})
		}
	}
	return reps
}

// tipCandidates converts nearby active attractors into unit directions
// from the tip, dropping directions that point toward an edge the tip
// is already close to.
func tipCandidates(f *field.Field, tipPos geom.Vec2, radius float64, p Params) []geom.Vec2 {
	var dirs []geom.Vec2
	nearLeft := tipPos.X-p.Work.Min.X < p.EdgeMargin
	nearRight := p.Work.Max.X-tipPos.X < p.EdgeMargin
	nearTop := tipPos.Y-p.Work.Min.Y < p.EdgeMargin
	nearBottom := p.Work.Max.Y-tipPos.Y < p.EdgeMargin
	for _, apos := range f.QueryNear(tipPos, radius) {
		d, ok := apos.Sub(tipPos).Normalize()
		if !ok {
			continue
		}
		if (nearLeft && d.X < 0) || (nearRight && d.X > 0) ||
			(nearTop && d.Y < 0) || (nearBottom && d.Y > 0) {
			continue
		}
		dirs = append(dirs, d)
	}
	return dirs
}

// OptionDirections returns exactly k unit directions for the tip, one
// per offered option. Natural angular clusters come first (largest
// first); missing slots are synthesized from noise keyed by tip
// position and slot index, biased away from nearby edges. The final
// list is reordered by a noise sort key keyed by position, slot, and
// frame so that list order carries no angular bias.
func OptionDirections(t *tree.Tree, f *field.Field, tip, k int, p Params, src noise.Source, frame int) []geom.Vec2 {
	if k <= 0 {
		return nil
	}
	pos := t.Node(tip).Pos
	reps := clusterByAngle(tipCandidates(f, pos, p.AttractionRadius*optionRadiusFactor, p))
	sort.SliceStable(reps, func(i, j int) bool { return reps[i].size > reps[j].size })

	dirs := make([]geom.Vec2, 0, k)
	for _, r := range reps {
		if len(dirs) == k {
			break
		}
		dirs = append(dirs, r.dir)
	}
	for slot := len(dirs); slot < k; slot++ {
		dirs = append(dirs, fallbackDirection(pos, slot, dirs, p, src))
	}

	keys := make([]float64, k)
	order := make([]int, k)
	for i := range dirs {
		keys[i] = src.Eval3(pos.X*noiseCoordScale+float64(i), pos.Y*noiseCoordScale, float64(frame))
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })
	shuffled := make([]geom.Vec2, k)
	for i, idx := range order {
		shuffled[i] = dirs[idx]
	}
	return shuffled
}

// fallbackDirection synthesizes a unit direction for an option slot no
// natural cluster could fill. The raw angle comes from noise keyed by
// tip position and slot; the result is pushed off nearby edges and
// nudged around the circle until it clears already-taken directions.
func fallbackDirection(pos geom.Vec2, slot int, taken []geom.Vec2, p Params, src noise.Source) geom.Vec2 {
	theta := src.Eval3(pos.X*noiseCoordScale, pos.Y*noiseCoordScale, float64(slot)) * 2 * math.Pi
	dir := geom.FromAngle(theta)
	if pushed, ok := dir.Add(p.Work.EdgePush(pos, p.EdgeMargin, 1.0)).Normalize(); ok {
		dir = pushed
	}
	for attempt := 0; attempt < 16 && tooClose(dir, taken); attempt++ {
		dir = dir.Rotate(ClusterGap + fallbackMinSeparation)
	}
	return dir
}

func tooClose(dir geom.Vec2, taken []geom.Vec2) bool {
	for _, o := range taken {
		if math.Abs(geom.NormalizeAngle(dir.Angle()-o.Angle())) < fallbackMinSeparation {
			return true
		}
	}
	return false
}

// BranchBackground grows one background tip: every surviving angular
// cluster at the standard attraction radius becomes a new child, up to
// budget nodes. Background growth never spends attractors. The new
// node IDs are returned; an empty result means the tip is exhausted.
func BranchBackground(t *tree.Tree, f *field.Field, tip int, p Params, budget int) []int {
	if budget <= 0 || !t.IsTip(tip) {
		return nil
	}
	pos := t.Node(tip).Pos
	role := t.Node(tip).Role
	if role == tree.RoleSelected {
		role = tree.RoleUnassigned
	}
	reps := clusterByAngle(tipCandidates(f, pos, p.AttractionRadius, p))
	var out []int
	for _, r := range reps {
		if len(out) == budget {
			break
		}
		newPos := p.Work.Clamp(pos.Add(r.dir.Scale(p.SegmentLength)))
		out = append(out, t.Add(tip, newPos, role))
	}
	return out
}
