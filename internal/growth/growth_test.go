package growth

import (
	"math"
	"testing"

	"github.com/kingrea/tendril/internal/field"
	"github.com/kingrea/tendril/internal/geom"
	"github.com/kingrea/tendril/internal/noise"
	"github.com/kingrea/tendril/internal/tree"
)

func testParams() Params {
	return Params{
		AttractionRadius: 60,
		KillRadius:       12,
		SegmentLength:    6,
		EdgeMargin:       48,
		Jitter:           0.2,
		SteerDotMin:      -0.3,
		Work:             geom.NewRect(0, 0, 800, 480),
	}
}

func mustField(t *testing.T, positions ...geom.Vec2) *field.Field {
	t.Helper()
	f, err := field.FromPositions(geom.NewRect(0, 0, 800, 480), positions)
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	return f
}

func TestStepWithoutAttractorsOrTargetIsNoOp(t *testing.T) {
	tr := tree.New(geom.Vec2{X: 400, Y: 240})
	f := mustField(t)
	_, grew := Step(tr, f, 0, nil, testParams(), noise.Constant(0.5), tree.RoleUnassigned, true, 0)
	if grew {
		t.Fatalf("step with no influence must not grow")
	}
	if tr.Len() != 1 {
		t.Fatalf("no-op step mutated the tree: %d nodes", tr.Len())
	}
}

func TestStepIsIdempotentWhenUninfluenced(t *testing.T) {
	tr := tree.New(geom.Vec2{X: 400, Y: 240})
	f := mustField(t, geom.Vec2{X: 700, Y: 400}) // far out of range
	before := f.ActivePositions()
	for i := 0; i < 5; i++ {
		if _, grew := Step(tr, f, 0, nil, testParams(), noise.Constant(0.5), tree.RoleUnassigned, true, float64(i)); grew {
			t.Fatalf("uninfluenced tip grew on call %d", i)
		}
	}
	if tr.Len() != 1 {
		t.Fatalf("tree changed: %d nodes", tr.Len())
	}
	after := f.ActivePositions()
	if len(before) != len(after) || before[0] != after[0] {
		t.Fatalf("field changed: %+v -> %+v", before, after)
	}
}

func TestStepTowardSingleAttractor(t *testing.T) {
	root := geom.Vec2{X: 100, Y: 100}
	tr := tree.New(root)
	f := mustField(t, geom.Vec2{X: 110, Y: 100})

	p := testParams()
	id, grew := Step(tr, f, 0, nil, p, noise.Constant(0.5), tree.RoleUnassigned, true, 0)
	if !grew {
		t.Fatalf("influenced tip must grow")
	}
	got := tr.Node(id).Pos
	want := geom.Vec2{X: root.X + p.SegmentLength, Y: root.Y}
	if got.Dist(want) > 1e-9 {
		t.Fatalf("child at %+v, want %+v", got, want)
	}
	if tr.IsTip(0) {
		t.Fatalf("grown tip must stop being a tip")
	}
	if f.ActiveCount() != 0 {
		t.Fatalf("attractor within kill radius must be spent")
	}
}

func TestStepKillFlagControlsDeactivation(t *testing.T) {
	tr := tree.New(geom.Vec2{X: 100, Y: 100})
	f := mustField(t, geom.Vec2{X: 110, Y: 100})
	if _, grew := Step(tr, f, 0, nil, testParams(), noise.Constant(0.5), tree.RoleMissed, false, 0); !grew {
		t.Fatalf("expected growth")
	}
	if f.ActiveCount() != 1 {
		t.Fatalf("background step must not spend attractors")
	}
}

func TestSteeringDiscardsOpposedAttractors(t *testing.T) {
	tr := tree.New(geom.Vec2{X: 100, Y: 100})
	// Directly behind the steering target: dot = -1 < -0.3.
	f := mustField(t, geom.Vec2{X: 40, Y: 100})
	target := geom.Vec2{X: 1, Y: 0}
	p := testParams()

	// Constant noise keeps the starved-region wobble at exactly zero.
	id, grew := Step(tr, f, 0, &target, p, noise.Constant(0.5), tree.RoleSelected, true, 0)
	if !grew {
		t.Fatalf("steered growth must continue through starved regions")
	}
	got := tr.Node(id).Pos
	want := geom.Vec2{X: 106, Y: 100}
	if got.Dist(want) > 1e-9 {
		t.Fatalf("steered step landed at %+v, want %+v", got, want)
	}
	if f.ActiveCount() != 1 {
		t.Fatalf("the opposed attractor is out of kill range and must survive")
	}
}

func TestSteeredStepBlendsTowardTarget(t *testing.T) {
	tr := tree.New(geom.Vec2{X: 400, Y: 240})
	// Attractor up and to the right; target straight right.
	f := mustField(t, geom.Vec2{X: 430, Y: 270})
	target := geom.Vec2{X: 1, Y: 0}
	id, grew := Step(tr, f, 0, &target, testParams(), noise.Constant(0.5), tree.RoleSelected, true, 0)
	if !grew {
		t.Fatalf("expected growth")
	}
	dir, _ := tr.Node(id).Pos.Sub(geom.Vec2{X: 400, Y: 240}).Normalize()
	// The blend must land strictly between the attractor bearing (45°)
	// and the target bearing (0°).
	angle := dir.Angle()
	if angle <= 0 || angle >= math.Pi/4 {
		t.Fatalf("blended direction %v rad outside (0, π/4)", angle)
	}
}

func TestStepCancellingAttractorsDoNotGrow(t *testing.T) {
	tr := tree.New(geom.Vec2{X: 400, Y: 240})
	f := mustField(t, geom.Vec2{X: 390, Y: 240}, geom.Vec2{X: 410, Y: 240})
	if _, grew := Step(tr, f, 0, nil, testParams(), noise.Constant(0.5), tree.RoleUnassigned, true, 0); grew {
		t.Fatalf("exactly cancelling influence must not produce a node")
	}
	if tr.Len() != 1 {
		t.Fatalf("degenerate step mutated the tree")
	}
}

func TestStepRefusesNonTip(t *testing.T) {
	tr := tree.New(geom.Vec2{X: 100, Y: 100})
	tr.Add(0, geom.Vec2{X: 106, Y: 100}, tree.RoleUnassigned)
	f := mustField(t, geom.Vec2{X: 110, Y: 100})
	if _, grew := Step(tr, f, 0, nil, testParams(), noise.Constant(0.5), tree.RoleUnassigned, true, 0); grew {
		t.Fatalf("a node with children must never grow again")
	}
}

func TestEdgeRepulsionTurnsGrowthInward(t *testing.T) {
	tip := geom.Vec2{X: 10, Y: 240}
	tr := tree.New(tip)
	// Attractor just past the left boundary band pulls outward.
	f := mustField(t, geom.Vec2{X: 2, Y: 240})
	id, grew := Step(tr, f, 0, nil, testParams(), noise.Constant(0.5), tree.RoleUnassigned, true, 0)
	if !grew {
		t.Fatalf("expected growth")
	}
	if got := tr.Node(id).Pos; got.X <= tip.X {
		t.Fatalf("edge repulsion must push growth inward, landed at %+v", got)
	}
}

func TestStepClampsIntoWorkArea(t *testing.T) {
	p := testParams()
	p.EdgeMargin = 0 // disable repulsion to force the clamp
	tip := geom.Vec2{X: 3, Y: 240}
	tr := tree.New(tip)
	f := mustField(t)
	target := geom.Vec2{X: -1, Y: 0}
	id, grew := Step(tr, f, 0, &target, p, noise.Constant(0.5), tree.RoleSelected, true, 0)
	if !grew {
		t.Fatalf("expected growth")
	}
	if got := tr.Node(id).Pos; got.X != 0 {
		t.Fatalf("position must clamp to the boundary, got %+v", got)
	}
}
