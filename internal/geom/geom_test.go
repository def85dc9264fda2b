package geom

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	v, ok := (Vec2{3, 4}).Normalize()
	if !ok {
		t.Fatalf("expected normalization to succeed")
	}
	if math.Abs(v.Len()-1) > 1e-12 {
		t.Fatalf("unit length got %v", v.Len())
	}
	if _, ok := (Vec2{}).Normalize(); ok {
		t.Fatalf("zero vector must not normalize")
	}
}

func TestRotate(t *testing.T) {
	v := Vec2{1, 0}.Rotate(math.Pi / 2)
	if math.Abs(v.X) > 1e-12 || math.Abs(v.Y-1) > 1e-12 {
		t.Fatalf("quarter turn got %+v", v)
	}
}

func TestRectClamp(t *testing.T) {
	r := NewRect(0, 0, 10, 10)
	got := r.Clamp(Vec2{-5, 20})
	if got != (Vec2{0, 10}) {
		t.Fatalf("clamp got %+v", got)
	}
	inside := Vec2{3, 7}
	if r.Clamp(inside) != inside {
		t.Fatalf("interior point must not move")
	}
}

func TestRectValid(t *testing.T) {
	if !NewRect(0, 0, 1, 1).Valid() {
		t.Fatalf("unit rect must be valid")
	}
	if NewRect(0, 0, 0, 5).Valid() {
		t.Fatalf("zero-width rect must be invalid")
	}
	if NewRect(0, 0, -1, 5).Valid() {
		t.Fatalf("negative-width rect must be invalid")
	}
}

func TestEdgePush(t *testing.T) {
	r := NewRect(0, 0, 100, 100)
	center := r.EdgePush(Vec2{50, 50}, 10, 2)
	if center != (Vec2{}) {
		t.Fatalf("center must not be pushed, got %+v", center)
	}
	nearLeft := r.EdgePush(Vec2{2, 50}, 10, 2)
	if nearLeft.X <= 0 || nearLeft.Y != 0 {
		t.Fatalf("expected rightward push, got %+v", nearLeft)
	}
	corner := r.EdgePush(Vec2{1, 99}, 10, 2)
	if corner.X <= 0 || corner.Y >= 0 {
		t.Fatalf("corner must push inward on both axes, got %+v", corner)
	}
	// Push scales up toward the boundary.
	closer := r.EdgePush(Vec2{1, 50}, 10, 2)
	if closer.X <= nearLeft.X {
		t.Fatalf("closer to the edge must push harder: %v vs %v", closer.X, nearLeft.X)
	}
}

func TestNormalizeAngle(t *testing.T) {
	for _, tc := range []struct{ in, want float64 }{
		{0, 0},
		{3 * math.Pi, math.Pi},
		{-3 * math.Pi, math.Pi},
		{math.Pi / 2, math.Pi / 2},
	} {
		if got := NormalizeAngle(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("NormalizeAngle(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
