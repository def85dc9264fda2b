// Package geom provides the small amount of 2D float math the growth
// simulation needs: vectors, rectangles, and angle helpers.
package geom

import "math"

// Epsilon below which a vector is considered degenerate.
const Epsilon = 1e-9

// Vec2 is a 2D point or direction.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }

// Len returns the vector magnitude.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist returns the distance between two points.
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

// Normalize returns the unit vector and true, or the zero vector and
// false when the input is degenerate.
func (v Vec2) Normalize() (Vec2, bool) {
	l := v.Len()
	if l < Epsilon {
		return Vec2{}, false
	}
	return Vec2{v.X / l, v.Y / l}, true
}

// Angle returns atan2(Y, X) in radians.
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }

// FromAngle builds the unit vector pointing along the given angle.
func FromAngle(theta float64) Vec2 {
	return Vec2{math.Cos(theta), math.Sin(theta)}
}

// Rotate returns v rotated by theta radians.
func (v Vec2) Rotate(theta float64) Vec2 {
	s, c := math.Sincos(theta)
	return Vec2{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// Rect is an axis-aligned rectangle, Min inclusive, Max inclusive for
// clamping purposes.
type Rect struct {
	Min Vec2
	Max Vec2
}

// NewRect builds a rectangle from two corner coordinates.
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{Min: Vec2{x0, y0}, Max: Vec2{x1, y1}}
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Valid reports whether the rectangle has positive area.
func (r Rect) Valid() bool {
	return r.Width() > 0 && r.Height() > 0
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Clamp pins p into the rectangle.
func (r Rect) Clamp(p Vec2) Vec2 {
	return Vec2{
		X: math.Min(math.Max(p.X, r.Min.X), r.Max.X),
		Y: math.Min(math.Max(p.Y, r.Min.Y), r.Max.Y),
	}
}

// Inset shrinks the rectangle by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{
		Min: Vec2{r.Min.X + d, r.Min.Y + d},
		Max: Vec2{r.Max.X - d, r.Max.Y - d},
	}
}

// EdgePush returns a corrective vector pointing away from every edge of
// the rectangle that p sits within margin of. Each near edge contributes
// an inward component scaled by (1 - d/margin) * strength, so the push
// ramps up smoothly as p approaches the boundary.
func (r Rect) EdgePush(p Vec2, margin, strength float64) Vec2 {
	if margin <= 0 {
		return Vec2{}
	}
	var out Vec2
	if d := p.X - r.Min.X; d < margin {
		out.X += (1 - d/margin) * strength
	}
	if d := r.Max.X - p.X; d < margin {
		out.X -= (1 - d/margin) * strength
	}
	if d := p.Y - r.Min.Y; d < margin {
		out.Y += (1 - d/margin) * strength
	}
	if d := r.Max.Y - p.Y; d < margin {
		out.Y -= (1 - d/margin) * strength
	}
	return out
}

// NormalizeAngle wraps theta into (-pi, pi].
func NormalizeAngle(theta float64) float64 {
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	for theta <= -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}
