// Package noise abstracts the coherent-noise source used for attractor
// seeding, fallback directions, jitter, and the option shuffle. Keeping
// it behind an interface lets tests substitute a fixed source so every
// growth decision is reproducible.
package noise

import opensimplex "github.com/ojrac/opensimplex-go"

// Source yields deterministic pseudo-random values in [0, 1] keyed by
// spatial coordinates (and an extra lane for index/time keys).
type Source interface {
	Eval2(x, y float64) float64
	Eval3(x, y, z float64) float64
}

type simplexSource struct {
	n opensimplex.Noise
}

// NewSimplex returns an OpenSimplex-backed source with the given seed.
// Values are normalized into [0, 1].
func NewSimplex(seed int64) Source {
	return simplexSource{n: opensimplex.NewNormalized(seed)}
}

func (s simplexSource) Eval2(x, y float64) float64    { return s.n.Eval2(x, y) }
func (s simplexSource) Eval3(x, y, z float64) float64 { return s.n.Eval3(x, y, z) }

// Func adapts a plain function to a Source; the 2D form fixes z at 0.
// Tests use it for constant or scripted values.
type Func func(x, y, z float64) float64

func (f Func) Eval2(x, y float64) float64    { return f(x, y, 0) }
func (f Func) Eval3(x, y, z float64) float64 { return f(x, y, z) }

// Constant returns a source that always yields v.
func Constant(v float64) Source {
	return Func(func(float64, float64, float64) float64 { return v })
}
