package race

import (
	"math"
	"math/rand"
)

// Vec3 is a point on the course in overlay space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PathProvider maps normalized race progress to a 3D point so overlay
// renderers can place tadpoles without the core ever touching rendering
// primitives.
type PathProvider interface {
	// PointAt evaluates the course at t in [0,1].
	PointAt(t float64) Vec3
	// Samples returns n evenly spaced points along the course.
	Samples(n int) []Vec3
}

// SplinePath is a Catmull-Rom spline through procedurally generated
// control points. It implements PathProvider.
type SplinePath struct {
	ctrl []Vec3
}

// GenerateCourse builds a winding course as a random walk of control
// points that always advances along X, so the track never doubles back
// on itself.
func GenerateCourse(rng *rand.Rand, segments int) *SplinePath {
	if segments < 3 {
		segments = 3
	}
	ctrl := make([]Vec3, 0, segments+1)
	p := Vec3{}
	ctrl = append(ctrl, p)
	for i := 0; i < segments; i++ {
		p.X += 6 + rng.Float64()*4
		p.Y += (rng.Float64() - 0.5) * 5
		p.Z += (rng.Float64() - 0.5) * 8
		ctrl = append(ctrl, p)
	}
	return &SplinePath{ctrl: ctrl}
}

// PointAt evaluates the spline at t in [0,1], clamping out-of-range
// input to the course endpoints.
func (sp *SplinePath) PointAt(t float64) Vec3 {
	if len(sp.ctrl) == 0 {
		return Vec3{}
	}
	if t <= 0 {
		return sp.ctrl[0]
	}
	if t >= 1 {
		return sp.ctrl[len(sp.ctrl)-1]
	}
	// Map t onto a control segment.
	segs := float64(len(sp.ctrl) - 1)
	f := t * segs
	i := int(math.Floor(f))
	u := f - float64(i)

	p0 := sp.at(i - 1)
	p1 := sp.at(i)
	p2 := sp.at(i + 1)
	p3 := sp.at(i + 2)
	return Vec3{
		X: catmullRom(p0.X, p1.X, p2.X, p3.X, u),
		Y: catmullRom(p0.Y, p1.Y, p2.Y, p3.Y, u),
		Z: catmullRom(p0.Z, p1.Z, p2.Z, p3.Z, u),
	}
}

// Samples returns n evenly spaced points, endpoints included.
func (sp *SplinePath) Samples(n int) []Vec3 {
	if n < 2 {
		n = 2
	}
	out := make([]Vec3, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, sp.PointAt(float64(i)/float64(n-1)))
	}
	return out
}

// at clamps control point indexing so end segments reuse their border
// points, the usual trick for open Catmull-Rom curves.
func (sp *SplinePath) at(i int) Vec3 {
	if i < 0 {
		i = 0
	}
	if i > len(sp.ctrl)-1 {
		i = len(sp.ctrl) - 1
	}
	return sp.ctrl[i]
}

func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}
