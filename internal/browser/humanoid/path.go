package humanoid

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
)

// Vector2D is a point or displacement in page coordinates.
type Vector2D struct {
	X, Y float64
}

func (v Vector2D) Add(o Vector2D) Vector2D { return Vector2D{v.X + o.X, v.Y + o.Y} }
func (v Vector2D) Sub(o Vector2D) Vector2D { return Vector2D{v.X - o.X, v.Y - o.Y} }
func (v Vector2D) Mul(s float64) Vector2D  { return Vector2D{v.X * s, v.Y * s} }

func (v Vector2D) Dist(o Vector2D) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// pointerPath returns the intermediate points of a cubic bezier curve from
// start to end. Control points bow the curve sideways, progress along it is
// eased so velocity peaks mid-flight, perlin noise adds slow drift and
// gaussian noise adds tremor. The last point is always exactly end.
func pointerPath(start, end Vector2D, rng *rand.Rand, noiseX, noiseY *perlin.Perlin, jitter float64) []Vector2D {
	dist := start.Dist(end)
	if dist < 1.0 {
		return []Vector2D{end}
	}

	// Step count grows sublinearly with distance; short hops stay short.
	steps := int(math.Max(8, math.Min(60, dist/12)))

	// Perpendicular unit vector for the sideways bow.
	dir := end.Sub(start).Mul(1.0 / dist)
	perp := Vector2D{-dir.Y, dir.X}

	bow := dist * (0.08 + rng.Float64()*0.17)
	if rng.Intn(2) == 0 {
		bow = -bow
	}
	c1 := start.Add(dir.Mul(dist * (0.2 + rng.Float64()*0.2))).Add(perp.Mul(bow))
	c2 := start.Add(dir.Mul(dist * (0.6 + rng.Float64()*0.2))).Add(perp.Mul(bow * (0.3 + rng.Float64()*0.5)))

	points := make([]Vector2D, 0, steps)
	for i := 1; i <= steps; i++ {
		t := easeInOut(float64(i) / float64(steps))
		p := bezier(start, c1, c2, end, t)

		if i < steps {
			drift := Vector2D{
				X: noiseX.Noise1D(t*2.5) * jitter * 3,
				Y: noiseY.Noise1D(t*2.5) * jitter * 3,
			}
			tremor := Vector2D{
				X: rng.NormFloat64() * jitter,
				Y: rng.NormFloat64() * jitter,
			}
			p = p.Add(drift).Add(tremor)
		}
		points = append(points, p)
	}
	points[len(points)-1] = end
	return points
}

// bezier evaluates the cubic bezier with control points c1, c2 at t.
func bezier(p0, c1, c2, p1 Vector2D, t float64) Vector2D {
	u := 1 - t
	return p0.Mul(u * u * u).
		Add(c1.Mul(3 * u * u * t)).
		Add(c2.Mul(3 * u * t * t)).
		Add(p1.Mul(t * t * t))
}

// easeInOut is a smoothstep: slow start, fast middle, slow settle.
func easeInOut(t float64) float64 {
	return t * t * (3 - 2*t)
}
