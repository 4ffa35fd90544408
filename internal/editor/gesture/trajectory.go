// internal/editor/gesture/trajectory.go
package gesture

import "math"

// easeInOutCubic accelerates away from the start and decelerates into the end.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// Trajectory returns steps pointer positions from start to end along a cubic
// Bezier curve. bend offsets the control points sideways as a fraction of
// the distance, so a bend of 0 yields a straight line. Samples are spaced
// with ease-in-out timing and the last one is always end.
func Trajectory(start, end Vector2D, steps int, bend float64) []Vector2D {
	if steps < 1 {
		steps = 1
	}
	dist := start.Dist(end)
	if dist < 1.0 || steps == 1 {
		return []Vector2D{end}
	}

	dir := end.Sub(start).Normalize()
	side := dir.Perp().Mul(bend * dist)
	// Control points at a third and two thirds of the way, pushed to the same side.
	p0, p3 := start, end
	p1 := start.Add(dir.Mul(dist / 3.0)).Add(side)
	p2 := start.Add(dir.Mul(dist * 2.0 / 3.0)).Add(side.Mul(0.5))

	path := make([]Vector2D, steps)
	for i := 0; i < steps; i++ {
		t := easeInOutCubic(float64(i+1) / float64(steps))
		omt := 1.0 - t
		omt2 := omt * omt
		t2 := t * t
		path[i] = p0.Mul(omt2 * omt).Add(p1.Mul(3 * omt2 * t)).Add(p2.Mul(3 * omt * t2)).Add(p3.Mul(t2 * t))
	}
	path[steps-1] = end
	return path
}
