package core

import "math"

// GravitationalAcceleration is the constant downward acceleration applied to
// every projectile (m/s²).
const GravitationalAcceleration = 9.81

// verticalCosEpsilon is the |cos θ| below which only x = 0 lies on the
// flight path. math.Cos(math.Pi/2) is ~6e-17, not zero.
const verticalCosEpsilon = 1e-12

// Coordinate is one sample of a flight path: X metres downrange from the
// launch point and Y metres above the ground plane.
type Coordinate struct {
	X int
	Y float64
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func radiansToDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

func isVertical(theta float64) bool {
	return math.Abs(math.Cos(theta)) < verticalCosEpsilon
}

// displacement returns the horizontal distance travelled before a projectile
// launched at speed v (m/s), elevation theta (radians) and height h (m)
// returns to y = 0. A vertical launch drifts a sub-metre distance because
// cos θ never evaluates to exactly zero, so its range stays positive and the
// launch point is still sampled.
func displacement(v, theta, h float64) float64 {
	g := GravitationalAcceleration
	vy := v * math.Sin(theta)
	return (v * math.Abs(math.Cos(theta))) * (vy + math.Sqrt(vy*vy+2*g*h)) / g
}

// heightAt evaluates the parabolic flight path at horizontal distance x.
// For a vertical launch only x == 0 is on the path; every other x yields NaN.
func heightAt(v, theta, h, x float64) float64 {
	if isVertical(theta) {
		if x == 0 {
			return h
		}
		return math.NaN()
	}
	g := GravitationalAcceleration
	cos := math.Cos(theta)
	return h + x*math.Tan(theta) - (g*x*x)/(2*v*v*cos*cos)
}

// timeOfFlight is the positive root of h + vy·t − g·t²/2 = 0.
func timeOfFlight(v, theta, h float64) float64 {
	g := GravitationalAcceleration
	vy := v * math.Sin(theta)
	return (vy + math.Sqrt(vy*vy+2*g*h)) / g
}

// apexHeight is the highest point reached above the ground plane.
func apexHeight(v, theta, h float64) float64 {
	vy := v * math.Sin(theta)
	return h + vy*vy/(2*GravitationalAcceleration)
}
