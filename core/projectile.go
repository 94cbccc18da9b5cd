package core

import (
	"fmt"
	"math"
)

// DefaultMaxRange caps the horizontal range (metres) that Coordinates will
// sample. One coordinate is produced per metre of range.
const DefaultMaxRange = 100000.0

// Projectile holds the launch parameters of an idealised projectile moving
// in a vertical plane under constant gravity.
//
// The angle is stored in radians; Angle reports it back in whole degrees.
type Projectile struct {
	speed    float64
	height   float64
	angle    float64
	maxRange float64
}

// ProjectileOption customises Projectile construction.
type ProjectileOption func(*Projectile)

// WithMaxRange overrides the sampling bound enforced by Coordinates.
// Non-positive values keep the default.
func WithMaxRange(metres float64) ProjectileOption {
	return func(p *Projectile) {
		if metres > 0 {
			p.maxRange = metres
		}
	}
}

// NewProjectile validates the launch parameters and returns a Projectile.
// speed is in m/s, height in metres and angle in degrees.
func NewProjectile(speed, height, angle float64, opts ...ProjectileOption) (*Projectile, error) {
	if err := validateSpeed(speed); err != nil {
		return nil, err
	}
	if err := validateHeight(height); err != nil {
		return nil, err
	}
	if err := validateAngle(angle); err != nil {
		return nil, err
	}

	p := &Projectile{
		speed:    speed,
		height:   height,
		angle:    degreesToRadians(angle),
		maxRange: DefaultMaxRange,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Speed returns the launch speed in m/s.
func (p *Projectile) Speed() float64 { return p.speed }

// Height returns the launch height in metres.
func (p *Projectile) Height() float64 { return p.height }

// Angle returns the launch angle rounded to the nearest whole degree, with
// halves rounded to even (44.5° reports as 44).
func (p *Projectile) Angle() int {
	return int(math.RoundToEven(radiansToDegrees(p.angle)))
}

// AngleRadians returns the stored launch angle at full precision.
func (p *Projectile) AngleRadians() float64 { return p.angle }

// MaxRange returns the sampling bound enforced by Coordinates.
func (p *Projectile) MaxRange() float64 { return p.maxRange }

// SetSpeed updates the launch speed. The projectile is left untouched on error.
func (p *Projectile) SetSpeed(speed float64) error {
	if err := validateSpeed(speed); err != nil {
		return err
	}
	p.speed = speed
	return nil
}

// SetHeight updates the launch height. The projectile is left untouched on error.
func (p *Projectile) SetHeight(height float64) error {
	if err := validateHeight(height); err != nil {
		return err
	}
	p.height = height
	return nil
}

// SetAngle updates the launch angle, given in degrees.
// The projectile is left untouched on error.
func (p *Projectile) SetAngle(angle float64) error {
	if err := validateAngle(angle); err != nil {
		return err
	}
	p.angle = degreesToRadians(angle)
	return nil
}

// Range returns the horizontal distance in metres from launch to ground
// impact. It is recomputed from the current parameters on every call.
func (p *Projectile) Range() float64 {
	return displacement(p.speed, p.angle, p.height)
}

// HeightAt returns the height of the flight path x metres downrange.
func (p *Projectile) HeightAt(x float64) float64 {
	return heightAt(p.speed, p.angle, p.height, x)
}

// TimeOfFlight returns the seconds from launch to ground impact.
func (p *Projectile) TimeOfFlight() float64 {
	return timeOfFlight(p.speed, p.angle, p.height)
}

// ApexHeight returns the maximum height reached, in metres.
func (p *Projectile) ApexHeight() float64 {
	return apexHeight(p.speed, p.angle, p.height)
}

// Coordinates samples the flight path at every whole metre from the launch
// point up to, but not including, the impact point: x = 0 .. ceil(Range)-1.
//
// It fails with ErrRangeOverflow when the range exceeds MaxRange.
func (p *Projectile) Coordinates() ([]Coordinate, error) {
	d := p.Range()
	if math.IsNaN(d) || math.IsInf(d, 0) || d > p.maxRange {
		return nil, fmt.Errorf("%w: range %.1f m exceeds limit of %.0f m", ErrRangeOverflow, d, p.maxRange)
	}

	n := int(math.Ceil(d))
	if n < 0 {
		n = 0
	}
	coords := make([]Coordinate, 0, n)
	for x := 0; x < n; x++ {
		coords = append(coords, Coordinate{X: x, Y: p.HeightAt(float64(x))})
	}
	return coords, nil
}

// String renders a short human-readable description of the launch.
func (p *Projectile) String() string {
	return fmt.Sprintf("Projectile details:\nspeed: %g m/s\nheight: %g m\nangle: %d°\ndisplacement: %.1f m\n",
		p.speed, p.height, p.Angle(), p.Range())
}

// GoString renders the projectile as a constructor call.
func (p *Projectile) GoString() string {
	return fmt.Sprintf("Projectile(%g, %g, %d)", p.speed, p.height, p.Angle())
}

func validateSpeed(speed float64) error {
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return fmt.Errorf("%w: speed must be a finite value > 0 m/s, got %v", ErrInvalidSpeed, speed)
	}
	return nil
}

func validateHeight(height float64) error {
	if math.IsNaN(height) || math.IsInf(height, 0) || height < 0 {
		return fmt.Errorf("%w: height must be a finite value >= 0 m, got %v", ErrInvalidHeight, height)
	}
	return nil
}

func validateAngle(angle float64) error {
	// NaN fails both comparisons.
	if !(angle >= 0 && angle <= 90) {
		return fmt.Errorf("%w: angle must be within [0, 90] degrees, got %v", ErrInvalidAngle, angle)
	}
	return nil
}
