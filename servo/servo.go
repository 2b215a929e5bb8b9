// Package servo converts servo angles into PCA9685 PWM amounts.
package servo

import "math"

// Default calibration: 2.5% and 12.5% of the 4096 step cycle for -90 and
// +90 degrees.
const (
	DefaultN90 = 102
	DefaultP90 = 512
)

const (
	maxAmount = 4096
	minAngle  = -90
	maxAngle  = 90
	halfSpan  = 90.0
)

// segment is the cubic a + b*t + c*t^2 + d*t^3, with t measured in degrees
// from origin.
type segment struct {
	origin     float64
	a, b, c, d float64
}

func (s segment) eval(x float64) float64 {
	t := x - s.origin
	return s.a + t*(s.b+t*(s.c+t*s.d))
}

// Evaluator maps an angle in [-90, 90] to a PWM amount. It is immutable
// and safe for concurrent use.
type Evaluator struct {
	cubic bool
	seg   [2]segment
}

// NewLinear interpolates linearly between the amounts for -90 and +90
// degrees. p90 is raised to n90 if lower; both are capped at 4096.
func NewLinear(n90, p90 uint16) *Evaluator {
	n90 = min(n90, maxAmount)
	p90 = max(min(p90, maxAmount), n90)
	return linear(float64(n90), float64(p90))
}

// NewCubic interpolates through three calibration points for servos whose
// center is not halfway between the extremes. The curve is monotone: a
// higher angle never yields a lower amount. A zero amount that is exactly
// halfway falls back to linear interpolation.
func NewCubic(n90, zero, p90 uint16) *Evaluator {
	n90 = min(n90, maxAmount)
	zero = max(min(zero, maxAmount), n90)
	p90 = max(min(p90, maxAmount), zero)

	if 2*uint32(zero) == uint32(n90)+uint32(p90) {
		return linear(float64(n90), float64(p90))
	}

	y0, y1, y2 := float64(n90), float64(zero), float64(p90)
	d0 := (y1 - y0) / halfSpan
	d1 := (y2 - y1) / halfSpan

	// Fritsch-Carlson tangents: harmonic mean inside, one-sided at the ends,
	// zeroed where they would overshoot.
	var m1 float64
	if d0*d1 > 0 {
		m1 = 2 / (1/d0 + 1/d1)
	}
	m0 := (3*d0 - d1) / 2
	if m0*d0 <= 0 {
		m0 = 0
	}
	m2 := (3*d1 - d0) / 2
	if m2*d1 <= 0 {
		m2 = 0
	}

	return &Evaluator{
		cubic: true,
		seg: [2]segment{
			hermite(minAngle, y0, d0, m0, m1),
			hermite(0, y1, d1, m1, m2),
		},
	}
}

func linear(n90, p90 float64) *Evaluator {
	s := segment{origin: minAngle, a: n90, b: (p90 - n90) / (2 * halfSpan)}
	return &Evaluator{seg: [2]segment{s, s}}
}

// hermite builds the cubic on [origin, origin+90] starting at y with secant
// slope delta and end tangents m0, m1.
func hermite(origin, y, delta, m0, m1 float64) segment {
	return segment{
		origin: origin,
		a:      y,
		b:      m0,
		c:      (3*delta - 2*m0 - m1) / halfSpan,
		d:      (m0 + m1 - 2*delta) / (halfSpan * halfSpan),
	}
}

// IsCubic reports whether three-point interpolation is in use.
func (e *Evaluator) IsCubic() bool {
	return e.cubic
}

// PWMForAngle returns the PWM amount for angle, which is clamped to
// [-90, 90]. The result is rounded and kept within [0, 4096].
func (e *Evaluator) PWMForAngle(angle float64) uint16 {
	if math.IsNaN(angle) {
		angle = 0
	}
	angle = math.Max(minAngle, math.Min(maxAngle, angle))

	s := e.seg[1]
	if angle < 0 {
		s = e.seg[0]
	}
	v := math.Round(s.eval(angle))
	return uint16(math.Max(0, math.Min(maxAmount, v)))
}
