package arm

import "math"

// Geometry holds the arm's segment lengths in meters.
type Geometry struct {
	BaseHeight     float64 `yaml:"base_height"`
	ShoulderLength float64 `yaml:"shoulder_length"`
	ElbowLength    float64 `yaml:"elbow_length"`
	ClampLength    float64 `yaml:"clamp_length"`
}

// DefaultGeometry returns the dimensions of the stock arm.
func DefaultGeometry() Geometry {
	return Geometry{
		BaseHeight:     0.135,
		ShoulderLength: 0.105,
		ElbowLength:    0.100,
		ClampLength:    0.155,
	}
}

// Pose is the angle in degrees of the three vertical joints. Each angle is
// relative to the previous segment; 0 everywhere points the arm straight up.
type Pose struct {
	Shoulder, Elbow, Wrist float64
}

// Pose returns the vertical joints' last commanded angles.
func (s *Sequencer) Pose() Pose {
	return Pose{
		Shoulder: s.angles[ShoulderY],
		Elbow:    s.angles[Elbow],
		Wrist:    s.angles[WristY],
	}
}

// Horizontal returns the clamp tip's horizontal distance from the base axis.
func (g Geometry) Horizontal(p Pose) float64 {
	sh, el, wr := p.cumulative()
	return g.ShoulderLength*math.Sin(sh) +
		g.ElbowLength*math.Sin(el) +
		g.ClampLength*math.Sin(wr)
}

// Vertical returns the clamp tip's height above the plane the arm sits on.
func (g Geometry) Vertical(p Pose) float64 {
	sh, el, wr := p.cumulative()
	return g.BaseHeight +
		g.ShoulderLength*math.Cos(sh) +
		g.ElbowLength*math.Cos(el) +
		g.ClampLength*math.Cos(wr)
}

// Collides reports whether moving from one pose to another may hit the
// plane or swing the clamp through the base. A target above the plane is
// safe when it is higher than the base or stays on the same side of it.
func (g Geometry) Collides(from, to Pose) bool {
	ver := g.Vertical(to)
	if ver <= 0 {
		return true
	}
	if ver >= g.BaseHeight {
		return false
	}

	hor, prev := g.Horizontal(to), g.Horizontal(from)
	return (hor >= 0) != (prev >= 0)
}

func (p Pose) cumulative() (sh, el, wr float64) {
	const rad = math.Pi / 180
	sh = p.Shoulder * rad
	el = (p.Shoulder + p.Elbow) * rad
	wr = (p.Shoulder + p.Elbow + p.Wrist) * rad
	return sh, el, wr
}
