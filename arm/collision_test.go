package arm

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGeometryUpright(t *testing.T) {
	g := DefaultGeometry()
	p := Pose{}

	if h := g.Horizontal(p); !near(h, 0) {
		t.Errorf("Horizontal = %v, want 0", h)
	}
	if v := g.Vertical(p); !near(v, 0.495) {
		t.Errorf("Vertical = %v, want 0.495", v)
	}
}

func TestGeometryBent(t *testing.T) {
	g := DefaultGeometry()
	p := Pose{Shoulder: 90, Elbow: 90}

	if h := g.Horizontal(p); !near(h, 0.105) {
		t.Errorf("Horizontal = %v, want 0.105", h)
	}
	if v := g.Vertical(p); !near(v, -0.12) {
		t.Errorf("Vertical = %v, want -0.12", v)
	}
}

func TestCollides(t *testing.T) {
	g := DefaultGeometry()

	tests := []struct {
		name     string
		from, to Pose
		want     bool
	}{
		{"upright", Pose{}, Pose{Shoulder: 30}, false},
		{"into the plane", Pose{}, Pose{Shoulder: 90, Elbow: 90}, true},
		{"low, same side", Pose{Shoulder: -60, Elbow: -50}, Pose{Shoulder: -60, Elbow: -60}, false},
		{"low, through the base", Pose{Shoulder: 60, Elbow: 60}, Pose{Shoulder: -60, Elbow: -60}, true},
	}
	for _, tt := range tests {
		if got := g.Collides(tt.from, tt.to); got != tt.want {
			t.Errorf("%s: Collides = %v, want %v (ver %.3f)", tt.name, got, tt.want, g.Vertical(tt.to))
		}
	}
}

func TestSequencerPose(t *testing.T) {
	s, _, _ := newTestSequencer()
	s.angles[ShoulderY] = 10
	s.angles[Elbow] = 20
	s.angles[WristY] = 30
	s.angles[WristX] = 40

	if got, want := s.Pose(), (Pose{10, 20, 30}); got != want {
		t.Errorf("Pose() = %+v, want %+v", got, want)
	}
}
