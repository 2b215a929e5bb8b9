package arm

import (
	"fmt"
	"strings"
)

// Joint identifies one of the arm's servos. The value is the PCA9685
// channel the servo is wired to.
type Joint int

const (
	ShoulderX Joint = iota // Shoulder, horizontal
	ShoulderY              // Shoulder, vertical
	Elbow                  // Elbow, vertical
	WristY                 // Wrist, vertical
	WristX                 // Wrist rotation
	Clamp

	JointCount = 6
)

var jointNames = [JointCount]string{
	ShoulderX: "shoulder-x",
	ShoulderY: "shoulder-y",
	Elbow:     "elbow",
	WristY:    "wrist-y",
	WristX:    "wrist-x",
	Clamp:     "clamp",
}

func (j Joint) String() string {
	if j.Valid() {
		return jointNames[j]
	}
	return fmt.Sprintf("joint(%d)", int(j))
}

// Valid reports whether j names one of the six joints.
func (j Joint) Valid() bool {
	return j >= 0 && j < JointCount
}

// ParseJoint parses a joint name as returned by String.
func ParseJoint(s string) (Joint, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for j, name := range jointNames {
		if name == s {
			return Joint(j), nil
		}
	}
	return 0, fmt.Errorf("unknown joint %q", s)
}
