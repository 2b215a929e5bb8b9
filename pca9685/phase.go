package pca9685

import (
	"fmt"
	"math/bits"
	"strings"
)

// PhaseBalancer chooses where in the 4096-step cycle each channel's
// active window begins, so that channels switching together do not all
// draw current on the same edge.
type PhaseBalancer uint8

const (
	// PhaseBalancerNone starts every channel at step 0.
	PhaseBalancerNone PhaseBalancer = iota

	// PhaseBalancerLinear starts channel c at c*256.
	PhaseBalancerLinear

	// PhaseBalancerWeaved spreads channels by bisecting the cycle: 0, 2048,
	// 1024, 3072, 512, ... Consecutive channels land as far apart as the
	// remaining gaps allow.
	PhaseBalancerWeaved
)

// DefaultPhaseBalancer is used when none is configured.
const DefaultPhaseBalancer = PhaseBalancerLinear

const phaseStep = PWMSteps / ChannelCount

func (b PhaseBalancer) String() string {
	switch b {
	case PhaseBalancerNone:
		return "none"
	case PhaseBalancerLinear:
		return "linear"
	case PhaseBalancerWeaved:
		return "weaved"
	}
	return fmt.Sprintf("balancer(%d)", uint8(b))
}

// ParsePhaseBalancer parses "none", "linear" or "weaved". The empty string
// selects DefaultPhaseBalancer.
func ParsePhaseBalancer(s string) (PhaseBalancer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultPhaseBalancer, nil
	case "none":
		return PhaseBalancerNone, nil
	case "linear":
		return PhaseBalancerLinear, nil
	case "weaved":
		return PhaseBalancerWeaved, nil
	}
	return 0, fmt.Errorf("unknown phase balancer %q", s)
}

// Phase returns the step at which channel's active window begins. The
// ALL_LED block (AllChannels) always begins at 0.
func (b PhaseBalancer) Phase(channel int) uint16 {
	if channel < 0 {
		return 0
	}
	c := uint8(channel) & 0x0F

	switch b {
	case PhaseBalancerLinear:
		return uint16(c) * phaseStep
	case PhaseBalancerWeaved:
		return uint16(bits.Reverse8(c)>>4) * phaseStep
	}
	return 0
}

// phaseCycle computes the ON/OFF register values for amount active steps
// starting at the channel's phase. Windows running past step 4095 wrap and
// are written with OFF < ON.
func (d *Device) phaseCycle(channel int, amount uint16) (begin, end uint16) {
	begin = d.balancer.Phase(channel)

	switch {
	case amount == 0:
		return begin, PWMFull
	case amount >= PWMSteps:
		return begin | PWMFull, 0
	}
	return begin, (begin + amount) & PWMMask
}
