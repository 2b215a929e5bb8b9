// Package arm sequences the six servos of a small robotic arm driven by a
// PCA9685. Moves are performed in one degree steps with a fixed pause
// between them, so the servos sweep instead of jumping.
package arm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"servoarm/pca9685"
	"servoarm/servo"
)

const (
	DefaultStepDelay  = 10 * time.Millisecond
	DefaultClampMin   = 20.0
	DefaultClampClose = 90.0
	DefaultFrequency  = 50.0

	// Calibration of the arm's servos: amounts for -90 and +90 degrees.
	DefaultN90 = 102
	DefaultP90 = 470

	minAngle = -90.0
	maxAngle = 90.0
)

var (
	ErrInvalidAngle = errors.New("arm: angle is not a number")
	ErrUnknownJoint = errors.New("arm: unknown joint")
)

// Driver is the part of the PWM controller the sequencer needs.
type Driver interface {
	ResetDevices() error
	Init(offset int, mode pca9685.Mode) error
	SetPWMFrequency(hz float64) error
	SetChannelPWM(channel int, amount uint16) error
}

// AngleMapper converts an angle in degrees to a PWM amount.
type AngleMapper interface {
	PWMForAngle(angle float64) uint16
}

var (
	_ Driver      = (*pca9685.Device)(nil)
	_ AngleMapper = (*servo.Evaluator)(nil)
)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithStepDelay sets the pause before each one degree step.
func WithStepDelay(d time.Duration) Option {
	return func(s *Sequencer) {
		if d >= 0 {
			s.stepDelay = d
		}
	}
}

// WithClampRange sets the clamp's most open and closed angles.
func WithClampRange(open, closed float64) Option {
	return func(s *Sequencer) {
		s.clampMin = clampAngle(open)
		s.clampClose = math.Max(s.clampMin, clampAngle(closed))
	}
}

// WithSleep replaces time.Sleep between steps.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *Sequencer) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithMode sets the output configuration Setup passes to the controller.
func WithMode(m pca9685.Mode) Option {
	return func(s *Sequencer) {
		s.mode = m
	}
}

// WithLogger sets the logger. Moves are logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.log = l
		}
	}
}

// Sequencer moves the arm's joints and remembers the last angle commanded
// to each. It is not safe for concurrent use.
type Sequencer struct {
	driver Driver
	eval   AngleMapper

	angles [JointCount]float64

	stepDelay  time.Duration
	clampMin   float64
	clampClose float64
	mode       pca9685.Mode
	sleep      func(time.Duration)
	log        *slog.Logger
}

// New creates a sequencer writing through driver and converting angles with
// eval.
func New(driver Driver, eval AngleMapper, opts ...Option) *Sequencer {
	s := &Sequencer{
		driver:     driver,
		eval:       eval,
		stepDelay:  DefaultStepDelay,
		clampMin:   DefaultClampMin,
		clampClose: DefaultClampClose,
		mode:       pca9685.DefaultMode,
		sleep:      time.Sleep,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resetAngles()
	return s
}

func (s *Sequencer) resetAngles() {
	s.angles = [JointCount]float64{}
	s.angles[Clamp] = s.clampMin
}

// Setup resets every PWM controller on the bus, selects the one at
// addrOffset and sets its output frequency. The angle cache is reset.
func (s *Sequencer) Setup(ctx context.Context, addrOffset int, hz float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.driver.ResetDevices(); err != nil {
		return fmt.Errorf("failed to reset PWM controllers: %w", err)
	}
	if err := s.driver.Init(addrOffset, s.mode); err != nil {
		return fmt.Errorf("failed to initialise PWM controller: %w", err)
	}
	if err := s.driver.SetPWMFrequency(hz); err != nil {
		return fmt.Errorf("failed to set PWM frequency: %w", err)
	}

	s.resetAngles()
	s.log.Info("arm ready", "offset", addrOffset, "frequency", hz)
	return nil
}

// Angle returns the last angle commanded to j.
func (s *Sequencer) Angle(j Joint) float64 {
	if !j.Valid() {
		return 0
	}
	return s.angles[j]
}

// Angles returns the last angle commanded to every joint, indexed by Joint.
func (s *Sequencer) Angles() [JointCount]float64 {
	return s.angles
}

// ClampRange returns the clamp's open and closed angles.
func (s *Sequencer) ClampRange() (open, closed float64) {
	return s.clampMin, s.clampClose
}

func (s *Sequencer) MoveShoulderVertically(ctx context.Context, deg float64) error {
	return s.move(ctx, ShoulderY, deg)
}

func (s *Sequencer) MoveShoulderHorizontally(ctx context.Context, deg float64) error {
	return s.move(ctx, ShoulderX, deg)
}

func (s *Sequencer) MoveElbowVertically(ctx context.Context, deg float64) error {
	return s.move(ctx, Elbow, deg)
}

func (s *Sequencer) MoveWristVertically(ctx context.Context, deg float64) error {
	return s.move(ctx, WristY, deg)
}

func (s *Sequencer) RotateWrist(ctx context.Context, deg float64) error {
	return s.move(ctx, WristX, deg)
}

// OpenClamp opens the clamp fully.
func (s *Sequencer) OpenClamp(ctx context.Context) error {
	return s.move(ctx, Clamp, s.clampMin)
}

// CloseClamp closes the clamp.
func (s *Sequencer) CloseClamp(ctx context.Context) error {
	return s.move(ctx, Clamp, s.clampClose)
}

// SetClamp moves the clamp to deg, kept between the open angle and 90.
func (s *Sequencer) SetClamp(ctx context.Context, deg float64) error {
	if math.IsNaN(deg) {
		return ErrInvalidAngle
	}
	return s.move(ctx, Clamp, math.Max(s.clampMin, math.Min(maxAngle, deg)))
}

// Move moves any joint to deg.
func (s *Sequencer) Move(ctx context.Context, j Joint, deg float64) error {
	if !j.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownJoint, int(j))
	}
	if j == Clamp {
		return s.SetClamp(ctx, deg)
	}
	return s.move(ctx, j, deg)
}

// move sweeps j from its cached angle to deg in one degree steps. The cache
// follows every step that reached the driver.
func (s *Sequencer) move(ctx context.Context, j Joint, to float64) error {
	if math.IsNaN(to) {
		return ErrInvalidAngle
	}
	to = clampAngle(to)

	from := s.angles[j]
	if j == Clamp {
		from = math.Max(from, s.clampMin)
	}
	s.log.Debug("moving joint", "joint", j, "from", from, "to", to)

	dir := 1.0
	if to < from {
		dir = -1
	}
	last := math.NaN()
	for a := from; (a-to)*dir <= 0; a += dir {
		if err := s.step(ctx, j, a); err != nil {
			return s.abort(j, last, err)
		}
		last = a
	}
	if last != to {
		if err := s.step(ctx, j, to); err != nil {
			return s.abort(j, last, err)
		}
	}

	s.angles[j] = to
	return nil
}

func (s *Sequencer) step(ctx context.Context, j Joint, angle float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.sleep(s.stepDelay)
	if err := s.driver.SetChannelPWM(int(j), s.eval.PWMForAngle(angle)); err != nil {
		return fmt.Errorf("failed to move %v to %.1f: %w", j, angle, err)
	}
	return nil
}

func (s *Sequencer) abort(j Joint, last float64, err error) error {
	if !math.IsNaN(last) {
		s.angles[j] = last
	}
	s.log.Warn("move interrupted", "joint", j, "angle", s.angles[j], "err", err)
	return err
}

func clampAngle(a float64) float64 {
	return math.Max(minAngle, math.Min(maxAngle, a))
}
