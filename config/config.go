// Package config loads the arm daemon's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"servoarm/arm"
	"servoarm/bus"
	"servoarm/host/serial"
	"servoarm/pca9685"
	"servoarm/servo"
)

// BusSimulated selects the in-memory chip model instead of real hardware.
const BusSimulated = "simulated"

// Config is the daemon configuration.
type Config struct {
	Bus    BusConfig     `yaml:"bus"`
	Driver DriverConfig  `yaml:"driver"`
	Servo  ServoConfig   `yaml:"servo"`
	Arm    ArmConfig     `yaml:"arm"`
	Serial serial.Config `yaml:"serial"`
}

// BusConfig selects and tunes the I2C transport.
type BusConfig struct {
	// hardware, software or simulated
	Kind string `yaml:"kind"`
	// Host I2C bus name; empty opens the first one registered
	Device       string `yaml:"device"`
	ClockHz      uint32 `yaml:"clock_hz"`
	BufferLength int    `yaml:"buffer_length"`
	// GPIO names of the bit-banged lines
	SDA string `yaml:"sda"`
	SCL string `yaml:"scl"`
}

// DriverConfig configures the PCA9685.
type DriverConfig struct {
	AddressOffset         int     `yaml:"address_offset"`
	Frequency             float64 `yaml:"frequency"`
	PhaseBalancer         string  `yaml:"phase_balancer"`
	SwappedPhaseRegisters bool    `yaml:"swapped_phase_registers"`

	InvertOutputs bool `yaml:"invert_outputs"`
	ChangeOnAck   bool `yaml:"change_on_ack"`
	// totem_pole or open_drain
	OutputDrive string `yaml:"output_drive"`
	// low, high or high_z
	OutputNotEnabled string `yaml:"output_not_enabled"`
}

// ServoConfig is the servo calibration. Zero is optional; setting it selects
// the three-point curve.
type ServoConfig struct {
	N90  uint16  `yaml:"n90"`
	Zero *uint16 `yaml:"zero"`
	P90  uint16  `yaml:"p90"`
}

// ArmConfig tunes the sequencer.
type ArmConfig struct {
	StepDelay      time.Duration `yaml:"step_delay"`
	ClampOpen      float64       `yaml:"clamp_open"`
	ClampClose     float64       `yaml:"clamp_close"`
	CollisionGuard *bool         `yaml:"collision_guard"`
	Geometry       arm.Geometry  `yaml:"geometry"`
}

// GuardEnabled reports whether vertical moves are checked for collisions.
func (a ArmConfig) GuardEnabled() bool {
	return a.CollisionGuard == nil || *a.CollisionGuard
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *Config) {
	if cfg.Bus.Kind == "" {
		cfg.Bus.Kind = "hardware"
	}
	if cfg.Bus.ClockHz == 0 {
		cfg.Bus.ClockHz = bus.ClockStandard
	}
	if cfg.Bus.BufferLength == 0 {
		cfg.Bus.BufferLength = bus.DefaultBufferLength
	}

	if cfg.Driver.Frequency == 0 {
		cfg.Driver.Frequency = arm.DefaultFrequency
	}
	if cfg.Driver.PhaseBalancer == "" {
		cfg.Driver.PhaseBalancer = pca9685.DefaultPhaseBalancer.String()
	}
	if cfg.Driver.OutputDrive == "" {
		cfg.Driver.OutputDrive = "totem_pole"
	}
	if cfg.Driver.OutputNotEnabled == "" {
		cfg.Driver.OutputNotEnabled = "low"
	}

	if cfg.Servo.N90 == 0 && cfg.Servo.P90 == 0 {
		cfg.Servo.N90 = arm.DefaultN90
		cfg.Servo.P90 = arm.DefaultP90
	}

	if cfg.Arm.StepDelay == 0 {
		cfg.Arm.StepDelay = arm.DefaultStepDelay
	}
	if cfg.Arm.ClampOpen == 0 {
		cfg.Arm.ClampOpen = arm.DefaultClampMin
	}
	if cfg.Arm.ClampClose == 0 {
		cfg.Arm.ClampClose = arm.DefaultClampClose
	}
	geom, def := &cfg.Arm.Geometry, arm.DefaultGeometry()
	if geom.BaseHeight == 0 {
		geom.BaseHeight = def.BaseHeight
	}
	if geom.ShoulderLength == 0 {
		geom.ShoulderLength = def.ShoulderLength
	}
	if geom.ElbowLength == 0 {
		geom.ElbowLength = def.ElbowLength
	}
	if geom.ClampLength == 0 {
		geom.ClampLength = def.ClampLength
	}

	link := serial.DefaultConfig(cfg.Serial.Device)
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = link.Baud
	}
	if cfg.Serial.ReadTimeout == 0 {
		cfg.Serial.ReadTimeout = link.ReadTimeout
	}
}

// Validate rejects values the daemon cannot run with. Values the driver
// clamps on its own (address offset, frequency) are accepted as given.
func (c *Config) Validate() error {
	if c.Bus.Kind != BusSimulated {
		kind, err := bus.ParseKind(c.Bus.Kind)
		if err != nil {
			return fmt.Errorf("bus: %w", err)
		}
		if kind == bus.KindSoftware && (c.Bus.SDA == "" || c.Bus.SCL == "") {
			return fmt.Errorf("bus: software bus needs sda and scl pins")
		}
	}
	if _, err := pca9685.ParsePhaseBalancer(c.Driver.PhaseBalancer); err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	if _, err := c.Driver.Mode(); err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	if c.Servo.P90 < c.Servo.N90 {
		return fmt.Errorf("servo: p90 %d below n90 %d", c.Servo.P90, c.Servo.N90)
	}
	if z := c.Servo.Zero; z != nil && (*z < c.Servo.N90 || *z > c.Servo.P90) {
		return fmt.Errorf("servo: zero %d outside [%d, %d]", *z, c.Servo.N90, c.Servo.P90)
	}
	if c.Arm.StepDelay < 0 {
		return fmt.Errorf("arm: negative step delay %v", c.Arm.StepDelay)
	}
	if c.Arm.ClampOpen < 0 || c.Arm.ClampClose > 90 || c.Arm.ClampOpen > c.Arm.ClampClose {
		return fmt.Errorf("arm: invalid clamp range [%v, %v]", c.Arm.ClampOpen, c.Arm.ClampClose)
	}
	if c.Serial.Baud < 0 || c.Serial.ReadTimeout < 0 {
		return fmt.Errorf("serial: invalid baud %d or read timeout %v", c.Serial.Baud, c.Serial.ReadTimeout)
	}
	return nil
}

// Mode assembles the MODE2 value.
func (d DriverConfig) Mode() (pca9685.Mode, error) {
	var m pca9685.Mode

	switch d.OutputDrive {
	case "totem_pole":
		m |= pca9685.ModeOutDrvTotemPole
	case "open_drain":
		m |= pca9685.ModeOutDrvOpenDrain
	default:
		return 0, fmt.Errorf("unknown output drive %q", d.OutputDrive)
	}

	switch d.OutputNotEnabled {
	case "low":
		m |= pca9685.ModeOutNELow
	case "high":
		m |= pca9685.ModeOutNETpHigh
	case "high_z":
		m |= pca9685.ModeOutNEHighZ
	default:
		return 0, fmt.Errorf("unknown output-not-enabled state %q", d.OutputNotEnabled)
	}

	if d.InvertOutputs {
		m |= pca9685.ModeInvertedOutputs
	}
	if d.ChangeOnAck {
		m |= pca9685.ModeOutputsChangeOnAck
	}
	return m, nil
}

// Evaluator builds the servo angle evaluator.
func (s ServoConfig) Evaluator() *servo.Evaluator {
	if s.Zero != nil {
		return servo.NewCubic(s.N90, *s.Zero, s.P90)
	}
	return servo.NewLinear(s.N90, s.P90)
}

// ArmOptions returns the sequencer options the configuration selects.
func (c *Config) ArmOptions() ([]arm.Option, error) {
	mode, err := c.Driver.Mode()
	if err != nil {
		return nil, err
	}
	return []arm.Option{
		arm.WithStepDelay(c.Arm.StepDelay),
		arm.WithClampRange(c.Arm.ClampOpen, c.Arm.ClampClose),
		arm.WithMode(mode),
	}, nil
}
