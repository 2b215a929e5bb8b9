package bus

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind selects a Transport implementation.
type Kind uint8

const (
	KindHardware Kind = iota // Hardware I2C controller (Wire)
	KindSoftware             // Bit-banged GPIO lines (SoftwareBus)
)

func (k Kind) String() string {
	switch k {
	case KindHardware:
		return "hardware"
	case KindSoftware:
		return "software"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind parses "hardware" or "software".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hardware", "hw":
		return KindHardware, nil
	case "software", "sw":
		return KindSoftware, nil
	}
	return 0, fmt.Errorf("unknown bus kind %q", s)
}

// Config describes how to build a Transport.
type Config struct {
	Kind         Kind
	ClockHz      uint32
	BufferLength int

	// Delay overrides the software bus delay primitive (tests).
	Delay func(time.Duration)
}

// Pins carries the resources a Transport may be built on. Only the field
// required by the selected Kind needs to be set.
type Pins struct {
	Controller I2C
	SDA, SCL   Line
}

// New builds the Transport selected by cfg and applies its clock rate.
func New(cfg Config, pins Pins) (Transport, error) {
	var t Transport
	switch cfg.Kind {
	case KindHardware:
		if pins.Controller == nil {
			return nil, errors.New("hardware bus requires an I2C controller")
		}
		t = NewWire(pins.Controller, cfg.BufferLength)
	case KindSoftware:
		if pins.SDA == nil || pins.SCL == nil {
			return nil, errors.New("software bus requires SDA and SCL lines")
		}
		return NewSoftwareBus(pins.SDA, pins.SCL, SoftwareConfig{
			ClockHz:      cfg.ClockHz,
			BufferLength: cfg.BufferLength,
			Delay:        cfg.Delay,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported bus kind %v", cfg.Kind)
	}

	if cfg.ClockHz != 0 {
		if err := t.SetClock(cfg.ClockHz); err != nil && !errors.Is(err, ErrClockUnsupported) {
			return nil, fmt.Errorf("failed to set bus clock to %d Hz: %w", cfg.ClockHz, err)
		}
	}
	return t, nil
}
