package main

import (
	"errors"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"servoarm/bus"
	"servoarm/config"
	"servoarm/pca9685"
	"servoarm/sim"
)

// openBus builds the transport selected by cfg. The returned function
// releases it.
func openBus(cfg config.BusConfig, addrOffset int, log *slog.Logger) (bus.Transport, func() error, error) {
	if cfg.Kind == config.BusSimulated {
		addr := uint8(pca9685.BaseAddress | min(max(addrOffset, 0), pca9685.MaxAddressOffset))
		log.Info("using simulated PWM controller", "address", fmt.Sprintf("0x%02x", addr))
		t := bus.NewWire(sim.NewBus(addr), cfg.BufferLength)
		return t, func() error { return nil }, nil
	}

	kind, err := bus.ParseKind(cfg.Kind)
	if err != nil {
		return nil, nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialise host drivers: %w", err)
	}

	busCfg := bus.Config{
		Kind:         kind,
		ClockHz:      cfg.ClockHz,
		BufferLength: cfg.BufferLength,
	}

	switch kind {
	case bus.KindHardware:
		conn, err := i2creg.Open(cfg.Device)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open I2C bus %q: %w", cfg.Device, err)
		}
		t, err := bus.New(busCfg, bus.Pins{Controller: conn})
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		log.Info("I2C bus open", "bus", conn.String(), "clock", cfg.ClockHz)
		return t, conn.Close, nil

	default:
		sda, scl := gpioreg.ByName(cfg.SDA), gpioreg.ByName(cfg.SCL)
		if sda == nil || scl == nil {
			return nil, nil, fmt.Errorf("unknown GPIO pins sda=%q scl=%q", cfg.SDA, cfg.SCL)
		}
		sdaLine, sclLine := &bus.PinLine{Pin: sda}, &bus.PinLine{Pin: scl}
		t, err := bus.New(busCfg, bus.Pins{SDA: sdaLine, SCL: sclLine})
		if err != nil {
			return nil, nil, err
		}
		// Idle bus: both lines released
		sdaLine.High()
		sclLine.High()
		if err := errors.Join(sdaLine.Err(), sclLine.Err()); err != nil {
			return nil, nil, fmt.Errorf("software I2C bus: %w", err)
		}
		log.Info("software I2C bus", "sda", sda.Name(), "scl", scl.Name(), "clock", cfg.ClockHz)
		return t, func() error { return nil }, nil
	}
}
