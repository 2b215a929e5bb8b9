//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers"

	"servoarm/bus"
)

// Pins of the bit-banged bus
const (
	softSDA = machine.GPIO16
	softSCL = machine.GPIO17
)

// newTransport returns the bus the PWM controller hangs off. I2C0 uses
// TinyGo's default pins: SDA=GP4, SCL=GP5.
func newTransport(software bool) (bus.Transport, error) {
	if software {
		return bus.New(bus.Config{Kind: bus.KindSoftware, ClockHz: bus.ClockFast}, bus.Pins{
			SDA: pinLine(softSDA),
			SCL: pinLine(softSCL),
		})
	}

	i2c := machine.I2C0
	err := i2c.Configure(machine.I2CConfig{
		Frequency: bus.ClockFast,
	})
	if err != nil {
		return nil, err
	}
	var conn drivers.I2C = i2c
	return bus.New(bus.Config{Kind: bus.KindHardware}, bus.Pins{Controller: conn})
}

// pinLine drives a GPIO as an open-drain line: released to the pull-up for
// high, driven to ground for low.
type pinLine machine.Pin

func (p pinLine) High() {
	machine.Pin(p).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}

func (p pinLine) Low() {
	pin := machine.Pin(p)
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
}

func (p pinLine) Get() bool {
	return machine.Pin(p).Get()
}
