// Package pca9685 drives the NXP PCA9685 16-channel, 12-bit PWM controller
// over a bus.Transport.
//
// Every operation returns an error and also records the bus status of its
// last transaction, which LastI2CError exposes for callers that poll.
// Out-of-range arguments are clamped, never rejected.
//
// A Device is not safe for concurrent use.
package pca9685

import (
	"errors"
	"time"

	"servoarm/bus"
)

// ErrProxyAddresser is returned by operations that need to read from the
// chip when the device handle addresses a group (AllCall or Sub) address.
var ErrProxyAddresser = errors.New("pca9685: reads not possible through a proxy addresser")

// Options holds construction parameters that rarely change.
type Options struct {
	// SwappedPhaseRegisters writes and reads the OFF register pair before
	// the ON pair, for boards wired to clones with swapped registers.
	SwappedPhaseRegisters bool

	// Delay implements the reset and oscillator settle waits. nil selects
	// time.Sleep.
	Delay func(time.Duration)
}

// Device is a handle to one PCA9685 (or to a group of them when used as a
// proxy addresser).
type Device struct {
	bus      bus.Transport
	addr     uint8
	balancer PhaseBalancer
	proxy    bool
	swapped  bool
	delay    func(time.Duration)
	lastErr  bus.Status
}

// New creates a device handle on t. The handle addresses the chip at
// BaseAddress until Init or InitAsProxyAddresser is called.
func New(t bus.Transport, balancer PhaseBalancer, opts Options) *Device {
	if opts.Delay == nil {
		opts.Delay = time.Sleep
	}
	return &Device{
		bus:      t,
		addr:     BaseAddress,
		balancer: balancer,
		swapped:  opts.SwappedPhaseRegisters,
		delay:    opts.Delay,
	}
}

// I2CAddress returns the 7-bit bus address the handle talks to.
func (d *Device) I2CAddress() uint8 {
	return d.addr
}

// PhaseBalancer returns the balancer chosen at construction.
func (d *Device) PhaseBalancer() PhaseBalancer {
	return d.balancer
}

// IsProxyAddresser reports whether the handle addresses a group address.
func (d *Device) IsProxyAddresser() bool {
	return d.proxy
}

// LastI2CError returns the bus status of the most recent transaction.
func (d *Device) LastI2CError() bus.Status {
	return d.lastErr
}

func (d *Device) writeRegister(reg, value byte) error {
	d.bus.BeginTransmission(d.addr)
	d.bus.Write(reg)
	d.bus.Write(value)
	return d.endTransmission()
}

func (d *Device) readRegister(reg byte) (byte, error) {
	if d.proxy {
		return 0, ErrProxyAddresser
	}

	d.bus.BeginTransmission(d.addr)
	d.bus.Write(reg)
	if err := d.endTransmission(); err != nil {
		return 0, err
	}

	n := d.bus.RequestFrom(d.addr, 1)
	if n != 1 {
		d.drain(n)
		return 0, d.lastErr
	}
	return d.bus.Read(), nil
}

func (d *Device) endTransmission() error {
	d.lastErr = d.bus.EndTransmission()
	return d.lastErr.Err()
}

// drain discards a short read and records it as a bus error.
func (d *Device) drain(n int) {
	for ; n > 0; n-- {
		d.bus.Read()
	}
	d.lastErr = bus.StatusOther
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
