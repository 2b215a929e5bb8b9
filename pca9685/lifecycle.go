package pca9685

import (
	"math"
	"time"
)

const (
	resetSettle      = 10 * time.Microsecond
	oscillatorSettle = 500 * time.Microsecond
)

// ResetDevices sends the software reset command to the general call
// address. Every PCA9685 on the bus returns to its power-on state.
func (d *Device) ResetDevices() error {
	d.bus.BeginTransmission(GeneralCallAddr)
	d.bus.Write(SoftwareReset)
	err := d.endTransmission()

	d.delay(resetSettle)
	return err
}

// Init selects the chip at BaseAddress | offset (offset clamped to
// [0, MaxAddressOffset]), enables register auto-increment and sets the
// output driver mode. It does nothing on a proxy addresser.
func (d *Device) Init(offset int, mode Mode) error {
	if d.proxy {
		return nil
	}
	d.addr = BaseAddress | uint8(clampInt(offset, 0, MaxAddressOffset))

	if err := d.writeRegister(RegMode1, Mode1Restart|Mode1AutoInc); err != nil {
		return err
	}
	return d.writeRegister(RegMode2, byte(mode))
}

// InitAsProxyAddresser turns the handle into a write-only handle for a group
// address given in register form (AllCallAddress, Sub1Address, ...). The
// chips answering it must have been configured through Enable*Address.
func (d *Device) InitAsProxyAddresser(addr uint8) {
	d.addr = (addr &^ 1) >> 1
	d.proxy = true
}

// Prescaler returns the PRE_SCALE value for an output frequency using the
// internal 25MHz oscillator.
func Prescaler(hz float64) byte {
	v := math.Round(oscillatorHz/(PWMSteps*hz)) - 1
	if math.IsNaN(v) || v < minPrescale {
		return minPrescale
	}
	if v > maxPrescale {
		return maxPrescale
	}
	return byte(v)
}

// SetPWMFrequency programs the output frequency, clamped to
// [MinFrequency, MaxFrequency]. The chip is put to sleep while the
// prescaler is written and restarted afterwards if it was running.
func (d *Device) SetPWMFrequency(hz float64) error {
	if d.proxy {
		return ErrProxyAddresser
	}
	hz = math.Max(MinFrequency, math.Min(MaxFrequency, hz))

	mode1, err := d.readRegister(RegMode1)
	if err != nil {
		return err
	}

	sleep := mode1&^Mode1Restart | Mode1Sleep
	if err := d.writeRegister(RegMode1, sleep); err != nil {
		return err
	}
	if err := d.writeRegister(RegPreScale, Prescaler(hz)); err != nil {
		return err
	}
	wake := sleep &^ Mode1Sleep
	if err := d.writeRegister(RegMode1, wake); err != nil {
		return err
	}

	d.delay(oscillatorSettle)
	if mode1&Mode1Sleep == 0 {
		return d.writeRegister(RegMode1, wake|Mode1Restart)
	}
	return nil
}

// EnableExtClockLine switches the chip to the clock on its EXTCLK pin. The
// chip only leaves external clock mode on a reset.
func (d *Device) EnableExtClockLine() error {
	mode1, err := d.readRegister(RegMode1)
	if err != nil {
		return err
	}

	sleep := mode1&^Mode1Restart | Mode1Sleep
	if err := d.writeRegister(RegMode1, sleep); err != nil {
		return err
	}
	ext := sleep | Mode1ExtClk
	if err := d.writeRegister(RegMode1, ext); err != nil {
		return err
	}
	if err := d.writeRegister(RegMode1, ext&^Mode1Sleep|Mode1Restart); err != nil {
		return err
	}

	d.delay(oscillatorSettle)
	return nil
}
