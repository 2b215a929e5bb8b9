package bus

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// PinLine drives a periph GPIO as an open-drain bus line: High releases the
// pin to its pull-up, Low drives it to ground.
//
// Line has no error return, so the first pin error is kept and reported by
// Err. A pin that cannot be configured otherwise only shows up as a bus
// timeout.
type PinLine struct {
	Pin gpio.PinIO

	err error
}

var _ Line = (*PinLine)(nil)

func (l *PinLine) High() {
	l.record(l.Pin.In(gpio.PullUp, gpio.NoEdge))
}

func (l *PinLine) Low() {
	l.record(l.Pin.Out(gpio.Low))
}

func (l *PinLine) Get() bool {
	return l.Pin.Read() == gpio.High
}

// Err returns the first error reported by the pin, if any.
func (l *PinLine) Err() error {
	return l.err
}

func (l *PinLine) record(err error) {
	if err != nil && l.err == nil {
		l.err = fmt.Errorf("pin %s: %w", l.Pin.Name(), err)
	}
}
