package bus_test

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"servoarm/bus"
)

func TestPinLine(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO2", Num: 2}
	line := &bus.PinLine{Pin: pin}

	line.Low()
	if line.Get() {
		t.Error("line reads high after Low")
	}
	if pin.L != gpio.Low {
		t.Errorf("pin level = %v, want Low", pin.L)
	}

	line.High()
	if !line.Get() {
		t.Error("line reads low after High")
	}
	if pin.P != gpio.PullUp {
		t.Errorf("pin pull = %v, want PullUp", pin.P)
	}
	if err := line.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

var errNotOutput = errors.New("pin cannot drive")

// inputOnlyPin refuses to become an output.
type inputOnlyPin struct {
	*gpiotest.Pin
	calls int
}

func (p *inputOnlyPin) Out(gpio.Level) error {
	p.calls++
	if p.calls == 1 {
		return errNotOutput
	}
	return errors.New("second failure")
}

func TestPinLineKeepsFirstError(t *testing.T) {
	pin := &inputOnlyPin{Pin: &gpiotest.Pin{N: "GPIO3", Num: 3}}
	line := &bus.PinLine{Pin: pin}

	line.High()
	if err := line.Err(); err != nil {
		t.Fatalf("Err() after High = %v", err)
	}

	line.Low()
	line.Low()
	if err := line.Err(); !errors.Is(err, errNotOutput) {
		t.Errorf("Err() = %v, want %v", err, errNotOutput)
	}
}
