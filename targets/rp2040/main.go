//go:build rp2040

package main

import (
	"context"
	"machine"
	"time"

	"servoarm/arm"
	"servoarm/pca9685"
	"servoarm/protocol"
	"servoarm/servo"
)

// Board wiring
const (
	addressOffset  = 0
	useSoftwareI2C = false
)

func main() {
	// Clear any watchdog state left over from before the reset
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()

	transport, err := newTransport(useSoftwareI2C)
	if err != nil {
		fatal("i2c: ", err)
	}

	driver := pca9685.New(transport, pca9685.DefaultPhaseBalancer, pca9685.Options{})
	seq := arm.New(driver, servo.NewLinear(arm.DefaultN90, arm.DefaultP90))

	ctx := context.Background()
	if err := seq.Setup(ctx, addressOffset, arm.DefaultFrequency); err != nil {
		fatal("setup: ", err)
	}
	println("arm ready")

	geometry := arm.DefaultGeometry()
	exec := protocol.NewExecutor(seq, protocol.ExecutorConfig{Geometry: &geometry})

	link := protocol.NewLink(usbPort{}, nil)
	for {
		if err := exec.Serve(ctx, link); err != nil {
			println("link:", err.Error())
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// fatal reports err on the console forever; the board cannot drive the arm.
func fatal(what string, err error) {
	for {
		println(what + err.Error())
		time.Sleep(time.Second)
	}
}
