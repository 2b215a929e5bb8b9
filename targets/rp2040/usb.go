//go:build rp2040

package main

import (
	"machine"
	"time"
)

// InitUSB initializes USB serial communication
// TinyGo automatically sets up USB CDC-ACM on RP2040
func InitUSB() {
	// machine.Serial is USB CDC on RP2040, not UART
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// usbPort presents the USB serial as a blocking io.ReadWriteCloser.
type usbPort struct{}

// Read waits until at least one byte is available.
func (usbPort) Read(b []byte) (int, error) {
	for machine.Serial.Buffered() == 0 {
		// Yield to avoid a busy loop
		time.Sleep(100 * time.Microsecond)
	}
	return machine.Serial.Read(b)
}

// Write writes all of b, handling partial writes.
func (usbPort) Write(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		n, err := machine.Serial.Write(b[written:])
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// Close is a no-op; the USB serial stays up for the board's lifetime.
func (usbPort) Close() error {
	return nil
}
