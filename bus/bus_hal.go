// Package bus provides the two-wire transport used by the PCA9685 driver.
//
// The driver is written against Transport only. Two interchangeable
// implementations exist: Wire, which sits on top of a hardware I2C
// controller, and SoftwareBus, which bit-bangs the protocol over two GPIO
// lines.
package bus

import "strconv"

// Standard bus clock rates.
const (
	ClockStandard = 100000  // 100kHz
	ClockFast     = 400000  // 400kHz
	ClockFastPlus = 1000000 // 1MHz
)

// DefaultBufferLength matches the transmit/receive buffer of the common
// microcontroller I2C libraries.
const DefaultBufferLength = 32

// Status is the result code of a bus transaction. It follows the codes
// returned by the Arduino Wire endTransmission call.
type Status uint8

const (
	StatusOK          Status = 0 // Success
	StatusDataTooLong Status = 1 // Data too long to fit in transmit buffer
	StatusAddressNACK Status = 2 // NACK received on transmit of address
	StatusDataNACK    Status = 3 // NACK received on transmit of data
	StatusOther       Status = 4 // Other error
	StatusTimeout     Status = 5 // Bus timeout (clock stretching or arbitration)
)

// Error implements error so a Status can be returned directly.
func (s Status) Error() string {
	switch s {
	case StatusOK:
		return "i2c: success"
	case StatusDataTooLong:
		return "i2c: data too long for transmit buffer"
	case StatusAddressNACK:
		return "i2c: address not acknowledged"
	case StatusDataNACK:
		return "i2c: data not acknowledged"
	case StatusOther:
		return "i2c: bus error"
	case StatusTimeout:
		return "i2c: timeout"
	}
	return "i2c: status " + strconv.Itoa(int(s))
}

// Err returns nil for StatusOK and the status itself otherwise.
func (s Status) Err() error {
	if s == StatusOK {
		return nil
	}
	return s
}

// Transport is the abstract bus capability set the driver core uses.
// Addresses are 7-bit.
type Transport interface {
	// BeginTransmission starts queuing a write to the device at addr.
	BeginTransmission(addr uint8)

	// Write queues one byte and reports how many bytes were accepted (0 when
	// the transmit buffer is full).
	Write(b byte) int

	// EndTransmission sends the queued bytes and returns the bus status.
	EndTransmission() Status

	// RequestFrom reads up to count bytes from the device at addr into the
	// receive buffer and returns how many are available.
	RequestFrom(addr uint8, count int) int

	// Read returns the next received byte, or 0 when none are left.
	Read() byte

	// BufferLength returns the maximum number of bytes per transmission.
	BufferLength() int

	// SetClock changes the bus clock rate.
	SetClock(hz uint32) error
}
