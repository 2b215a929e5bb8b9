package bus

import (
	"errors"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// I2C is a hardware bus controller that performs a combined write/read
// transaction. It is the TinyGo drivers bus contract, so machine.I2C and
// periph's i2c.Bus can be passed as they are.
type I2C = drivers.I2C

// ErrClockUnsupported is returned by SetClock when the underlying controller
// has no way to change its rate.
var ErrClockUnsupported = errors.New("bus clock rate cannot be changed")

// baudRateSetter is implemented by TinyGo's machine.I2C.
type baudRateSetter interface {
	SetBaudRate(br uint32) error
}

// speedSetter is implemented by periph's i2c.Bus.
type speedSetter interface {
	SetSpeed(f physic.Frequency) error
}

// Wire adapts a hardware I2C controller to the Transport interface. Writes
// are buffered between BeginTransmission and EndTransmission and sent as a
// single transaction; reads are performed eagerly by RequestFrom.
type Wire struct {
	conn   drivers.I2C
	bufLen int

	addr     uint8
	tx       []byte
	overflow bool

	rx    []byte
	rxPos int

	lastErr error
}

// NewWire wraps conn. bufferLength <= 0 selects DefaultBufferLength.
func NewWire(conn drivers.I2C, bufferLength int) *Wire {
	if bufferLength <= 0 {
		bufferLength = DefaultBufferLength
	}
	return &Wire{
		conn:   conn,
		bufLen: bufferLength,
		tx:     make([]byte, 0, bufferLength),
		rx:     make([]byte, bufferLength),
	}
}

// BeginTransmission implements Transport.
func (w *Wire) BeginTransmission(addr uint8) {
	w.addr = addr & 0x7F
	w.tx = w.tx[:0]
	w.overflow = false
}

// Write implements Transport.
func (w *Wire) Write(b byte) int {
	if len(w.tx) >= w.bufLen {
		w.overflow = true
		return 0
	}
	w.tx = append(w.tx, b)
	return 1
}

// EndTransmission implements Transport.
func (w *Wire) EndTransmission() Status {
	if w.overflow {
		w.tx = w.tx[:0]
		return StatusDataTooLong
	}
	err := w.conn.Tx(uint16(w.addr), w.tx, nil)
	w.tx = w.tx[:0]
	return w.status(err)
}

// RequestFrom implements Transport.
func (w *Wire) RequestFrom(addr uint8, count int) int {
	if count > w.bufLen {
		count = w.bufLen
	}
	if count < 0 {
		count = 0
	}
	w.rx = w.rx[:count]
	w.rxPos = 0
	if count == 0 {
		return 0
	}
	if st := w.status(w.conn.Tx(uint16(addr&0x7F), nil, w.rx)); st != StatusOK {
		w.rx = w.rx[:0]
		return 0
	}
	return count
}

// Read implements Transport.
func (w *Wire) Read() byte {
	if w.rxPos >= len(w.rx) {
		return 0
	}
	b := w.rx[w.rxPos]
	w.rxPos++
	return b
}

// BufferLength implements Transport.
func (w *Wire) BufferLength() int {
	return w.bufLen
}

// SetClock implements Transport.
func (w *Wire) SetClock(hz uint32) error {
	switch c := w.conn.(type) {
	case baudRateSetter:
		return c.SetBaudRate(hz)
	case speedSetter:
		return c.SetSpeed(physic.Frequency(hz) * physic.Hertz)
	}
	return ErrClockUnsupported
}

// LastError returns the error reported by the controller for the most recent
// failed transaction. It carries more detail than the Status code.
func (w *Wire) LastError() error {
	return w.lastErr
}

func (w *Wire) status(err error) Status {
	w.lastErr = err
	if err == nil {
		return StatusOK
	}
	var st Status
	if errors.As(err, &st) {
		return st
	}
	return StatusOther
}
