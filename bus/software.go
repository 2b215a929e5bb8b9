package bus

import (
	"errors"
	"time"
)

// Line is one open-drain bus line. High releases the line so the pull-up
// takes it high; Low actively drives it low.
type Line interface {
	High()
	Low()
	Get() bool
}

// SoftwareConfig holds the timing parameters of a bit-banged bus.
type SoftwareConfig struct {
	// Clock rate in Hz. 0 selects ClockStandard.
	ClockHz uint32

	// BufferLength bounds a single transmission. 0 selects DefaultBufferLength.
	BufferLength int

	// StretchLimit is how many half periods a target may hold SCL low before
	// the transaction fails with StatusTimeout. 0 selects 1000.
	StretchLimit int

	// Delay waits between clock transitions. nil selects time.Sleep.
	Delay func(time.Duration)
}

// SoftwareBus implements Transport by bit-banging the I2C protocol over two
// GPIO lines. It supports standard and fast mode rates; the achievable rate
// depends on the host's delay resolution.
type SoftwareBus struct {
	sda, scl Line

	halfPeriod   time.Duration
	stretchLimit int
	delay        func(time.Duration)
	bufLen       int

	addr     uint8
	tx       []byte
	overflow bool

	rx    []byte
	rxPos int
}

var errStretchTimeout = errors.New("clock stretch timeout")

// NewSoftwareBus creates a bus on the given lines and leaves both released.
func NewSoftwareBus(sda, scl Line, cfg SoftwareConfig) *SoftwareBus {
	if cfg.BufferLength <= 0 {
		cfg.BufferLength = DefaultBufferLength
	}
	if cfg.StretchLimit <= 0 {
		cfg.StretchLimit = 1000
	}
	if cfg.Delay == nil {
		cfg.Delay = time.Sleep
	}
	b := &SoftwareBus{
		sda:          sda,
		scl:          scl,
		stretchLimit: cfg.StretchLimit,
		delay:        cfg.Delay,
		bufLen:       cfg.BufferLength,
		tx:           make([]byte, 0, cfg.BufferLength),
		rx:           make([]byte, cfg.BufferLength),
	}
	b.setHalfPeriod(cfg.ClockHz)
	b.sda.High()
	b.scl.High()
	return b
}

func (b *SoftwareBus) setHalfPeriod(hz uint32) {
	if hz == 0 {
		hz = ClockStandard
	}
	// Two transitions per bit, so half period is 1 / (2 * rate)
	b.halfPeriod = time.Duration(500000000/hz) * time.Nanosecond
}

// BeginTransmission implements Transport.
func (b *SoftwareBus) BeginTransmission(addr uint8) {
	b.addr = addr & 0x7F
	b.tx = b.tx[:0]
	b.overflow = false
}

// Write implements Transport.
func (b *SoftwareBus) Write(v byte) int {
	if len(b.tx) >= b.bufLen {
		b.overflow = true
		return 0
	}
	b.tx = append(b.tx, v)
	return 1
}

// EndTransmission implements Transport.
func (b *SoftwareBus) EndTransmission() Status {
	defer func() { b.tx = b.tx[:0] }()
	if b.overflow {
		return StatusDataTooLong
	}

	if err := b.start(); err != nil {
		return StatusTimeout
	}
	ack, err := b.writeByte(b.addr << 1)
	if err != nil {
		b.stop()
		return StatusTimeout
	}
	if !ack {
		b.stop()
		return StatusAddressNACK
	}
	for _, v := range b.tx {
		ack, err = b.writeByte(v)
		if err != nil {
			b.stop()
			return StatusTimeout
		}
		if !ack {
			b.stop()
			return StatusDataNACK
		}
	}
	if err := b.stop(); err != nil {
		return StatusTimeout
	}
	return StatusOK
}

// RequestFrom implements Transport.
func (b *SoftwareBus) RequestFrom(addr uint8, count int) int {
	if count > b.bufLen {
		count = b.bufLen
	}
	if count < 0 {
		count = 0
	}
	b.rx = b.rx[:0]
	b.rxPos = 0
	if count == 0 {
		return 0
	}

	if err := b.start(); err != nil {
		return 0
	}
	ack, err := b.writeByte((addr&0x7F)<<1 | 1)
	if err != nil || !ack {
		b.stop()
		return 0
	}
	for i := 0; i < count; i++ {
		v, err := b.readByte(i < count-1)
		if err != nil {
			b.stop()
			return len(b.rx)
		}
		b.rx = append(b.rx, v)
	}
	b.stop()
	return len(b.rx)
}

// Read implements Transport.
func (b *SoftwareBus) Read() byte {
	if b.rxPos >= len(b.rx) {
		return 0
	}
	v := b.rx[b.rxPos]
	b.rxPos++
	return v
}

// BufferLength implements Transport.
func (b *SoftwareBus) BufferLength() int {
	return b.bufLen
}

// SetClock implements Transport.
func (b *SoftwareBus) SetClock(hz uint32) error {
	b.setHalfPeriod(hz)
	return nil
}

// start issues a START condition: SDA falls while SCL is high.
func (b *SoftwareBus) start() error {
	b.sda.High()
	if err := b.releaseClock(); err != nil {
		return err
	}
	b.wait()
	b.sda.Low()
	b.wait()
	b.scl.Low()
	b.wait()
	return nil
}

// stop issues a STOP condition: SDA rises while SCL is high.
func (b *SoftwareBus) stop() error {
	b.sda.Low()
	b.wait()
	err := b.releaseClock()
	b.wait()
	b.sda.High()
	b.wait()
	return err
}

// writeByte shifts v out MSB first and reports whether the target acknowledged.
func (b *SoftwareBus) writeByte(v byte) (bool, error) {
	for bit := 7; bit >= 0; bit-- {
		if v&(1<<bit) != 0 {
			b.sda.High()
		} else {
			b.sda.Low()
		}
		b.wait()
		if err := b.releaseClock(); err != nil {
			return false, err
		}
		b.wait()
		b.scl.Low()
	}

	// Ninth clock: target pulls SDA low to acknowledge
	b.sda.High()
	b.wait()
	if err := b.releaseClock(); err != nil {
		return false, err
	}
	ack := !b.sda.Get()
	b.wait()
	b.scl.Low()
	return ack, nil
}

// readByte shifts a byte in MSB first and answers with ACK when more bytes
// are wanted, NACK otherwise.
func (b *SoftwareBus) readByte(ack bool) (byte, error) {
	var v byte
	b.sda.High()
	for bit := 7; bit >= 0; bit-- {
		b.wait()
		if err := b.releaseClock(); err != nil {
			return 0, err
		}
		if b.sda.Get() {
			v |= 1 << bit
		}
		b.wait()
		b.scl.Low()
	}

	if ack {
		b.sda.Low()
	} else {
		b.sda.High()
	}
	b.wait()
	if err := b.releaseClock(); err != nil {
		return 0, err
	}
	b.wait()
	b.scl.Low()
	b.sda.High()
	return v, nil
}

// releaseClock lets SCL go high and waits while a target stretches the clock.
func (b *SoftwareBus) releaseClock() error {
	b.scl.High()
	for i := 0; !b.scl.Get(); i++ {
		if i >= b.stretchLimit {
			return errStretchTimeout
		}
		b.delay(b.halfPeriod)
	}
	return nil
}

func (b *SoftwareBus) wait() {
	b.delay(b.halfPeriod)
}
