// Package sim models PCA9685 chips sitting on an I2C bus. Bus implements the
// same Tx contract as a hardware controller, so it can stand in for real
// hardware behind bus.Wire in tests and in simulation mode.
package sim

import (
	"sync"

	"servoarm/bus"
)

// Register addresses and bits the model interprets.
const (
	regMode1    = 0x00
	regMode2    = 0x01
	regSubAdr1  = 0x02
	regSubAdr2  = 0x03
	regSubAdr3  = 0x04
	regAllCall  = 0x05
	regLED0     = 0x06
	regAllLED   = 0xFA
	regPreScale = 0xFE

	mode1Restart = 0x80
	mode1ExtClk  = 0x40
	mode1AutoInc = 0x20
	mode1Sleep   = 0x10
	mode1Sub1    = 0x08
	mode1Sub2    = 0x04
	mode1Sub3    = 0x02
	mode1AllCall = 0x01

	generalCallAddr = 0x00
	swResetCommand  = 0x06

	oscillatorHz = 25000000
)

// Chip is one simulated PCA9685.
type Chip struct {
	Addr uint8
	Regs [256]byte

	// Writes counts register writes by register address.
	Writes [256]int

	ptr byte
}

// Transaction records one Tx call seen by the bus.
type Transaction struct {
	Addr  uint8
	Write []byte
	Read  int
}

// Bus is a simulated I2C bus carrying one or more chips.
type Bus struct {
	mu sync.Mutex

	chips []*Chip
	log   []Transaction

	failNext bus.Status
}

// NewBus creates a bus with a chip at each of the given 7-bit addresses.
func NewBus(addrs ...uint8) *Bus {
	b := &Bus{}
	for _, a := range addrs {
		b.AddChip(a)
	}
	return b
}

// AddChip attaches a chip in its power-on state.
func (b *Bus) AddChip(addr uint8) *Chip {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := &Chip{Addr: addr & 0x7F}
	c.reset()
	b.chips = append(b.chips, c)
	return c
}

// Chip returns the chip whose own address is addr, or nil.
func (b *Bus) Chip(addr uint8) *Chip {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range b.chips {
		if c.Addr == addr {
			return c
		}
	}
	return nil
}

// Responds reports whether any chip acknowledges addr.
func (b *Bus) Responds(addr uint8) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if addr == generalCallAddr {
		return len(b.chips) > 0
	}
	return len(b.targets(addr)) > 0
}

// FailNext makes the next transaction fail with st.
func (b *Bus) FailNext(st bus.Status) {
	b.mu.Lock()
	b.failNext = st
	b.mu.Unlock()
}

// Transactions returns a copy of the transaction log.
func (b *Bus) Transactions() []Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Transaction, len(b.log))
	copy(out, b.log)
	return out
}

// ResetLog clears the transaction log.
func (b *Bus) ResetLog() {
	b.mu.Lock()
	b.log = nil
	b.mu.Unlock()
}

// Tx implements bus.I2C.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := uint8(addr & 0x7F)
	b.log = append(b.log, Transaction{Addr: a, Write: append([]byte(nil), w...), Read: len(r)})

	if st := b.failNext; st != bus.StatusOK {
		b.failNext = bus.StatusOK
		return st
	}

	if a == generalCallAddr {
		if len(r) > 0 || len(b.chips) == 0 {
			return bus.StatusAddressNACK
		}
		if len(w) > 0 && w[0] == swResetCommand {
			for _, c := range b.chips {
				c.reset()
			}
		}
		return nil
	}

	targets := b.targets(a)
	if len(targets) == 0 {
		return bus.StatusAddressNACK
	}

	if len(w) > 0 {
		for _, c := range targets {
			c.write(w)
		}
	}
	if len(r) > 0 {
		// Group addresses have no unique responder and are write only
		if len(targets) != 1 || targets[0].Addr != a {
			return bus.StatusAddressNACK
		}
		targets[0].read(r)
	}
	return nil
}

func (b *Bus) targets(addr uint8) []*Chip {
	var out []*Chip
	for _, c := range b.chips {
		if c.responds(addr) {
			out = append(out, c)
		}
	}
	return out
}

// Prescale returns the PRE_SCALE register.
func (c *Chip) Prescale() byte {
	return c.Regs[regPreScale]
}

// Frequency returns the output frequency implied by PRE_SCALE, assuming the
// internal oscillator.
func (c *Chip) Frequency() float64 {
	return oscillatorHz / (4096 * (float64(c.Regs[regPreScale]) + 1))
}

// Window returns the raw ON and OFF register pairs of a channel.
func (c *Chip) Window(channel int) (on, off uint16) {
	reg := regLED0 + 4*channel
	on = uint16(c.Regs[reg]) | uint16(c.Regs[reg+1])<<8
	off = uint16(c.Regs[reg+2]) | uint16(c.Regs[reg+3])<<8
	return on, off
}

func (c *Chip) reset() {
	c.Regs = [256]byte{}
	c.Regs[regMode1] = mode1Sleep | mode1AllCall
	c.Regs[regMode2] = 0x04
	c.Regs[regSubAdr1] = 0xE2
	c.Regs[regSubAdr2] = 0xE4
	c.Regs[regSubAdr3] = 0xE8
	c.Regs[regAllCall] = 0xE0
	for ch := 0; ch < 16; ch++ {
		c.Regs[regLED0+4*ch+3] = 0x10
	}
	c.Regs[regPreScale] = 0x1E
	c.ptr = 0
}

func (c *Chip) responds(addr uint8) bool {
	mode1 := c.Regs[regMode1]
	switch {
	case addr == c.Addr:
		return true
	case mode1&mode1AllCall != 0 && c.Regs[regAllCall]>>1 == addr:
		return true
	case mode1&mode1Sub1 != 0 && c.Regs[regSubAdr1]>>1 == addr:
		return true
	case mode1&mode1Sub2 != 0 && c.Regs[regSubAdr2]>>1 == addr:
		return true
	case mode1&mode1Sub3 != 0 && c.Regs[regSubAdr3]>>1 == addr:
		return true
	}
	return false
}

// write handles a write transaction: the first byte selects the register,
// the rest are stored from there on.
func (c *Chip) write(w []byte) {
	c.ptr = w[0]
	for _, v := range w[1:] {
		c.store(c.ptr, v)
		c.advance()
	}
}

func (c *Chip) read(r []byte) {
	for i := range r {
		switch {
		case c.ptr >= regAllLED && c.ptr < regPreScale:
			// ALL_LED registers always read back as zero
			r[i] = 0
		default:
			r[i] = c.Regs[c.ptr]
		}
		c.advance()
	}
}

func (c *Chip) advance() {
	if c.Regs[regMode1]&mode1AutoInc != 0 {
		c.ptr++
	}
}

func (c *Chip) store(reg byte, v byte) {
	c.Writes[reg]++

	switch {
	case reg == regMode1:
		old := c.Regs[regMode1]
		// EXTCLK can only be set while asleep and is only cleared by a reset
		if old&mode1Sleep == 0 {
			v &^= mode1ExtClk
		}
		v |= old & mode1ExtClk

		restart := old & mode1Restart
		if v&mode1Restart != 0 {
			restart = 0
		}
		if old&mode1Sleep == 0 && v&mode1Sleep != 0 {
			restart = mode1Restart
		}
		c.Regs[regMode1] = v&^mode1Restart | restart

	case reg == regPreScale:
		if c.Regs[regMode1]&mode1Sleep == 0 {
			return
		}
		if v < 3 {
			v = 3
		}
		c.Regs[regPreScale] = v

	case reg >= regAllLED && reg < regPreScale:
		off := int(reg - regAllLED)
		for ch := 0; ch < 16; ch++ {
			c.Regs[regLED0+4*ch+off] = v
		}

	default:
		c.Regs[reg] = v
	}
}
