package bus_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"

	"servoarm/bus"
	"servoarm/sim"
)

type plainConn struct {
	err error
}

func (c *plainConn) Tx(addr uint16, w, r []byte) error { return c.err }

type baudConn struct {
	plainConn
	rate uint32
}

func (c *baudConn) SetBaudRate(br uint32) error {
	c.rate = br
	return nil
}

type speedConn struct {
	plainConn
	speed physic.Frequency
}

func (c *speedConn) SetSpeed(f physic.Frequency) error {
	c.speed = f
	return nil
}

func TestWireWriteIsOneTransaction(t *testing.T) {
	chips := sim.NewBus(0x40)
	w := bus.NewWire(chips, 0)

	require.Equal(t, bus.DefaultBufferLength, w.BufferLength())
	require.Equal(t, bus.StatusOK, writeBytes(w, 0x40, 0x01, 0x10))

	txs := chips.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, uint8(0x40), txs[0].Addr)
	assert.Equal(t, []byte{0x01, 0x10}, txs[0].Write)
	assert.Equal(t, byte(0x10), chips.Chip(0x40).Regs[0x01])
}

func TestHardwareBusFromDriversI2C(t *testing.T) {
	chips := sim.NewBus(0x40)
	var conn drivers.I2C = chips

	tr, err := bus.New(bus.Config{Kind: bus.KindHardware}, bus.Pins{Controller: conn})
	require.NoError(t, err)
	require.Equal(t, bus.StatusOK, writeBytes(tr, 0x40, 0x02, 0xE4))
	assert.Equal(t, byte(0xE4), chips.Chip(0x40).Regs[0x02])
}

func TestWireRequestFrom(t *testing.T) {
	chips := sim.NewBus(0x40)
	w := bus.NewWire(chips, 0)

	require.Equal(t, bus.StatusOK, writeBytes(w, 0x40, 0x05))
	require.Equal(t, 1, w.RequestFrom(0x40, 1))
	assert.Equal(t, byte(0xE0), w.Read())
	assert.Equal(t, byte(0), w.Read())
}

func TestWireStatusFromController(t *testing.T) {
	chips := sim.NewBus(0x40)
	w := bus.NewWire(chips, 0)

	assert.Equal(t, bus.StatusAddressNACK, writeBytes(w, 0x50, 0x00))
	assert.Equal(t, 0, w.RequestFrom(0x50, 4))

	chips.FailNext(bus.StatusDataNACK)
	assert.Equal(t, bus.StatusDataNACK, writeBytes(w, 0x40, 0x00))
}

func TestWireForeignErrorIsOther(t *testing.T) {
	cause := errors.New("ioctl failed")
	w := bus.NewWire(&plainConn{err: cause}, 0)

	assert.Equal(t, bus.StatusOther, writeBytes(w, 0x40, 0x00))
	assert.ErrorIs(t, w.LastError(), cause)
}

func TestWireDataTooLong(t *testing.T) {
	chips := sim.NewBus(0x40)
	w := bus.NewWire(chips, 2)

	assert.Equal(t, bus.StatusDataTooLong, writeBytes(w, 0x40, 0x00, 0x01, 0x02))
	assert.Empty(t, chips.Transactions())

	assert.Equal(t, 2, w.RequestFrom(0x40, 8), "reads are capped at the buffer length")
}

func TestWireSetClock(t *testing.T) {
	bc := &baudConn{}
	require.NoError(t, bus.NewWire(bc, 0).SetClock(bus.ClockFast))
	assert.Equal(t, uint32(400000), bc.rate)

	sc := &speedConn{}
	require.NoError(t, bus.NewWire(sc, 0).SetClock(bus.ClockStandard))
	assert.Equal(t, 100*physic.KiloHertz, sc.speed)

	err := bus.NewWire(&plainConn{}, 0).SetClock(bus.ClockFast)
	assert.ErrorIs(t, err, bus.ErrClockUnsupported)
}

func TestStatusError(t *testing.T) {
	assert.NoError(t, bus.StatusOK.Err())
	assert.EqualError(t, bus.StatusAddressNACK.Err(), "i2c: address not acknowledged")
	assert.EqualError(t, bus.Status(9), "i2c: status 9")
}
