package bus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servoarm/bus"
	"servoarm/sim"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    bus.Kind
		wantErr bool
	}{
		{"", bus.KindHardware, false},
		{"hardware", bus.KindHardware, false},
		{" HW ", bus.KindHardware, false},
		{"software", bus.KindSoftware, false},
		{"sw", bus.KindSoftware, false},
		{"spi", 0, true},
	}
	for _, tt := range tests {
		got, err := bus.ParseKind(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewHardware(t *testing.T) {
	bc := &baudConn{}
	tr, err := bus.New(bus.Config{Kind: bus.KindHardware, ClockHz: bus.ClockFast}, bus.Pins{Controller: bc})
	require.NoError(t, err)
	assert.IsType(t, &bus.Wire{}, tr)
	assert.Equal(t, uint32(bus.ClockFast), bc.rate)

	// Controllers without a rate setter are accepted as they are
	_, err = bus.New(bus.Config{ClockHz: bus.ClockFast}, bus.Pins{Controller: sim.NewBus(0x40)})
	assert.NoError(t, err)

	_, err = bus.New(bus.Config{Kind: bus.KindHardware}, bus.Pins{})
	assert.Error(t, err)
}

func TestNewSoftware(t *testing.T) {
	target := newLineTarget(sim.NewBus(0x40))
	tr, err := bus.New(bus.Config{Kind: bus.KindSoftware, BufferLength: 16},
		bus.Pins{SDA: target.sda, SCL: target.scl})
	require.NoError(t, err)
	assert.IsType(t, &bus.SoftwareBus{}, tr)
	assert.Equal(t, 16, tr.BufferLength())

	_, err = bus.New(bus.Config{Kind: bus.KindSoftware}, bus.Pins{SDA: target.sda})
	assert.Error(t, err)
}
