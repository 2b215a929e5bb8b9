package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servoarm/bus"
	"servoarm/config"
	"servoarm/pca9685"
)

var discard = slog.New(slog.DiscardHandler)

func TestOpenSimulatedBus(t *testing.T) {
	tr, closeBus, err := openBus(config.BusConfig{Kind: config.BusSimulated}, 3, discard)
	require.NoError(t, err)
	defer closeBus()

	dev := pca9685.New(tr, pca9685.PhaseBalancerNone, pca9685.Options{Delay: func(time.Duration) {}})
	require.NoError(t, dev.Init(3, pca9685.DefaultMode))
	require.NoError(t, dev.SetChannelPWM(0, 300))

	got, err := dev.GetChannelPWM(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(300), got)

	other := pca9685.New(tr, pca9685.PhaseBalancerNone, pca9685.Options{})
	assert.ErrorIs(t, other.Init(5, pca9685.DefaultMode), bus.StatusAddressNACK)
}

func TestOpenBusUnknownKind(t *testing.T) {
	_, _, err := openBus(config.BusConfig{Kind: "spi"}, 0, discard)
	assert.Error(t, err)
}

func TestRunProgramSimulated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wave.arm")
	require.NoError(t, os.WriteFile(path, []byte("# wave\nSH 3\nCS 25\nCO\n"), 0o644))

	*program, *simulate = path, true
	defer func() { *program, *simulate = "", false }()

	require.NoError(t, run(context.Background(), discard))

	*program = filepath.Join(t.TempDir(), "missing.arm")
	assert.Error(t, run(context.Background(), discard))
}

func TestServeNeedsDevice(t *testing.T) {
	*simulate = true
	defer func() { *simulate = false }()

	err := run(context.Background(), discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no serial device")
}
