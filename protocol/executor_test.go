package protocol

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servoarm/arm"
	"servoarm/bus"
	"servoarm/pca9685"
	"servoarm/servo"
	"servoarm/sim"
)

func noSleep(time.Duration) {}

func newTestArm(t *testing.T) (*arm.Sequencer, *sim.Bus) {
	t.Helper()
	chips := sim.NewBus(pca9685.BaseAddress)
	dev := pca9685.New(bus.NewWire(chips, 0), pca9685.PhaseBalancerNone, pca9685.Options{Delay: noSleep})
	seq := arm.New(dev, servo.NewLinear(arm.DefaultN90, arm.DefaultP90), arm.WithSleep(noSleep))
	require.NoError(t, seq.Setup(context.Background(), 0, arm.DefaultFrequency))
	return seq, chips
}

func newGuardedExecutor(t *testing.T) (*Executor, *arm.Sequencer) {
	t.Helper()
	seq, _ := newTestArm(t)
	g := arm.DefaultGeometry()
	return NewExecutor(seq, ExecutorConfig{Geometry: &g}), seq
}

func TestExecuteMovesJoints(t *testing.T) {
	exec, seq := newGuardedExecutor(t)
	ctx := context.Background()

	for _, line := range []string{"SH 30", "SV -20", "EV 15", "WV -10", "WR 45", "CS 50"} {
		_, err := exec.ExecuteLine(ctx, line)
		require.NoError(t, err, line)
	}

	assert.Equal(t, [arm.JointCount]float64{30, -20, 15, -10, 45, 50}, seq.Angles())

	_, err := exec.ExecuteLine(ctx, "CC")
	require.NoError(t, err)
	assert.Equal(t, 90.0, seq.Angle(arm.Clamp))

	_, err = exec.ExecuteLine(ctx, "co")
	require.NoError(t, err)
	assert.Equal(t, 20.0, seq.Angle(arm.Clamp))
}

func TestExecuteWritesServoPulse(t *testing.T) {
	seq, chips := newTestArm(t)
	exec := NewExecutor(seq, ExecutorConfig{})

	_, err := exec.ExecuteLine(context.Background(), "WR 90")
	require.NoError(t, err)

	on, off := chips.Chip(pca9685.BaseAddress).Window(int(arm.WristX))
	assert.Equal(t, uint16(0), on)
	assert.Equal(t, uint16(arm.DefaultP90), off)
}

func TestExecuteRefusesCollision(t *testing.T) {
	exec, seq := newGuardedExecutor(t)
	ctx := context.Background()

	_, err := exec.ExecuteLine(ctx, "SV 60")
	require.NoError(t, err)

	_, err = exec.ExecuteLine(ctx, "EV 90")
	assert.ErrorIs(t, err, ErrPossibleCollision)
	assert.Zero(t, seq.Angle(arm.Elbow), "refused move leaves the joint alone")

	unguarded := NewExecutor(seq, ExecutorConfig{})
	_, err = unguarded.ExecuteLine(ctx, "EV 90")
	require.NoError(t, err)
	assert.Equal(t, 90.0, seq.Angle(arm.Elbow))
}

func TestExecuteUnknownAction(t *testing.T) {
	exec, _ := newGuardedExecutor(t)
	err := exec.Execute(context.Background(), Command{Action: "ZZ"})
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestRunProgram(t *testing.T) {
	exec, seq := newGuardedExecutor(t)

	program := "# wave\nSH 10\n\n; elbow\nEV 5\nXX 3\nSH 20\n"
	err := exec.RunProgram(context.Background(), strings.NewReader(program))

	var lineErr *LineError
	require.True(t, errors.As(err, &lineErr), "got %v", err)
	assert.Equal(t, 6, lineErr.Line)
	assert.ErrorIs(t, err, ErrNoCommandFound)

	assert.Equal(t, 10.0, seq.Angle(arm.ShoulderX))
	assert.Equal(t, 5.0, seq.Angle(arm.Elbow))
}

func TestRunProgramCancelled(t *testing.T) {
	exec, seq := newGuardedExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.RunProgram(ctx, strings.NewReader("SH 10\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, seq.Angle(arm.ShoulderX))
}

func TestServe(t *testing.T) {
	exec, seq := newGuardedExecutor(t)
	port, remote := newPipePort()
	link := NewLink(port, nil)
	defer link.Close()

	_, err := remote.Write([]byte("SH 10 [1]\nCS 5 [2]\nEV 3\nCO 1 [3]\nWR 5 [4]\n"))
	require.NoError(t, err)
	require.NoError(t, remote.Close())

	require.NoError(t, exec.Serve(context.Background(), link))

	assert.Equal(t,
		"\nACK [1]\n"+
			"\nNAK [2] ERROR_INVALID_VALUE_FOR_COMMAND\n"+
			"\nNAK [3] ERROR_UNEXPECTED_VALUE\n"+
			"\nACK [4]\n",
		port.written())
	assert.Equal(t, 10.0, seq.Angle(arm.ShoulderX))
	assert.Equal(t, 3.0, seq.Angle(arm.Elbow))
	assert.Equal(t, 5.0, seq.Angle(arm.WristX))
}

func TestServeReportsReadFailure(t *testing.T) {
	exec, seq := newGuardedExecutor(t)
	port, remote := newPipePort()
	link := NewLink(port, nil)
	defer link.Close()

	_, err := remote.Write([]byte("SH 10 [1]\n"))
	require.NoError(t, err)
	require.NoError(t, remote.CloseWithError(errUnplugged))

	err = exec.Serve(context.Background(), link)
	assert.ErrorIs(t, err, errUnplugged)
	assert.ErrorIs(t, err, ErrLinkClosed)

	assert.Equal(t, "\nACK [1]\n", port.written())
	assert.Equal(t, 10.0, seq.Angle(arm.ShoulderX))
}

func TestServeStopsOnCancel(t *testing.T) {
	exec, _ := newGuardedExecutor(t)
	port, _ := newPipePort()
	link := NewLink(port, nil)
	defer link.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, exec.Serve(ctx, link), context.DeadlineExceeded)
}
