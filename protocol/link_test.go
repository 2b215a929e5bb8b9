package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipePort reads what the test writes to its pipe and records everything
// the link writes.
type pipePort struct {
	*io.PipeReader

	mu  sync.Mutex
	out bytes.Buffer
}

func newPipePort() (*pipePort, *io.PipeWriter) {
	pr, pw := io.Pipe()
	return &pipePort{PipeReader: pr}, pw
}

func (p *pipePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

func (p *pipePort) written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.String()
}

func TestLinkLines(t *testing.T) {
	port, remote := newPipePort()
	link := NewLink(port, nil)
	defer link.Close()

	_, err := remote.Write([]byte("SV10\r\n\nCO [1]\npart"))
	require.NoError(t, err)

	line, err := link.Next(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "SV10", line)

	line, err = link.Next(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "CO [1]", line)

	_, err = link.Next(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)

	_, err = remote.Write([]byte("ial\n"))
	require.NoError(t, err)
	line, err = link.Next(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "partial", line)

	require.NoError(t, remote.Close())
	_, err = link.Next(time.Second)
	assert.ErrorIs(t, err, ErrLinkClosed)
	assert.NoError(t, link.Err(), "end of stream is a clean close")
}

func TestLinkDropsOverlongLine(t *testing.T) {
	port, remote := newPipePort()
	link := NewLink(port, nil)
	defer link.Close()

	_, err := remote.Write([]byte(strings.Repeat("x", 300) + "\nSV1\n"))
	require.NoError(t, err)

	line, err := link.Next(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "SV1", line)

	_, err = remote.Write([]byte(strings.Repeat("y", 600) + "\nEV2\n"))
	require.NoError(t, err)

	line, err = link.Next(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "EV2", line)
}

var errUnplugged = errors.New("device unplugged")

func TestLinkReadFailure(t *testing.T) {
	port, remote := newPipePort()
	link := NewLink(port, nil)
	defer link.Close()

	_, err := remote.Write([]byte("SV1\n"))
	require.NoError(t, err)
	require.NoError(t, remote.CloseWithError(errUnplugged))

	line, err := link.Next(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "SV1", line)

	_, err = link.Next(time.Second)
	assert.ErrorIs(t, err, ErrLinkClosed)
	assert.ErrorIs(t, err, errUnplugged)
	assert.ErrorIs(t, link.Err(), errUnplugged)
}

func TestLinkReplies(t *testing.T) {
	port, _ := newPipePort()
	link := NewLink(port, nil)
	defer link.Close()

	require.NoError(t, link.Ack("4"))
	require.NoError(t, link.Nak("5", ErrInvalidValue))
	require.NoError(t, link.Send("CO [6]"))

	assert.Equal(t, "\nACK [4]\n\nNAK [5] ERROR_INVALID_VALUE_FOR_COMMAND\nCO [6]\n", port.written())
}

func TestLinkClose(t *testing.T) {
	port, _ := newPipePort()
	link := NewLink(port, nil)

	require.NoError(t, link.Close())
	_, err := link.Next(time.Second)
	assert.ErrorIs(t, err, ErrLinkClosed)
	assert.NoError(t, link.Err())

	// Closing twice is harmless
	assert.NoError(t, link.Close())
}
