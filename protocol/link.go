package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var (
	ErrTimeout    = errors.New("link: timeout")
	ErrLinkClosed = errors.New("link: closed")
)

const maxLineLength = 256

// Link frames a byte stream into lines. A background goroutine reads the
// port; Next hands out complete lines in order.
type Link struct {
	port io.ReadWriteCloser
	log  *slog.Logger

	lines chan string
	// Set while skipping the tail of an overlong line; read loop only
	discarding bool

	writeMutex sync.Mutex

	// Error that ended the read loop, valid once doneChan is closed
	readErr error

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewLink starts reading port. A nil logger discards.
func NewLink(port io.ReadWriteCloser, log *slog.Logger) *Link {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	l := &Link{
		port:     port,
		log:      log,
		lines:    make(chan string, 16),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}

	go l.readLoop()

	return l
}

// Next returns the next non-empty line, without its terminator. A timeout
// <= 0 waits indefinitely. Once the port is exhausted Next returns the lines
// still queued and then ErrLinkClosed.
func (l *Link) Next(timeout time.Duration) (string, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case line, ok := <-l.lines:
		if !ok {
			return "", l.closedErr()
		}
		return line, nil
	case <-expired:
		return "", ErrTimeout
	case <-l.stopChan:
		return "", ErrLinkClosed
	}
}

func (l *Link) closedErr() error {
	<-l.doneChan
	if l.readErr != nil && !errors.Is(l.readErr, io.EOF) {
		return fmt.Errorf("%w: %w", ErrLinkClosed, l.readErr)
	}
	return ErrLinkClosed
}

// Err returns the read error that ended the link. It is nil while the link
// is open, after a clean end of stream and after Close.
func (l *Link) Err() error {
	select {
	case <-l.doneChan:
	default:
		return nil
	}
	if l.readErr != nil && !errors.Is(l.readErr, io.EOF) {
		return l.readErr
	}
	return nil
}

// Send writes one line.
func (l *Link) Send(line string) error {
	return l.write("%s\n", line)
}

// Ack reports that the command with id was executed.
func (l *Link) Ack(id string) error {
	return l.write("\nACK [%s]\n", id)
}

// Nak reports that the command with id was refused.
func (l *Link) Nak(id string, reason error) error {
	return l.write("\nNAK [%s] %v\n", id, reason)
}

func (l *Link) write(format string, args ...any) error {
	msg := []byte(fmt.Sprintf(format, args...))

	l.writeMutex.Lock()
	defer l.writeMutex.Unlock()

	n, err := l.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}
	return nil
}

// Close stops the read loop and closes the port.
func (l *Link) Close() error {
	var err error
	l.stopOnce.Do(func() {
		close(l.stopChan)
		err = l.port.Close()
	})
	<-l.doneChan
	return err
}

// readLoop reads the port and queues complete lines until the port fails or
// the link is closed.
func (l *Link) readLoop() {
	defer close(l.doneChan)
	defer close(l.lines)

	buffer := make([]byte, 256)
	var pending bytes.Buffer

	for {
		select {
		case <-l.stopChan:
			return
		default:
		}

		n, err := l.port.Read(buffer)
		if n > 0 {
			pending.Write(buffer[:n])
			if !l.dispatch(&pending) {
				return
			}
		}
		if err != nil {
			select {
			case <-l.stopChan:
			default:
				l.readErr = err
				if !errors.Is(err, io.EOF) {
					l.log.Warn("serial read failed", "err", err)
				}
			}
			return
		}
	}
}

// dispatch queues every complete line in pending. It reports false when the
// link was closed while waiting for a reader.
func (l *Link) dispatch(pending *bytes.Buffer) bool {
	for {
		idx := bytes.IndexByte(pending.Bytes(), '\n')
		if idx < 0 {
			if pending.Len() > maxLineLength {
				l.log.Warn("discarding overlong line", "bytes", pending.Len())
				pending.Reset()
				l.discarding = true
			}
			return true
		}

		raw := pending.Next(idx + 1)
		if l.discarding {
			l.discarding = false
			continue
		}
		if idx > maxLineLength {
			l.log.Warn("discarding overlong line", "bytes", idx)
			continue
		}

		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}

		select {
		case l.lines <- line:
		case <-l.stopChan:
			return false
		}
	}
}
