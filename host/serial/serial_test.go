//go:build !wasm

package serial

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	if cfg.Baud != DefaultBaud {
		t.Errorf("Baud = %d, want %d", cfg.Baud, DefaultBaud)
	}
	if cfg.ReadTimeout != 100*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 100ms", cfg.ReadTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{Baud: 9600}, "no device"},
		{Config{Device: "COM3"}, "baud"},
		{Config{Device: "COM3", Baud: 9600, ReadTimeout: -time.Second}, "timeout"},
	}

	for _, tt := range tests {
		err := tt.cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Validate(%+v) = %v, want error containing %q", tt.cfg, err, tt.want)
		}
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Open(nil) succeeded")
	}

	_, err := Open(DefaultConfig("/nonexistent/tty-servoarm"))
	if err == nil || !strings.Contains(err.Error(), "/nonexistent/tty-servoarm") {
		t.Errorf("Open(missing device) = %v", err)
	}
}

type eofPort struct{ closed bool }

func (p *eofPort) Read(b []byte) (int, error)  { return 0, io.EOF }
func (p *eofPort) Write(b []byte) (int, error) { return len(b), nil }
func (p *eofPort) Close() error                { p.closed = true; return nil }

func TestReadTimeoutIsEmptyRead(t *testing.T) {
	inner := &eofPort{}
	p := &NativePort{port: inner, cfg: DefaultConfig("x")}

	n, err := p.Read(make([]byte, 8))
	if n != 0 || err != nil {
		t.Errorf("Read() = %d, %v; want 0, nil", n, err)
	}

	p.cfg.ReadTimeout = 0
	if _, err := p.Read(make([]byte, 8)); !errors.Is(err, io.EOF) {
		t.Errorf("blocking Read() error = %v, want EOF", err)
	}

	if err := p.Close(); err != nil || !inner.closed {
		t.Errorf("Close() = %v, closed = %v", err, inner.closed)
	}
}
