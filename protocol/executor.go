package protocol

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"servoarm/arm"
)

// pollInterval bounds how long Serve waits on the link before rechecking
// its context.
const pollInterval = 100 * time.Millisecond

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// Geometry enables the collision guard on the vertical joints. Nil
	// disables it.
	Geometry *arm.Geometry
	Logger   *slog.Logger
}

// Executor runs commands against an arm.
type Executor struct {
	arm      *arm.Sequencer
	geometry *arm.Geometry
	log      *slog.Logger
}

func NewExecutor(seq *arm.Sequencer, cfg ExecutorConfig) *Executor {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Executor{arm: seq, geometry: cfg.Geometry, log: log}
}

// Execute runs one parsed command. Vertical moves that the collision guard
// rejects return ErrPossibleCollision without touching the arm.
func (e *Executor) Execute(ctx context.Context, cmd Command) error {
	v := float64(cmd.Value)

	switch cmd.Action {
	case ActionShoulderHorizontal:
		return e.arm.MoveShoulderHorizontally(ctx, v)
	case ActionShoulderVertical:
		if err := e.guard(cmd, func(p *arm.Pose) { p.Shoulder = v }); err != nil {
			return err
		}
		return e.arm.MoveShoulderVertically(ctx, v)
	case ActionElbowVertical:
		if err := e.guard(cmd, func(p *arm.Pose) { p.Elbow = v }); err != nil {
			return err
		}
		return e.arm.MoveElbowVertically(ctx, v)
	case ActionWristVertical:
		if err := e.guard(cmd, func(p *arm.Pose) { p.Wrist = v }); err != nil {
			return err
		}
		return e.arm.MoveWristVertically(ctx, v)
	case ActionWristRotate:
		return e.arm.RotateWrist(ctx, v)
	case ActionClampOpen:
		return e.arm.OpenClamp(ctx)
	case ActionClampClose:
		return e.arm.CloseClamp(ctx)
	case ActionClampSet:
		return e.arm.SetClamp(ctx, v)
	}
	return fmt.Errorf("%w: %q", ErrInvalidCommand, cmd.Action)
}

func (e *Executor) guard(cmd Command, apply func(*arm.Pose)) error {
	if e.geometry == nil {
		return nil
	}
	from := e.arm.Pose()
	to := from
	apply(&to)
	if e.geometry.Collides(from, to) {
		e.log.Warn("move refused", "command", cmd.String(),
			"height", e.geometry.Vertical(to))
		return fmt.Errorf("%w: %s", ErrPossibleCollision, cmd)
	}
	return nil
}

// ExecuteLine parses and runs one command line.
func (e *Executor) ExecuteLine(ctx context.Context, line string) (Command, error) {
	cmd, err := ParseLine(line)
	if err != nil {
		return cmd, err
	}
	return cmd, e.Execute(ctx, cmd)
}

// LineError locates a failed program line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// RunProgram executes a program, one command per line, and stops at the
// first failing line. Blank lines and lines starting with '#' or ';' are
// skipped.
func (e *Executor) RunProgram(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if err := ctx.Err(); err != nil {
			return &LineError{Line: lineNum, Err: err}
		}

		cmd, err := e.ExecuteLine(ctx, line)
		if err != nil {
			return &LineError{Line: lineNum, Err: err}
		}
		e.log.Debug("program step", "line", lineNum, "command", cmd.String())
	}
	return scanner.Err()
}

// Serve executes commands received on link until ctx is done or the link
// closes. Commands carrying an id are answered with ACK or NAK. A link that
// ends on a read error, such as an unplugged device, is reported as an error.
func (e *Executor) Serve(ctx context.Context, link *Link) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := link.Next(pollInterval)
		if errors.Is(err, ErrTimeout) {
			continue
		}
		if errors.Is(err, ErrLinkClosed) && link.Err() == nil {
			return nil
		}
		if err != nil {
			return err
		}

		cmd, err := e.ExecuteLine(ctx, line)
		if err != nil {
			e.log.Info("command failed", "line", line, "err", err)
			if cmd.ID != "" {
				if werr := link.Nak(cmd.ID, reason(err)); werr != nil {
					return werr
				}
			}
			continue
		}

		e.log.Debug("command done", "command", cmd.String())
		if cmd.ID != "" {
			if err := link.Ack(cmd.ID); err != nil {
				return err
			}
		}
	}
}

// reason reduces err to the command error key when there is one.
func reason(err error) error {
	for _, known := range []error{
		ErrNoCommandFound,
		ErrInvalidCommand,
		ErrUnexpectedValue,
		ErrInvalidValue,
		ErrPossibleCollision,
	} {
		if errors.Is(err, known) {
			return known
		}
	}
	return err
}
