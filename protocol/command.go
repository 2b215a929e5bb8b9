// Package protocol implements the arm's line-oriented command language and
// the serial link that carries it.
//
// A command is a two letter action, an optional signed integer value and an
// optional bracketed id, e.g. "SV-30 [17]". The arm answers every command
// carrying an id with "ACK [id]" once it has been executed, or
// "NAK [id] reason" when it was refused.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Action is a command mnemonic.
type Action string

const (
	ActionShoulderHorizontal Action = "SH"
	ActionShoulderVertical   Action = "SV"
	ActionElbowVertical      Action = "EV"
	ActionWristRotate        Action = "WR"
	ActionWristVertical      Action = "WV"
	ActionClampOpen          Action = "CO"
	ActionClampClose         Action = "CC"
	ActionClampSet           Action = "CS"
)

// Command errors. The text matches the error keys of the arm's host tools.
var (
	ErrNoCommandFound    = errors.New("ERROR_NO_COMMAND_FOUND")
	ErrInvalidCommand    = errors.New("ERROR_INVALID_COMMAND")
	ErrUnexpectedValue   = errors.New("ERROR_UNEXPECTED_VALUE")
	ErrInvalidValue      = errors.New("ERROR_INVALID_VALUE_FOR_COMMAND")
	ErrPossibleCollision = errors.New("ERROR_POSSIBLE_COLLISION")
)

type actionRule struct {
	hasValue bool
	min, max int
}

var actions = map[Action]actionRule{
	ActionShoulderHorizontal: {true, -90, 90},
	ActionShoulderVertical:   {true, -90, 90},
	ActionElbowVertical:      {true, -90, 90},
	ActionWristRotate:        {true, -90, 90},
	ActionWristVertical:      {true, -90, 90},
	ActionClampSet:           {true, 20, 90},
	ActionClampOpen:          {},
	ActionClampClose:         {},
}

// Actions returns every known action.
func Actions() []Action {
	out := make([]Action, 0, len(actions))
	for a := range actions {
		out = append(out, a)
	}
	return out
}

// Command is one parsed command line.
type Command struct {
	Action   Action
	Value    int
	HasValue bool
	ID       string
}

func (c Command) String() string {
	var sb strings.Builder
	sb.WriteString(string(c.Action))
	if c.HasValue {
		sb.WriteString(strconv.Itoa(c.Value))
	}
	if c.ID != "" {
		sb.WriteString(" [")
		sb.WriteString(c.ID)
		sb.WriteByte(']')
	}
	return sb.String()
}

// ParseLine parses one command line. Actions are case insensitive. A
// missing value reads as 0, which the range check then accepts or refuses.
// The returned Command carries the id even when parsing fails, so the
// failure can be answered.
func ParseLine(line string) (Command, error) {
	var cmd Command

	line = strings.TrimSpace(line)
	line, cmd.ID = splitID(line)

	i := 0
	for i < len(line) && isLetter(line[i]) {
		i++
	}
	if i == 0 {
		return cmd, fmt.Errorf("%w: %q", ErrNoCommandFound, line)
	}

	action := Action(strings.ToUpper(line[:i]))
	rule, ok := actions[action]
	if !ok {
		return cmd, fmt.Errorf("%w: %q", ErrNoCommandFound, line)
	}
	cmd.Action = action

	digits := trailingInt(line[i:])
	if digits != "" {
		v, err := strconv.Atoi(digits)
		if err != nil {
			return cmd, fmt.Errorf("%w: %q", ErrInvalidValue, line)
		}
		cmd.Value = v
		cmd.HasValue = true
	}

	if cmd.HasValue && !rule.hasValue {
		return cmd, fmt.Errorf("%w: %q", ErrUnexpectedValue, line)
	}
	if cmd.Value < rule.min || cmd.Value > rule.max {
		return cmd, fmt.Errorf("%w: %q", ErrInvalidValue, line)
	}
	return cmd, nil
}

// splitID removes a trailing "[id]" from line.
func splitID(line string) (rest, id string) {
	if !strings.HasSuffix(line, "]") {
		return line, ""
	}
	open := strings.LastIndexByte(line, '[')
	if open < 0 {
		return line, ""
	}
	return strings.TrimSpace(line[:open]), strings.TrimSpace(line[open+1 : len(line)-1])
}

// trailingInt returns the optionally signed run of digits ending s.
func trailingInt(s string) string {
	end := len(s)
	start := end
	for start > 0 && isDigit(s[start-1]) {
		start--
	}
	if start == end {
		return ""
	}
	if start > 0 && s[start-1] == '-' {
		start--
	}
	return s[start:end]
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
