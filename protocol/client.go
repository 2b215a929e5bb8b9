package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrRejected is returned by Client.Send when the arm answers NAK.
var ErrRejected = errors.New("command rejected")

// Reply is an arm's answer to a command.
type Reply struct {
	ID     string
	Ack    bool
	Reason string
}

// ParseReply parses an "ACK [id]" or "NAK [id] reason" line.
func ParseReply(line string) (Reply, bool) {
	line = strings.TrimSpace(line)

	var r Reply
	switch {
	case strings.HasPrefix(line, "ACK"):
		r.Ack = true
	case strings.HasPrefix(line, "NAK"):
	default:
		return Reply{}, false
	}

	rest := strings.TrimSpace(line[3:])
	if !strings.HasPrefix(rest, "[") {
		return Reply{}, false
	}
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return Reply{}, false
	}
	r.ID = strings.TrimSpace(rest[1:end])
	r.Reason = strings.TrimSpace(rest[end+1:])
	return r, true
}

// Client sends commands to an arm and waits for each reply in turn.
type Client struct {
	link    *Link
	timeout time.Duration

	mu     sync.Mutex
	nextID uint64
}

// DefaultReplyTimeout covers a full 180 degree move at the default step
// delay with margin.
const DefaultReplyTimeout = 5 * time.Second

// NewClient returns a client that waits up to timeout for every reply.
func NewClient(link *Link, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	return &Client{link: link, timeout: timeout, nextID: 1}
}

// Send transmits cmd, tagging it with a fresh id when it has none, and
// waits for the matching reply. Unrelated lines are skipped.
func (c *Client) Send(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cmd.ID == "" {
		cmd.ID = strconv.FormatUint(c.nextID, 10)
		c.nextID++
	}
	if err := c.link.Send(cmd.String()); err != nil {
		return fmt.Errorf("send %s: %w", cmd, err)
	}

	deadline := time.Now().Add(c.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%s: %w", cmd, ErrTimeout)
		}

		line, err := c.link.Next(remaining)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}

		reply, ok := ParseReply(line)
		if !ok || reply.ID != cmd.ID {
			continue
		}
		if !reply.Ack {
			return fmt.Errorf("%w: %s: %s", ErrRejected, cmd, reply.Reason)
		}
		return nil
	}
}
