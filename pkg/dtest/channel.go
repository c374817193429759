package dtest

import (
	"slices"
	"sync"
	"testing"

	"github.com/vango-dev/dippy/pkg/bridge"
	"github.com/vango-dev/dippy/pkg/protocol"
)

// Channel is an in-memory bridge.Channel. Sent frames are recorded and
// inbound frames are injected with Deliver.
type Channel struct {
	mu      sync.Mutex
	handler bridge.Handler
	sent    [][]byte
	sendErr error
	log     *Log
}

var _ bridge.Channel = (*Channel)(nil)

// NewChannel creates a channel with no handler installed.
func NewChannel() *Channel {
	return &Channel{}
}

// WithLog records every successful send as "send <type> <locator>".
func (c *Channel) WithLog(log *Log) *Channel {
	c.log = log
	return c
}

// FailSends makes every subsequent Send return err. Pass nil to recover.
func (c *Channel) FailSends(err error) {
	c.mu.Lock()
	c.sendErr = err
	c.mu.Unlock()
}

// Send implements bridge.Channel.
func (c *Channel) Send(data []byte) error {
	c.mu.Lock()
	if c.sendErr != nil {
		err := c.sendErr
		c.mu.Unlock()
		return err
	}
	c.sent = append(c.sent, slices.Clone(data))
	c.mu.Unlock()

	if c.log != nil {
		if ctrl, err := protocol.DecodeControl(data); err == nil {
			c.log.Add("send " + ctrl.Type.String() + " " + ctrl.Locator)
		}
	}
	return nil
}

// Handler implements bridge.Channel.
func (c *Channel) Handler() bridge.Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler
}

// SetHandler implements bridge.Channel.
func (c *Channel) SetHandler(h bridge.Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// Deliver hands raw to the installed handler, as if the server had sent it.
func (c *Channel) Deliver(raw []byte) {
	if h := c.Handler(); h != nil {
		h(raw)
	}
}

// Push delivers a Fetch frame carrying data for locator.
func (c *Channel) Push(t *testing.T, locator string, data any) {
	t.Helper()
	raw, err := protocol.EncodeFetch(locator, data)
	if err != nil {
		t.Fatalf("encode push for %s: %v", locator, err)
	}
	c.Deliver(raw)
}

// Sent returns copies of all frames written so far.
func (c *Channel) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	for i, f := range c.sent {
		out[i] = slices.Clone(f)
	}
	return out
}

// Controls decodes all frames written so far as control messages.
func (c *Channel) Controls(t *testing.T) []protocol.Control {
	t.Helper()
	var out []protocol.Control
	for _, raw := range c.Sent() {
		ctrl, err := protocol.DecodeControl(raw)
		if err != nil {
			t.Fatalf("sent frame %s is not a control: %v", raw, err)
		}
		out = append(out, ctrl)
	}
	return out
}

// ExpectControls asserts that exactly the given controls were sent, in order.
func ExpectControls(t *testing.T, c *Channel, want ...protocol.Control) {
	t.Helper()
	got := c.Controls(t)
	if !slices.Equal(got, want) {
		t.Errorf("sent controls mismatch\n got: %v\nwant: %v", got, want)
	}
}
