package view

import (
	"fmt"
	"io"
	"sync"
)

// Host is an output surface that holds at most one root node.
// Hosts are compared by identity and must be comparable (use pointers).
type Host interface {
	// Name identifies the host in logs.
	Name() string

	// Present shows the root node after a completed render pass.
	Present(n *Node) error
}

// Hosts maps each host to its current occupant.
type Hosts struct {
	mu        sync.Mutex
	occupants map[Host]*Node
}

func newHosts() *Hosts {
	return &Hosts{occupants: make(map[Host]*Node)}
}

// Occupant returns the node occupying host, or nil.
func (h *Hosts) Occupant(host Host) *Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.occupants[host]
}

// Len returns the number of occupied hosts.
func (h *Hosts) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.occupants)
}

// Nodes returns the current occupants.
func (h *Hosts) Nodes() []*Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Node, 0, len(h.occupants))
	for _, n := range h.occupants {
		out = append(out, n)
	}
	return out
}

// occupy makes n the sole occupant of host. A different previous occupant
// is cleaned first; re-occupying with the same node only resets its
// children.
func (h *Hosts) occupy(host Host, n *Node) {
	h.mu.Lock()
	prev := h.occupants[host]
	h.mu.Unlock()

	switch {
	case prev == n:
		n.cleanChildren()
		return
	case prev != nil:
		if err := prev.Clean(); err != nil {
			n.rt.logger.Warn("previous host occupant cleaned with errors",
				"host", host.Name(), "node_id", prev.ID(), "error", err)
		}
	}

	h.mu.Lock()
	h.occupants[host] = n
	h.mu.Unlock()
	n.host = host
}

// release drops n's occupancy if it still holds its host.
func (h *Hosts) release(n *Node) {
	if n.host == nil {
		return
	}
	h.mu.Lock()
	if h.occupants[n.host] == n {
		delete(h.occupants, n.host)
	}
	h.mu.Unlock()
	n.host = nil
}

// WriterHost presents each render of its occupant on an io.Writer.
type WriterHost struct {
	name string

	mu sync.Mutex
	w  io.Writer
}

// NewWriterHost creates a host writing to w.
func NewWriterHost(name string, w io.Writer) *WriterHost {
	return &WriterHost{name: name, w: w}
}

// Name implements Host.
func (h *WriterHost) Name() string {
	return h.name
}

// Present implements Host.
func (h *WriterHost) Present(n *Node) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	content := n.Content()
	if _, err := io.WriteString(h.w, content); err != nil {
		return fmt.Errorf("view: present on %s: %w", h.name, err)
	}
	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, err := io.WriteString(h.w, "\n")
		return err
	}
	return nil
}
