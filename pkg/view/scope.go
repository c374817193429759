package view

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vango-dev/dippy/pkg/model"
)

// Scope is the handle a RenderFunc receives for one render pass.
type Scope struct {
	node *Node
}

// Node returns the node being rendered.
func (s *Scope) Node() *Node {
	return s.node
}

// New creates a child of the node being rendered. If the node has been
// cleaned meanwhile the child comes back already disposed.
func (s *Scope) New(body RenderFunc, opts ...NodeOption) *Node {
	child := s.node.rt.newNode(body, opts...)
	s.node.attach(child)
	return child
}

// Render creates a child and renders it. It returns ErrDisposed without
// running body when the node has been cleaned.
func (s *Scope) Render(body RenderFunc, opts ...NodeOption) (*Node, error) {
	child := s.node.rt.newNode(body, opts...)
	if !s.node.attach(child) {
		return child, ErrDisposed
	}
	return child.DoRender()
}

// Fetch subscribes m on behalf of the node. The node releases the
// subscription when it is cleaned, or when a later pass no longer fetches
// m. A model already held by the node is recorded again without another
// read, so re-rendering on sync does not re-subscribe.
func (s *Scope) Fetch(m model.Model) error {
	n := s.node
	if n.Disposed() {
		return ErrDisposed
	}

	n.mu.Lock()
	if slices.Contains(n.subs, m) {
		n.mu.Unlock()
		return nil
	}
	n.subs = append(n.subs, m)
	held := slices.Contains(n.carried, m)
	n.mu.Unlock()

	if held {
		return nil
	}
	if err := n.rt.subs.Sync(model.MethodRead, m); err != nil {
		n.mu.Lock()
		n.subs = slices.DeleteFunc(n.subs, func(x model.Model) bool { return x == m })
		n.mu.Unlock()
		return err
	}
	return nil
}

// Listen calls fn on every sync of m until the next render pass of the node
// or its cleanup.
func (s *Scope) Listen(m model.Model, fn func()) {
	n := s.node
	if n.Disposed() {
		return
	}
	remove := m.OnSync(fn)

	n.mu.Lock()
	n.listeners = append(n.listeners, remove)
	n.mu.Unlock()
}

// Rerender renders the node again. It is meant to be passed to Listen.
func (s *Scope) Rerender() {
	if _, err := s.node.DoRender(); err != nil && !errors.Is(err, ErrDisposed) {
		s.node.rt.logger.Warn("re-render failed", "node_id", s.node.id, "node", s.node.cfg.name, "error", err)
	}
}

// Write appends p to the node's content.
func (s *Scope) Write(p []byte) (int, error) {
	s.node.write(string(p))
	return len(p), nil
}

// WriteString appends str to the node's content.
func (s *Scope) WriteString(str string) (int, error) {
	s.node.write(str)
	return len(str), nil
}

// Printf appends formatted text to the node's content.
func (s *Scope) Printf(format string, args ...any) {
	s.node.write(fmt.Sprintf(format, args...))
}

// Link declares a navigation affordance. It is rendered as "[label]" and
// followed with Node.Follow once the pass has completed.
func (s *Scope) Link(label, target string) {
	n := s.node
	n.write("[" + label + "]")
	n.mu.Lock()
	n.links = append(n.links, Link{Label: label, Target: target})
	n.mu.Unlock()
}

// Link is a navigation affordance declared during a render pass.
type Link struct {
	Label  string
	Target string

	nav Navigator
}

// Follow navigates to the link target.
func (l Link) Follow() error {
	if l.nav == nil {
		return ErrNoNavigator
	}
	return l.nav.Navigate(l.Target)
}
