package view

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/dippy/pkg/model"
	"github.com/vango-dev/dippy/pkg/telemetry"
)

// RenderFunc is the body of a view. It writes the node's content and may
// create, render and fetch through s.
type RenderFunc func(s *Scope) error

// NodeOption configures a Node.
type NodeOption func(*nodeConfig)

type nodeConfig struct {
	name        string
	host        Host
	onClose     []func()
	afterRender []Hook
}

// Named sets the node name used in logs and spans.
func Named(name string) NodeOption {
	return func(c *nodeConfig) {
		c.name = name
	}
}

// OnHost attaches a root node to host.
func OnHost(host Host) NodeOption {
	return func(c *nodeConfig) {
		c.host = host
	}
}

// OnClose registers fn to run first when the node is cleaned.
func OnClose(fn func()) NodeOption {
	return func(c *nodeConfig) {
		c.onClose = append(c.onClose, fn)
	}
}

// AfterRender registers a hook run after each of this node's render passes.
func AfterRender(h Hook) NodeOption {
	return func(c *nodeConfig) {
		c.afterRender = append(c.afterRender, h)
	}
}

// segment is a piece of rendered content: literal text or a child's content.
type segment struct {
	text  string
	child *Node
}

// Node is one disposable unit of the view tree.
//
// Structural methods (DoRender, Clean) must run on the client run loop.
// Content, Children, Subscriptions and State may be read from anywhere.
type Node struct {
	id   uint64
	rt   *Runtime
	body RenderFunc
	cfg  nodeConfig

	// parent is a non-owning back reference, cleared on Clean.
	parent *Node
	host   Host

	mu       sync.Mutex
	state    State
	disposed bool
	children []*Node
	segments []segment
	subs     []model.Model
	carried  []model.Model
	links    []Link

	// listeners holds removers for sync listeners of the current pass.
	listeners []func()

	// pending is set when a sync arrives while the node is rendering.
	pending bool
}

// ID returns the node's runtime-unique, increasing identifier.
func (n *Node) ID() uint64 {
	return n.id
}

// Name returns the node name, or "" if none was set.
func (n *Node) Name() string {
	return n.cfg.name
}

// Parent returns the parent node, or nil for roots and cleaned nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Host returns the host n occupies, or nil.
func (n *Node) Host() Host {
	return n.host
}

// State returns the current lifecycle state.
func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Disposed reports whether the node has been cleaned.
func (n *Node) Disposed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.disposed
}

// Children returns a snapshot of the node's children.
func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.children)
}

// Subscriptions returns a snapshot of the models the node fetched.
func (n *Node) Subscriptions() []model.Model {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.subs)
}

// Links returns the navigation links declared by the last render pass.
func (n *Node) Links() []Link {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.links)
}

// Content returns the text of the last render pass, with each child's
// content inlined where the child was created.
func (n *Node) Content() string {
	n.mu.Lock()
	segments := slices.Clone(n.segments)
	n.mu.Unlock()

	var b strings.Builder
	for _, seg := range segments {
		if seg.child != nil {
			if !seg.child.Disposed() {
				b.WriteString(seg.child.Content())
			}
			continue
		}
		b.WriteString(seg.text)
	}
	return b.String()
}

// OnClose registers fn to run first when the node is cleaned.
func (n *Node) OnClose(fn func()) {
	n.cfg.onClose = append(n.cfg.onClose, fn)
}

// attach adds child to n. A child offered to a node that is disposed or
// being cleaned is cleaned at once and reported as not attached.
func (n *Node) attach(child *Node) bool {
	n.mu.Lock()
	if n.disposed || n.state == StateCleaning {
		n.mu.Unlock()
		if err := child.Clean(); err != nil {
			n.rt.logger.Warn("clean orphaned child failed", "node_id", child.id, "error", err)
		}
		return false
	}
	child.parent = n
	n.children = append(n.children, child)
	n.segments = append(n.segments, segment{child: child})
	n.mu.Unlock()
	return true
}

func (n *Node) detach(child *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.children = slices.DeleteFunc(n.children, func(c *Node) bool { return c == child })
	n.segments = slices.DeleteFunc(n.segments, func(s segment) bool { return s.child == child })
}

func (n *Node) write(s string) {
	n.mu.Lock()
	if last := len(n.segments) - 1; last >= 0 && n.segments[last].child == nil {
		n.segments[last].text += s
	} else {
		n.segments = append(n.segments, segment{text: s})
	}
	n.mu.Unlock()
}

// DoRender runs a render pass: the previous children are cleaned, the node
// is pushed on the stack, the body runs, the node is popped and the
// post-render hooks run. The body's error is returned after the stack has
// been restored; a panicking body is re-raised after the pop.
//
// A sync notification that re-renders the node while its body is running
// is deferred and executed as another pass once the current one ends.
func (n *Node) DoRender() (*Node, error) {
	n.mu.Lock()
	switch {
	case n.disposed, n.state == StateCleaning:
		n.mu.Unlock()
		return n, ErrDisposed
	case n.state == StateRendering:
		n.pending = true
		n.mu.Unlock()
		return n, nil
	}
	n.mu.Unlock()

	var err error
	for pass := 1; ; pass++ {
		err = n.renderPass()

		n.mu.Lock()
		again := n.pending && err == nil && !n.disposed
		n.pending = false
		n.mu.Unlock()

		if !again {
			break
		}
		if pass >= maxPasses {
			n.rt.logger.Warn("render did not settle", "node_id", n.id, "node", n.cfg.name, "passes", pass)
			break
		}
	}

	if err == nil && n.rt.stack.Depth() == 0 {
		n.present()
	}
	return n, err
}

func (n *Node) renderPass() (err error) {
	rt := n.rt
	start := time.Now()
	_, span := rt.tracer.Start(context.Background(), "view.render",
		trace.WithAttributes(
			telemetry.AttrNodeID.Int64(int64(n.id)),
			telemetry.AttrNodeName.String(n.cfg.name),
		),
	)

	// (a) reset the previous pass
	n.cleanChildren()
	n.detachListeners()

	n.mu.Lock()
	prevSubs := n.subs
	n.subs = nil
	n.carried = prevSubs
	n.segments = nil
	n.links = nil
	n.state = StateRendering
	n.mu.Unlock()

	completed := false
	defer func() {
		n.reconcileSubs(prevSubs, completed && err == nil)

		n.mu.Lock()
		if !n.disposed {
			n.state = StateMounted
		}
		children := len(n.children)
		n.mu.Unlock()

		rt.metrics.ObserveRender(time.Since(start))
		span.SetAttributes(telemetry.AttrChildren.Int(children))
		if !completed {
			err = fmt.Errorf("view: render of node %d panicked", n.id)
		}
		telemetry.EndSpan(span, err)
	}()

	// (b)-(d) run the body with n on top of the stack
	err = n.runBody()
	completed = true
	if err != nil {
		rt.logger.Debug("render failed", "node_id", n.id, "node", n.cfg.name, "error", err)
		return err
	}

	// (e) post-render hooks
	n.wireLinks()
	for _, h := range rt.afterRender {
		h(n)
	}
	for _, h := range n.cfg.afterRender {
		h(n)
	}
	return nil
}

func (n *Node) runBody() error {
	release := n.rt.stack.enter(n)
	defer release()

	if n.body == nil {
		return nil
	}
	return n.body(&Scope{node: n})
}

// reconcileSubs releases models fetched by the previous pass that the
// current pass did not fetch again. A previous model whose locator was
// fetched again through another model has already been superseded in the
// registry and is dropped without an unsubscribe. After a failed pass the
// previous subscriptions are kept.
func (n *Node) reconcileSubs(prev []model.Model, ok bool) {
	n.mu.Lock()
	if n.disposed {
		n.mu.Unlock()
		return
	}
	n.carried = nil
	current := make(map[string]bool, len(n.subs))
	for _, m := range n.subs {
		if loc, err := m.Locator(); err == nil {
			current[loc] = true
		}
	}
	var stale []model.Model
	for _, m := range prev {
		if slices.Contains(n.subs, m) {
			continue
		}
		if loc, err := m.Locator(); err == nil && current[loc] {
			continue
		}
		if ok {
			stale = append(stale, m)
		} else {
			n.subs = append(n.subs, m)
		}
	}
	n.mu.Unlock()

	for _, m := range stale {
		if err := n.rt.subs.Unsubscribe(m); err != nil {
			n.rt.logger.Warn("release stale subscription failed", "node_id", n.id, "error", err)
		}
	}
}

func (n *Node) wireLinks() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.links {
		n.links[i].nav = n.rt.navigator
	}
}

func (n *Node) present() {
	root := n.Root()
	if root.host == nil {
		return
	}
	if err := root.host.Present(root); err != nil {
		n.rt.logger.Warn("present failed", "host", root.host.Name(), "node_id", root.id, "error", err)
	}
}

// Follow navigates through the link labelled label from the last pass.
func (n *Node) Follow(label string) error {
	for _, l := range n.Links() {
		if l.Label == label {
			return l.Follow()
		}
	}
	return fmt.Errorf("%w: %q", ErrNoLink, label)
}

// cleanChildren cleans every child depth-first and clears the child set.
func (n *Node) cleanChildren() error {
	n.mu.Lock()
	children := n.children
	n.children = nil
	n.segments = slices.DeleteFunc(n.segments, func(s segment) bool { return s.child != nil })
	n.mu.Unlock()

	var errs []error
	for _, c := range children {
		if err := c.Clean(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Node) detachListeners() {
	n.mu.Lock()
	removers := n.listeners
	n.listeners = nil
	n.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
}

// Clean tears the node down: OnClose hooks run, children are cleaned
// depth-first, owned subscriptions are released, listeners are detached
// and any host occupancy is given up. Calling Clean again is a no-op.
// Unsubscribe failures are joined and returned after teardown completes.
func (n *Node) Clean() error {
	n.mu.Lock()
	if n.disposed || n.state == StateCleaning {
		n.mu.Unlock()
		return nil
	}
	n.state = StateCleaning
	n.mu.Unlock()

	for _, fn := range n.cfg.onClose {
		fn()
	}

	var errs []error
	if err := n.cleanChildren(); err != nil {
		errs = append(errs, err)
	}

	n.mu.Lock()
	subs := n.subs
	for _, m := range n.carried {
		if !slices.Contains(subs, m) {
			subs = append(subs, m)
		}
	}
	n.subs = nil
	n.carried = nil
	n.mu.Unlock()
	for _, m := range subs {
		if err := n.rt.subs.Unsubscribe(m); err != nil {
			errs = append(errs, fmt.Errorf("view: node %d: %w", n.id, err))
		}
	}

	n.detachListeners()
	n.rt.hosts.release(n)

	if p := n.parent; p != nil {
		p.detach(n)
		n.parent = nil
	}

	n.mu.Lock()
	n.state = StateUnmounted
	n.disposed = true
	n.segments = nil
	n.links = nil
	n.mu.Unlock()

	n.rt.metrics.RecordCleanup()
	n.rt.logger.Debug("node cleaned", "node_id", n.id, "node", n.cfg.name)
	return errors.Join(errs...)
}
