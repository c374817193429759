package view

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/dippy/pkg/dtest"
	"github.com/vango-dev/dippy/pkg/model"
)

// fakeSubs records reads and releases in a shared log.
type fakeSubs struct {
	log        *dtest.Log
	failUnsub  map[string]error
	syncOnRead bool
	reads      int
}

func (f *fakeSubs) Sync(method model.Method, m model.Model) error {
	loc, err := m.Locator()
	if err != nil {
		return err
	}
	f.reads++
	f.log.Add("subscribe " + loc)
	if f.syncOnRead {
		m.NotifySync()
	}
	return nil
}

func (f *fakeSubs) Unsubscribe(m model.Model) error {
	loc, _ := m.Locator()
	f.log.Add("unsubscribe " + loc)
	return f.failUnsub[loc]
}

func newRuntime(t *testing.T, opts ...RuntimeOption) (*Runtime, *fakeSubs) {
	t.Helper()
	subs := &fakeSubs{log: dtest.NewLog()}
	opts = append([]RuntimeOption{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewRuntime(subs, opts...), subs
}

// recordingHost remembers every presented content.
type recordingHost struct {
	presented []string
}

func (h *recordingHost) Name() string { return "test" }

func (h *recordingHost) Present(n *Node) error {
	h.presented = append(h.presented, n.Content())
	return nil
}

func TestImplicitParentCapture(t *testing.T) {
	rt, _ := newRuntime(t)

	var child *Node
	root := rt.New(func(s *Scope) error {
		s.WriteString("root|")
		child = rt.New(func(s *Scope) error {
			s.WriteString("child|")
			return nil
		})
		_, err := child.DoRender()
		s.WriteString("end")
		return err
	})

	if _, err := root.DoRender(); err != nil {
		t.Fatalf("DoRender: %v", err)
	}
	if child.Parent() != root {
		t.Error("child was not captured by the rendering parent")
	}
	if got := root.Children(); len(got) != 1 || got[0] != child {
		t.Errorf("Children = %v, want [child]", got)
	}
	if got := root.Content(); got != "root|child|end" {
		t.Errorf("Content = %q", got)
	}
	if root.State() != StateMounted || child.State() != StateMounted {
		t.Errorf("states = %s, %s; want Mounted", root.State(), child.State())
	}
	if rt.Stack().Depth() != 0 {
		t.Errorf("stack depth = %d after render", rt.Stack().Depth())
	}
}

func TestDoRenderTwiceLeavesNothingStale(t *testing.T) {
	rt, subs := newRuntime(t)
	game := dtest.NewModel("/games/1")

	var children []*Node
	root := rt.New(func(s *Scope) error {
		if err := s.Fetch(game); err != nil {
			return err
		}
		s.Listen(game, func() {})
		c, err := s.Render(func(s *Scope) error { return nil })
		children = append(children, c)
		return err
	})

	for i := 0; i < 2; i++ {
		if _, err := root.DoRender(); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}

	if len(root.Children()) != 1 {
		t.Errorf("children = %d, want 1", len(root.Children()))
	}
	if !children[0].Disposed() || children[1].Disposed() {
		t.Error("first pass child should be disposed and second pass child live")
	}
	if game.Listeners() != 1 {
		t.Errorf("listeners = %d, want 1", game.Listeners())
	}
	if len(root.Subscriptions()) != 1 {
		t.Errorf("subscriptions = %d, want 1", len(root.Subscriptions()))
	}
	if subs.reads != 1 {
		t.Errorf("reads = %d, want the held model fetched once", subs.reads)
	}
}

func TestRenderReleasesModelsNoLongerFetched(t *testing.T) {
	rt, subs := newRuntime(t)
	a := dtest.NewModel("/games/1")
	b := dtest.NewModel("/games/2")

	current := model.Model(a)
	root := rt.New(func(s *Scope) error {
		return s.Fetch(current)
	})
	_, _ = root.DoRender()
	current = b
	_, _ = root.DoRender()

	dtest.ExpectLog(t, subs.log, "subscribe /games/1", "subscribe /games/2", "unsubscribe /games/1")
	if got := root.Subscriptions(); len(got) != 1 || got[0] != b {
		t.Errorf("Subscriptions = %v, want [b]", got)
	}
}

func TestCleanCascadeOrder(t *testing.T) {
	rt, subs := newRuntime(t)
	log := subs.log

	leaf := func(name string) RenderFunc {
		return func(s *Scope) error {
			return s.Fetch(dtest.NewModel("/" + name))
		}
	}

	var a, b, c *Node
	a = rt.New(func(s *Scope) error {
		if err := s.Fetch(dtest.NewModel("/a")); err != nil {
			return err
		}
		b = s.New(func(s *Scope) error {
			if err := s.Fetch(dtest.NewModel("/b")); err != nil {
				return err
			}
			var err error
			c, err = s.Render(leaf("c"), OnClose(func() { log.Add("close c") }))
			return err
		}, OnClose(func() { log.Add("close b") }))
		_, err := b.DoRender()
		return err
	}, OnClose(func() { log.Add("close a") }))

	if _, err := a.DoRender(); err != nil {
		t.Fatalf("DoRender: %v", err)
	}
	log.Reset()

	if err := a.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}

	dtest.ExpectLog(t, log,
		"close a", "close b", "close c",
		"unsubscribe /c", "unsubscribe /b", "unsubscribe /a",
	)
	for _, n := range []*Node{a, b, c} {
		if !n.Disposed() || n.State() != StateUnmounted {
			t.Errorf("node %d: disposed=%v state=%s", n.ID(), n.Disposed(), n.State())
		}
	}
	if len(a.Subscriptions()) != 0 || len(a.Children()) != 0 {
		t.Error("cleaned node still owns subscriptions or children")
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	rt, subs := newRuntime(t)
	closes := 0
	n := rt.New(func(s *Scope) error {
		return s.Fetch(dtest.NewModel("/games/1"))
	}, OnClose(func() { closes++ }))
	_, _ = n.DoRender()
	subs.log.Reset()

	_ = n.Clean()
	_ = n.Clean()

	if closes != 1 {
		t.Errorf("OnClose ran %d times, want 1", closes)
	}
	dtest.ExpectLog(t, subs.log, "unsubscribe /games/1")

	if _, err := n.DoRender(); !errors.Is(err, ErrDisposed) {
		t.Errorf("DoRender after Clean = %v, want ErrDisposed", err)
	}
}

func TestChildCleanedOnceWhenParentCleans(t *testing.T) {
	rt, _ := newRuntime(t)
	childCleans := 0

	parent := rt.New(func(s *Scope) error {
		_, err := s.Render(func(s *Scope) error { return nil }, OnClose(func() { childCleans++ }))
		return err
	})
	_, _ = parent.DoRender()
	_ = parent.Clean()
	_ = parent.Clean()

	if childCleans != 1 {
		t.Errorf("child cleaned %d times, want 1", childCleans)
	}
	if len(parent.Subscriptions()) != 0 {
		t.Error("parent subscriptions not empty after Clean")
	}
}

func TestCleanJoinsUnsubscribeErrors(t *testing.T) {
	rt, subs := newRuntime(t)
	boom := errors.New("channel closed")
	subs.failUnsub = map[string]error{"/games/1": boom}

	n := rt.New(func(s *Scope) error {
		_ = s.Fetch(dtest.NewModel("/games/1"))
		return s.Fetch(dtest.NewModel("/games/2"))
	})
	_, _ = n.DoRender()

	err := n.Clean()
	if !errors.Is(err, boom) {
		t.Fatalf("Clean error = %v, want it to wrap %v", err, boom)
	}
	if !strings.Contains(strings.Join(subs.log.Entries(), ","), "unsubscribe /games/2") {
		t.Error("teardown stopped at the first failure")
	}
	if !n.Disposed() {
		t.Error("node not disposed after failed unsubscribe")
	}
}

func TestStackRestoredAfterError(t *testing.T) {
	rt, _ := newRuntime(t)
	boom := errors.New("render failed")

	failing := rt.New(func(s *Scope) error { return boom })
	if _, err := failing.DoRender(); !errors.Is(err, boom) {
		t.Fatalf("DoRender = %v, want %v", err, boom)
	}
	if rt.Stack().Depth() != 0 {
		t.Fatalf("stack depth = %d after failed render", rt.Stack().Depth())
	}

	unrelated := rt.New(nil)
	if unrelated.Parent() != nil {
		t.Error("unrelated node captured the failed node as parent")
	}
}

func TestStackRestoredAfterPanic(t *testing.T) {
	rt, _ := newRuntime(t)
	n := rt.New(func(s *Scope) error { panic("boom") })

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("panic was swallowed")
			}
		}()
		_, _ = n.DoRender()
	}()

	if rt.Stack().Depth() != 0 {
		t.Errorf("stack depth = %d after panic", rt.Stack().Depth())
	}
	if n.State() != StateMounted {
		t.Errorf("state = %s, want Mounted", n.State())
	}
	if rt.New(nil).Parent() != nil {
		t.Error("next node captured the panicked node as parent")
	}
}

func TestRerenderOnSync(t *testing.T) {
	host := &recordingHost{}
	rt, _ := newRuntime(t)
	game := dtest.NewModel("/games/1")

	passes := 0
	_, err := rt.Mount(host, func(s *Scope) error {
		passes++
		if err := s.Fetch(game); err != nil {
			return err
		}
		s.Listen(game, s.Rerender)
		s.Printf("pass %d", passes)
		return nil
	})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	game.NotifySync()

	if passes != 2 {
		t.Errorf("passes = %d, want 2", passes)
	}
	want := []string{"pass 1", "pass 2"}
	if fmt.Sprint(host.presented) != fmt.Sprint(want) {
		t.Errorf("presented = %q, want %q", host.presented, want)
	}
}

func TestSyncDuringRenderIsDeferred(t *testing.T) {
	rt, subs := newRuntime(t)
	subs.syncOnRead = true
	game := dtest.NewModel("/games/1")

	passes := 0
	n := rt.New(func(s *Scope) error {
		passes++
		s.Listen(game, s.Rerender)
		return s.Fetch(game)
	})
	if _, err := n.DoRender(); err != nil {
		t.Fatalf("DoRender: %v", err)
	}

	if passes != 2 {
		t.Errorf("passes = %d, want hydration sync to cause one more pass", passes)
	}
	if rt.Stack().Depth() != 0 {
		t.Errorf("stack depth = %d", rt.Stack().Depth())
	}
}

func TestFetchAddressErrorNotRecorded(t *testing.T) {
	rt, _ := newRuntime(t)
	broken := dtest.NewModel("").WithLocatorError(model.ErrNoLocator)

	n := rt.New(func(s *Scope) error { return s.Fetch(broken) })
	if _, err := n.DoRender(); !errors.Is(err, model.ErrNoLocator) {
		t.Fatalf("DoRender = %v, want ErrNoLocator", err)
	}
	if len(n.Subscriptions()) != 0 {
		t.Error("failed fetch was recorded as a subscription")
	}
}

func TestLinksFollowNavigator(t *testing.T) {
	var navigated []string
	rt, _ := newRuntime(t, WithNavigator(NavigatorFunc(func(target string) error {
		navigated = append(navigated, target)
		return nil
	})))

	n := rt.New(func(s *Scope) error {
		s.Link("Chat", "/games/1/chat")
		return nil
	})
	_, _ = n.DoRender()

	if got := n.Content(); got != "[Chat]" {
		t.Errorf("Content = %q", got)
	}
	if err := n.Follow("Chat"); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(navigated) != 1 || navigated[0] != "/games/1/chat" {
		t.Errorf("navigated = %v", navigated)
	}
	if err := n.Follow("Orders"); !errors.Is(err, ErrNoLink) {
		t.Errorf("Follow(missing) = %v, want ErrNoLink", err)
	}
}

func TestLinkWithoutNavigator(t *testing.T) {
	rt, _ := newRuntime(t)
	n := rt.New(func(s *Scope) error {
		s.Link("Home", "/")
		return nil
	})
	_, _ = n.DoRender()
	if err := n.Follow("Home"); !errors.Is(err, ErrNoNavigator) {
		t.Errorf("Follow = %v, want ErrNoNavigator", err)
	}
}

func TestAfterRenderHooksOrder(t *testing.T) {
	var order []string
	rt, _ := newRuntime(t, WithAfterRender(func(n *Node) { order = append(order, "runtime") }))

	n := rt.New(func(s *Scope) error {
		order = append(order, "body")
		return nil
	}, AfterRender(func(n *Node) { order = append(order, "node") }))
	_, _ = n.DoRender()

	if got := strings.Join(order, ","); got != "body,runtime,node" {
		t.Errorf("order = %s", got)
	}
}
