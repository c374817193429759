package view

import (
	"bytes"
	"testing"
)

func TestHostSingleOccupant(t *testing.T) {
	rt, _ := newRuntime(t)
	host := &recordingHost{}

	first, _ := rt.Mount(host, func(s *Scope) error {
		_, err := s.Render(func(s *Scope) error { return nil })
		return err
	})
	firstChild := first.Children()[0]

	second, _ := rt.Mount(host, func(s *Scope) error { return nil })

	if !first.Disposed() || !firstChild.Disposed() {
		t.Error("previous occupant subtree was not cleaned")
	}
	if rt.Hosts().Occupant(host) != second {
		t.Error("new node is not the occupant")
	}
	if rt.Hosts().Len() != 1 {
		t.Errorf("occupied hosts = %d, want 1", rt.Hosts().Len())
	}
}

func TestHostReoccupySameNodeResetsChildren(t *testing.T) {
	rt, _ := newRuntime(t)
	host := &recordingHost{}

	n, _ := rt.Mount(host, func(s *Scope) error {
		_, err := s.Render(func(s *Scope) error { return nil })
		return err
	})
	child := n.Children()[0]

	rt.Occupy(host, n)

	if n.Disposed() {
		t.Fatal("re-occupying cleaned the node itself")
	}
	if !child.Disposed() || len(n.Children()) != 0 {
		t.Error("children were not reset")
	}
	if rt.Hosts().Occupant(host) != n {
		t.Error("node lost its host")
	}
}

func TestCleanReleasesHost(t *testing.T) {
	rt, _ := newRuntime(t)
	host := &recordingHost{}

	n, _ := rt.Mount(host, func(s *Scope) error { return nil })
	_ = n.Clean()

	if rt.Hosts().Occupant(host) != nil {
		t.Error("cleaned node still occupies the host")
	}
	if n.Host() != nil {
		t.Error("cleaned node still references its host")
	}
}

func TestRuntimeCloseCleansRoots(t *testing.T) {
	rt, _ := newRuntime(t)
	a, _ := rt.Mount(&recordingHost{}, func(s *Scope) error { return nil })
	b, _ := rt.Mount(&recordingHost{}, func(s *Scope) error { return nil })

	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.Disposed() || !b.Disposed() || rt.Hosts().Len() != 0 {
		t.Error("Close left roots mounted")
	}
}

func TestWriterHost(t *testing.T) {
	var buf bytes.Buffer
	rt, _ := newRuntime(t)
	host := NewWriterHost("stdout", &buf)

	_, err := rt.Mount(host, func(s *Scope) error {
		s.Printf("Phase: %s", "Movement")
		return nil
	})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if got := buf.String(); got != "Phase: Movement\n" {
		t.Errorf("output = %q", got)
	}
	if host.Name() != "stdout" {
		t.Errorf("Name = %q", host.Name())
	}
}
