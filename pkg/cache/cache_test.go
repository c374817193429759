package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/dippy/pkg/telemetry"
)

// failingStore fails every operation.
type failingStore struct{ err error }

func (f failingStore) Load(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStore) Save(context.Context, string, []byte) error   { return f.err }
func (f failingStore) Delete(context.Context, string) error         { return f.err }
func (f failingStore) Close() error                                 { return nil }

// blockingStore waits for the context to expire.
type blockingStore struct{}

func (blockingStore) Load(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStore) Save(ctx context.Context, _ string, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingStore) Delete(ctx context.Context, _ string) error { return nil }
func (blockingStore) Close() error                               { return nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCacheRoundTrip(t *testing.T) {
	c := New(NewMemoryStore(), WithLogger(quietLogger()))

	if _, ok := c.Get("/games/1"); ok {
		t.Fatal("Get on empty cache reported a hit")
	}
	c.Put("/games/1", []byte(`{"Phase":"Spring 1901"}`))
	got, ok := c.Get("/games/1")
	if !ok {
		t.Fatal("Get after Put reported a miss")
	}
	if string(got) != `{"Phase":"Spring 1901"}` {
		t.Errorf("Get = %s", got)
	}

	c.Remove("/games/1")
	if _, ok := c.Get("/games/1"); ok {
		t.Error("Get after Remove reported a hit")
	}
}

func TestCacheCorruptEntryIsAbsent(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Save(context.Background(), "/games/1", []byte(`{not json`))

	c := New(store, WithLogger(quietLogger()))
	if got, ok := c.Get("/games/1"); ok {
		t.Errorf("Get = %s, true; want corrupt entry treated as absent", got)
	}
}

func TestCacheDegradesOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
	c := New(failingStore{err: errors.New("quota exceeded")}, WithLogger(quietLogger()), WithMetrics(m))

	// Neither call may panic or surface the error.
	c.Put("/games/1", []byte(`{}`))
	if _, ok := c.Get("/games/1"); ok {
		t.Error("Get on failing store reported a hit")
	}
	c.Remove("/games/1")
}

func TestCacheTimeout(t *testing.T) {
	c := New(blockingStore{}, WithLogger(quietLogger()), WithTimeout(10*time.Millisecond))

	if _, ok := c.Get("/games/1"); ok {
		t.Error("Get on timed-out store reported a hit")
	}
	c.Put("/games/1", []byte(`{}`))
}

func TestNilCache(t *testing.T) {
	var c *Cache
	if _, ok := c.Get("/x"); ok {
		t.Error("nil cache Get reported a hit")
	}
	c.Put("/x", []byte(`{}`))
	c.Remove("/x")
	if err := c.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}

	empty := New(nil)
	empty.Put("/x", []byte(`{}`))
	if _, ok := empty.Get("/x"); ok {
		t.Error("storeless cache Get reported a hit")
	}
}
