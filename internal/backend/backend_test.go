package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/vango-dev/dippy/internal/config"
	"github.com/vango-dev/dippy/internal/errors"
	"github.com/vango-dev/dippy/pkg/cache"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), config.CacheConfig{Backend: config.BackendMemory}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*cache.MemoryStore); !ok {
		t.Errorf("store = %T, want *cache.MemoryStore", store)
	}
}

func TestOpenSQLitePersists(t *testing.T) {
	ctx := context.Background()
	cfg := config.CacheConfig{
		Backend: config.BackendSQLite,
		Path:    filepath.Join(t.TempDir(), "cache.db"),
		Table:   "games_cache",
	}

	store, err := Open(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Save(ctx, "/games/1", []byte(`{"Id":"1"}`)); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(ctx, cfg, quietLogger())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load(ctx, "/games/1")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"Id":"1"}` {
		t.Errorf("Load() = %s", got)
	}
}

func TestOpenS3(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	store, err := Open(context.Background(), config.CacheConfig{
		Backend:   config.BackendS3,
		Bucket:    "dippy",
		Region:    "eu-west-1",
		Endpoint:  "http://127.0.0.1:9000",
		PathStyle: true,
	}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*cache.S3Store); !ok {
		t.Errorf("store = %T, want *cache.S3Store", store)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.CacheConfig{Backend: "redis"}, quietLogger())
	if code := errors.CodeOf(err); code != "E040" {
		t.Errorf("error code = %q, want E040", code)
	}
}
