package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/dippy/internal/config"
	"github.com/vango-dev/dippy/internal/errors"
	"github.com/vango-dev/dippy/pkg/cache"
)

func TestGameIDs(t *testing.T) {
	ids, err := gameIDs([]string{"42", "/games/43", "/games/44/messages"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(ids, ",") != "42,43,44" {
		t.Errorf("gameIDs() = %v", ids)
	}

	if _, err := gameIDs([]string{"/users/1"}); errors.CodeOf(err) != "E140" {
		t.Errorf("non-game locator: err = %v, want E140", err)
	}
}

func TestCacheCommands(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()

	if err := cachePut(ctx, store, "/games/1", `{ "Id": "1" }`); err != nil {
		t.Fatalf("cachePut() error = %v", err)
	}

	var out bytes.Buffer
	if err := cacheGet(ctx, store, "/games/1", &out); err != nil {
		t.Fatalf("cacheGet() error = %v", err)
	}
	if out.String() != "{\n  \"Id\": \"1\"\n}\n" {
		t.Errorf("cacheGet() output = %q", out.String())
	}

	// Locators are canonicalized before they reach the store.
	if err := cacheRemove(ctx, store, "games//1/"); err != nil {
		t.Fatal(err)
	}
	if err := cacheGet(ctx, store, "/games/1", &out); errors.CodeOf(err) != "E041" {
		t.Errorf("get after rm: err = %v, want E041", err)
	}
}

func TestCachePutValidation(t *testing.T) {
	store := cache.NewMemoryStore()
	tests := []struct {
		name, locator, payload, code string
	}{
		{"bare slash", "/", `{}`, "E140"},
		{"escapes root", "/../games/1", `{}`, "E140"},
		{"invalid json", "/games/1", `{"Id":`, "E141"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cachePut(context.Background(), store, tt.locator, tt.payload)
			if code := errors.CodeOf(err); code != tt.code {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
	if store.Len() != 0 {
		t.Errorf("rejected puts stored %d entries", store.Len())
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()

	path, err := initConfig(dir, "toml", false)
	if err != nil {
		t.Fatalf("initConfig() error = %v", err)
	}
	if path != filepath.Join(dir, config.TOMLFileName) {
		t.Errorf("path = %q", path)
	}
	if _, err := config.Load(dir); err != nil {
		t.Errorf("written config does not load: %v", err)
	}

	if _, err := initConfig(dir, "json", false); errors.CodeOf(err) != "E124" {
		t.Errorf("second init: err = %v, want E124", err)
	}
	if _, err := initConfig(dir, "json", true); err != nil {
		t.Errorf("forced init: %v", err)
	}
	if _, err := initConfig(dir, "yaml", true); errors.CodeOf(err) != "E121" {
		t.Errorf("unknown format: err = %v, want E121", err)
	}
}

func TestLoadConfigFallsBackToEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("DIPPY_SERVER_URL", "wss://env.example.com/ws")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.URL != "wss://env.example.com/ws" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
}

func TestVersionShort(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--short"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("version output = %q", out.String())
	}
}

func TestWatchRequiresGame(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"watch"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Error("watch without arguments should fail")
	}
}
