package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dippy/internal/backend"
	"github.com/vango-dev/dippy/internal/errors"
	"github.com/vango-dev/dippy/pkg/cache"
	"github.com/vango-dev/dippy/pkg/locator"
)

func cacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local cache",
		Long: `Read and modify entries in the configured cache backend.

Examples:
  dippy cache get /games/42
  dippy cache put /games/42 '{"Id":"42","Variant":"standard"}'
  dippy cache rm /games/42`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <locator>",
			Short: "Print a cached entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd.Context(), *configPath, func(store cache.Store) error {
					return cacheGet(cmd.Context(), store, args[0], cmd.OutOrStdout())
				})
			},
		},
		&cobra.Command{
			Use:   "put <locator> <json>",
			Short: "Store an entry",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd.Context(), *configPath, func(store cache.Store) error {
					return cachePut(cmd.Context(), store, args[0], args[1])
				})
			},
		},
		&cobra.Command{
			Use:     "rm <locator>",
			Aliases: []string{"delete"},
			Short:   "Remove an entry",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd.Context(), *configPath, func(store cache.Store) error {
					return cacheRemove(cmd.Context(), store, args[0])
				})
			},
		},
	)

	return cmd
}

// withStore opens the configured backend for the duration of fn.
func withStore(ctx context.Context, configPath string, fn func(cache.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := backend.Open(ctx, cfg.Cache, newLogger(cfg, io.Discard))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// canonical returns the canonical form of a locator typed by the user.
func canonical(loc string) (string, error) {
	canon, err := locator.Canonicalize(loc)
	if err != nil {
		return "", errors.New("E140").WithDetailf("%q: %v", loc, err)
	}
	return canon, nil
}

func cacheGet(ctx context.Context, store cache.Store, loc string, w io.Writer) error {
	key, err := canonical(loc)
	if err != nil {
		return err
	}
	data, err := store.Load(ctx, key)
	if err != nil {
		return errors.New("E042").Wrap(err)
	}
	if data == nil {
		return errors.New("E041").WithDetailf("No entry for %s", key)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		// Entries are stored verbatim; show them even if they do not parse.
		out.Reset()
		out.Write(data)
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}

func cachePut(ctx context.Context, store cache.Store, loc, payload string) error {
	key, err := canonical(loc)
	if err != nil {
		return err
	}
	if !json.Valid([]byte(payload)) {
		return errors.New("E141").WithDetailf("Payload for %s is not valid JSON", key)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(payload)); err != nil {
		return errors.New("E141").Wrap(err)
	}
	if err := store.Save(ctx, key, compact.Bytes()); err != nil {
		return errors.New("E042").Wrap(err)
	}
	success("Stored %s (%d bytes)", key, compact.Len())
	return nil
}

func cacheRemove(ctx context.Context, store cache.Store, loc string) error {
	key, err := canonical(loc)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, key); err != nil {
		return errors.New("E042").Wrap(err)
	}
	success("Removed %s", key)
	return nil
}
