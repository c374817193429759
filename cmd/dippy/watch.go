package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/dippy/internal/backend"
	"github.com/vango-dev/dippy/internal/config"
	"github.com/vango-dev/dippy/internal/debughttp"
	"github.com/vango-dev/dippy/internal/errors"
	"github.com/vango-dev/dippy/internal/game"
	"github.com/vango-dev/dippy/internal/views"
	"github.com/vango-dev/dippy/pkg/client"
	"github.com/vango-dev/dippy/pkg/telemetry"
	"github.com/vango-dev/dippy/pkg/view"
)

func watchCmd(configPath *string) *cobra.Command {
	var (
		metricsAddr string
		userID      string
		serverURL   string
	)

	cmd := &cobra.Command{
		Use:   "watch <game>...",
		Short: "Subscribe to games and print them as they change",
		Long: `Connect to the server, subscribe to each game and print its
view every time the server pushes an update.

A game is given by id or locator ("42" or "/games/42").
Press Ctrl+C to unsubscribe and exit.

Examples:
  dippy watch 42
  dippy watch /games/42 /games/43 --user alice@example.com
  dippy watch 42 --metrics-addr=:9090`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				cfg.Metrics.Addr = metricsAddr
			}
			if serverURL != "" {
				cfg.Server.URL = serverURL
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			ids, err := gameIDs(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cfg, ids, userID, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /debug/subscriptions on this address")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Your user id, to mark your nation")
	cmd.Flags().StringVar(&serverURL, "url", "", "Server WebSocket URL (default from config)")

	return cmd
}

// gameIDs accepts ids or game locators.
func gameIDs(args []string) ([]string, error) {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "" {
			return nil, errors.New("E140").WithDetail("Empty game argument")
		}
		if arg[0] != '/' {
			ids = append(ids, arg)
			continue
		}
		id, ok := game.IDFromLocator(arg)
		if !ok {
			return nil, errors.New("E140").WithDetailf("%q is not a game locator", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runWatch(ctx context.Context, cfg *config.Config, ids []string, userID string, stdout, stderr io.Writer) error {
	logger := newLogger(cfg, stderr)

	store, err := backend.Open(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(
		telemetry.WithNamespace(cfg.Metrics.Namespace),
		telemetry.WithRegistry(reg),
	)

	c, err := client.New(client.Config{
		URL:          cfg.Server.URL,
		Transport:    cfg.TransportConfig(),
		Store:        store,
		CacheTimeout: cfg.Cache.Timeout.Std(),
		QueueSize:    cfg.Transport.QueueSize,
		Resend:       cfg.ResendPolicy(),
	},
		client.WithLogger(logger),
		client.WithMetrics(metrics),
		client.WithNavigator(view.NavigatorFunc(func(target string) error {
			logger.Info("navigate", "target", target)
			return nil
		})),
	)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer c.Close()

	if err := c.Connect(ctx); err != nil {
		return errors.New("E060").
			WithDetailf("Could not connect to %s", cfg.Server.URL).
			Wrap(err)
	}

	fmt.Fprint(stdout, banner)
	fmt.Fprintf(stdout, "  watching %d game(s) on %s\n\n", len(ids), cfg.Server.URL)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// A lost connection also stops the debug server.
		defer cancel()
		if err := c.Run(gctx); err != nil {
			return errors.New("E061").Wrap(err)
		}
		return nil
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return debughttp.Serve(gctx, cfg.Metrics.Addr, debughttp.NewRouter(reg, c.Registry()), logger)
		})
	}

	err = c.Do(gctx, func() error {
		return mountGames(c.Views(), ids, userID, stdout, logger)
	})
	if err != nil {
		return err
	}

	err = g.Wait()
	fmt.Fprintln(stdout, "\n  Shutting down...")
	return err
}

// mountGames mounts one game view per id, each on its own host.
func mountGames(rt *view.Runtime, ids []string, userID string, w io.Writer, logger *slog.Logger) error {
	for _, id := range ids {
		host := view.NewWriterHost("game "+id, w)
		if _, err := views.NewSession(id, userID).Mount(rt, host); err != nil {
			return fmt.Errorf("mount game %s: %w", id, err)
		}
		logger.Debug("mounted game", "game_id", id)
	}
	return nil
}
