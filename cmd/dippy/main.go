package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dippy/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┬┌─┐┌─┐┬ ┬
   │││├─┘├─┘└┬┘
  ─┴┘┴┴  ┴   ┴
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "dippy",
		Short: "Live game client for the diplicity server",
		Long: `Dippy keeps a local view of your games in sync with the server.

Resources are subscribed over a WebSocket, pushed updates are
applied as they arrive, and game state is cached locally so
views render immediately on start.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to dippy.json or dippy.toml (default: look in the working directory)")

	// Add commands
	rootCmd.AddCommand(
		watchCmd(&configPath),
		cacheCmd(&configPath),
		configCmd(&configPath),
		versionCmd(),
	)

	return rootCmd
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
