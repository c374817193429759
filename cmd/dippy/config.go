package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dippy/internal/config"
	"github.com/vango-dev/dippy/internal/errors"
)

func configCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the dippy configuration",
	}

	cmd.AddCommand(configInitCmd(), configShowCmd(configPath))
	return cmd
}

func configInitCmd() *cobra.Command {
	var (
		format string
		force  bool
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Long: `Write dippy.json (or dippy.toml) with default values.

Examples:
  dippy config init
  dippy config init --format=toml
  dippy config init --dir ~/.config/dippy --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := initConfig(dir, format, force)
			if err != nil {
				return err
			}
			success("Wrote %s", path)
			info("Set server.url, then run: dippy watch <game>")
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "File format: json or toml")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to write to")

	return cmd
}

// initConfig writes the defaults into dir and returns the file path.
func initConfig(dir, format string, force bool) (string, error) {
	var name string
	switch format {
	case "json":
		name = config.JSONFileName
	case "toml":
		name = config.TOMLFileName
	default:
		return "", errors.New("E121").WithDetailf("Unknown config format %q", format).
			WithSuggestion("Use --format=json or --format=toml")
	}

	if config.Exists(dir) && !force {
		return "", errors.New("E124").
			WithDetail("A configuration file already exists in " + dir).
			WithSuggestion("Use --force to overwrite it")
	}

	path := filepath.Join(dir, name)
	if err := config.New().SaveTo(path); err != nil {
		return "", err
	}
	return path, nil
}

func configShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  `Print the configuration after defaults and DIPPY_* environment overrides.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
