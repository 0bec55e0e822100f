package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/summit-editor/summit/pkg/config"
	"github.com/summit-editor/summit/pkg/content"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the settings resolved before any subcommand runs.
type app struct {
	configPath string
	celesteDir string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "summit",
		Short:         "Celeste map, atlas and tileset tooling",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "summit.yaml", "config file")
	flags.StringVar(&a.celesteDir, "celeste-dir", "", "Celeste install directory (auto-detected when empty)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(bin2jsonCmd())
	rootCmd.AddCommand(json2binCmd())
	rootCmd.AddCommand(levelsCmd())
	rootCmd.AddCommand(renderCmd(a))
	rootCmd.AddCommand(atlasCmd(a))
	rootCmd.AddCommand(data2pngCmd())
	rootCmd.AddCommand(png2dataCmd())
	rootCmd.AddCommand(xnb2pngCmd())
	rootCmd.AddCommand(watchCmd(a))

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	if a.celesteDir != "" {
		cfg.CelesteDir = a.celesteDir
	}

	lvl, err := cfg.Level()
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})

	a.cfg = cfg

	return nil
}

// paths resolves the install directory from flags, the config file or the
// per-OS default location.
func (a *app) paths() (content.Paths, error) {
	dir := a.cfg.CelesteDir
	if dir == "" {
		detected, err := content.DetectInstallDir()
		if err != nil {
			return content.Paths{}, err
		}

		dir = detected
	}

	log.Debug().Str("dir", dir).Msg("using Celeste install")

	return content.NewPaths(dir), nil
}
