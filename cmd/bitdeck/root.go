package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/bitdeck/internal/app"
	"github.com/five82/bitdeck/internal/config"
	"github.com/five82/bitdeck/internal/engine"
	"github.com/five82/bitdeck/internal/logging"
)

type rootFlags struct {
	configPath  string
	prefsPath   string
	engineURL   string
	poll        time.Duration
	logFile     string
	logLevel    string
	metricsAddr string
}

// cli carries state shared between the root command and its subcommands.
type cli struct {
	flags  rootFlags
	cfg    config.Config
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:           "bitdeck",
		Short:         "Terminal dashboard for a BitTorrent engine",
		Long:          "bitdeck mirrors a running torrent engine: it polls the HTTP API, listens for pushed snapshots, and sends pause, resume, remove and add commands.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.closer != nil {
				return c.closer.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), app.Options{Config: c.cfg, PrefsPath: c.flags.prefsPath})
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&c.flags.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	f.StringVar(&c.flags.prefsPath, "prefs", "", "UI preferences file")
	f.StringVar(&c.flags.engineURL, "url", "", "engine base URL")
	f.DurationVar(&c.flags.poll, "poll", 0, "snapshot poll interval")
	f.StringVar(&c.flags.logFile, "log-file", "", "log file path")
	f.StringVar(&c.flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&c.flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	cmd.AddCommand(
		newListCmd(c),
		newAddCmd(c),
		newControlCmd(c, engine.ActionPause),
		newControlCmd(c, engine.ActionResume),
		newControlCmd(c, engine.ActionRemove),
	)
	return cmd
}

// setup loads config, applies explicit flag overrides and starts logging.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return err
	}
	c.cfg = applyOverrides(cfg, c.flags, cmd.Flags().Changed)

	closer, err := logging.Setup(logging.Options{File: c.cfg.LogFile, Level: c.cfg.LogLevel})
	if err != nil {
		return err
	}
	c.closer = closer
	return nil
}

// applyOverrides copies every flag the user actually set onto cfg.
func applyOverrides(cfg config.Config, f rootFlags, changed func(string) bool) config.Config {
	if changed("url") {
		cfg.EngineURL = f.engineURL
	}
	if changed("poll") && f.poll > 0 {
		cfg.PollInterval = f.poll
	}
	if changed("log-file") {
		cfg.LogFile = ""
		if f.logFile != "" {
			if p, err := config.ExpandPath(f.logFile); err == nil {
				cfg.LogFile = p
			}
		}
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	return cfg
}
