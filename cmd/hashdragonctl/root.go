package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danmuck/hashdragon/internal/config"
	"github.com/danmuck/hashdragon/internal/events"
	"github.com/danmuck/hashdragon/internal/logging"
	"github.com/danmuck/hashdragon/internal/lookup"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const EnvConfig = "HASHDRAGON_CONFIG"

type app struct {
	configPath string
	jsonOutput bool

	cfg config.Config
	log zerolog.Logger

	// fetcher and now are replaced in tests.
	fetcher lookup.Fetcher
	now     func() time.Time
}

func newApp() *app {
	return &app{
		cfg: config.Default(),
		log: zerolog.Nop(),
		now: time.Now,
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hashdragonctl",
		Short:         "Encode, decode and chain hashdragons protocol events",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv(EnvConfig), "path to a TOML config file")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "output as JSON")

	root.AddCommand(
		a.keyinfoCmd(),
		a.describeCmd(),
		a.createEventCmd(),
		a.createTxnCmd(),
		a.decodeCmd(),
		a.anchorCmd(),
		a.serveCmd(),
		a.configCmd(),
	)
	return root
}

// setup loads configuration and installs the logger. config subcommands
// load the file themselves so they can report on broken files.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
		return nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	lc := cfg.LoggingConfig()
	logging.ApplyEnv(&lc)
	a.log = logging.New(cmd.ErrOrStderr(), lc).With().Str("app", "hashdragonctl").Logger()
	logging.Install(a.log)
	return nil
}

func (a *app) service() *events.Service {
	fetcher := a.fetcher
	if fetcher == nil {
		fetcher = lookup.NewClient(a.cfg.LookupConfig(), a.log)
	}
	return events.NewService(fetcher, a.cfg.ServiceConfig(),
		events.WithLogger(a.log),
		events.WithClock(a.now))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) print(cmd *cobra.Command, v any, text string) error {
	if a.jsonOutput {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
