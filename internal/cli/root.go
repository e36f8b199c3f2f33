package cli

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/harun/redtrace/internal/config"
	"github.com/harun/redtrace/pkg/store"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "redtrace",
	Short: "Redtrace - pooled Redis sessions and trace/log inspection",
	Long: `Redtrace manages pooled Redis sessions and persists structured trace
events into per-application collections. This tool inspects stored
records and exercises the publish/subscribe rendezvous.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.redtrace/redtrace.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig reads the config file and applies the global log-level flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// newLogger builds the console logger used by CLI commands.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// newManager connects to the configured store.
func newManager(ctx context.Context, cfg *config.Config) (*store.Manager, error) {
	return store.NewManager(ctx, cfg.Store.URL, store.Options{
		MaxIdle:     cfg.Store.MaxIdle,
		IdleTimeout: cfg.Store.IdleTimeout,
		Logger:      newLogger(cfg),
	})
}
