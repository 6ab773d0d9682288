package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/safar/go-bookstore/internal/config"
	"github.com/safar/go-bookstore/internal/version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel string
	storage  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bookstore",
	Short: "Online bookstore backend",
	Long: `bookstore runs the bookstore HTTP API and its operational tooling.

Configuration is read from the environment (and a .env file when present):
  STORAGE_DRIVER     postgres | memory
  DATABASE_URL       PostgreSQL connection string
  KAFKA_BROKERS      comma separated brokers; empty disables order events`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if storage != "" {
			loaded.Storage = storage
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		cfg = loaded
		return setupLogging(cfg.Log)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&storage, "storage", "", "Storage driver override (postgres, memory)")
}

func setupLogging(c config.LogConfig) error {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	log.SetLevel(level)

	if strings.EqualFold(c.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)
	return nil
}
