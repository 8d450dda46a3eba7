package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/reel/internal/config"
	"github.com/kamusis/reel/internal/logging"
)

var (
	flagConfigPath string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "reel",
	Short:        "Reel — content-based movie recommendations with TMDB posters",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `Reel recommends movies similar to a title you pick, using a
bag-of-words cosine-similarity matrix over each movie's tag soup, and shows
poster art from The Movie Database.

Configuration lives in ~/.reel/reel.yaml; secrets go in ~/.reel/.env.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Config file (default ~/.reel/reel.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

// loadConfig resolves configuration and configures logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'reel init' first.", err)
	}
	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logging.Init(logging.Config{Level: level, Format: cfg.Log.Format})
	return cfg, nil
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
