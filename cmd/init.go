package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/reel/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create ~/.reel with a default config and .env template",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	printSection("Init")

	reelDir, err := config.ReelDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(reelDir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", reelDir, err)
	}
	printOK("", fmt.Sprintf("reel directory ready: %s", reelDir))

	cfgPath := flagConfigPath
	if cfgPath == "" {
		if cfgPath, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.Save(cfg, cfgPath); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("config already exists: %s", cfgPath))
	}

	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	printOK("", fmt.Sprintf("secrets file ready: %s", envPath))
	printInfo("", "set REEL_TMDB_API_KEY there, point catalog.path at your CSV, then run 'reel index'")
	return nil
}
