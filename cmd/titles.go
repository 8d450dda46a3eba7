package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var titlesCmd = &cobra.Command{
	Use:   "titles",
	Short: "List catalog titles (the selectable movies)",
	Args:  cobra.NoArgs,
	RunE:  runTitles,
}

func init() {
	rootCmd.AddCommand(titlesCmd)
}

func runTitles(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := loadCatalog(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	for _, t := range c.Titles() {
		fmt.Println(t)
	}
	return nil
}
