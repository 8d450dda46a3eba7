package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kamusis/reel/internal/logging"
	"github.com/kamusis/reel/internal/web"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation page and JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (default server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, closeFn, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	printOK("", fmt.Sprintf("catalog ready: %d movies", engine.Catalog().Len()))
	printInfo("", fmt.Sprintf("listening on http://%s (Ctrl-C to stop)", addr))
	logging.Info().Str("addr", addr).Msg("server starting")

	if err := web.NewServer(engine).ListenAndServe(ctx, addr); err != nil {
		printErr("", err.Error())
		return err
	}
	printOK("", "server stopped")
	return nil
}
