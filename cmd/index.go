package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/reel/internal/config"
	"github.com/kamusis/reel/internal/similarity"
	"github.com/kamusis/reel/internal/snapshot"
)

var (
	flagIndexForce   bool
	flagIndexWorkers int
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the similarity snapshot from the catalog",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagIndexForce, "force", false, "Rebuild even if the snapshot matches the catalog")
	indexCmd.Flags().IntVar(&flagIndexWorkers, "workers", 0, "Rows computed concurrently (default GOMAXPROCS)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reelDir, err := config.ReelDir()
	if err != nil {
		return err
	}

	release, err := snapshot.AcquireBuildLock(reelDir, 10*time.Second)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
	defer cancel()

	printSection("Index")
	c, err := loadCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	printOK("", fmt.Sprintf("catalog loaded: %d movies", c.Len()))

	if !flagIndexForce {
		if snap, err := snapshot.Load(cfg.SnapshotDir); err == nil && snap.Manifest.CatalogHash == snapshot.CatalogHash(c.Movies()) {
			printSkip("", fmt.Sprintf("snapshot is up to date: %s", cfg.SnapshotDir))
			return nil
		}
	}

	start := time.Now()
	res, err := similarity.Build(ctx, c, similarity.BuildOptions{Workers: flagIndexWorkers})
	if err != nil {
		return fmt.Errorf("similarity build failed: %w", err)
	}
	printInfo("", fmt.Sprintf("matrix %dx%d over %d terms in %s", res.Matrix.N, res.Matrix.N, res.VocabSize, time.Since(start).Round(time.Millisecond)))

	tmpBase := filepath.Join(reelDir, "tmp")
	if err := os.MkdirAll(tmpBase, 0o755); err != nil {
		return fmt.Errorf("cannot create temp dir %s: %w", tmpBase, err)
	}
	tmpDir, err := os.MkdirTemp(tmpBase, "snapshot-*")
	if err != nil {
		return fmt.Errorf("cannot create temp snapshot dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := snapshot.Write(tmpDir, snapshot.NewManifest(c, res.VocabSize), c, res.Matrix); err != nil {
		return fmt.Errorf("cannot write snapshot: %w", err)
	}
	if err := snapshot.AtomicSwap(tmpDir, cfg.SnapshotDir); err != nil {
		return fmt.Errorf("cannot install snapshot: %w", err)
	}
	printOK("", fmt.Sprintf("snapshot written: %s", cfg.SnapshotDir))
	return nil
}
