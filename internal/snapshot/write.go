package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/kamusis/reel/internal/catalog"
	"github.com/kamusis/reel/internal/similarity"
)

// NewManifest returns a manifest describing c and m.
func NewManifest(c *catalog.Catalog, vocabSize int) Manifest {
	return Manifest{
		Version:     currentVersion,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Movies:      c.Len(),
		VocabSize:   vocabSize,
		CatalogHash: CatalogHash(c.Movies()),
		MoviesFile:  defaultMoviesFile,
		MatrixFile:  defaultMatrixFile,
	}
}

// Write writes snapshot artifacts to dir.
func Write(dir string, manifest Manifest, c *catalog.Catalog, m *similarity.Matrix) error {
	if c == nil || c.Len() == 0 {
		return catalog.ErrEmptyCatalog
	}
	if m == nil || m.N != c.Len() || len(m.Data) != m.N*m.N {
		return fmt.Errorf("%w: catalog has %d movies", similarity.ErrDimensionMismatch, c.Len())
	}
	if manifest.MoviesFile == "" {
		manifest.MoviesFile = defaultMoviesFile
	}
	if manifest.MatrixFile == "" {
		manifest.MatrixFile = defaultMatrixFile
	}
	manifest.Movies = c.Len()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create snapshot dir %s: %w", dir, err)
	}

	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}

	if err := writeMovies(filepath.Join(dir, manifest.MoviesFile), c.Movies()); err != nil {
		return err
	}

	vf, err := os.Create(filepath.Join(dir, manifest.MatrixFile))
	if err != nil {
		return fmt.Errorf("cannot create matrix file: %w", err)
	}
	bw := bufio.NewWriter(vf)
	if err := binary.Write(bw, binary.LittleEndian, m.Data); err != nil {
		_ = vf.Close()
		return fmt.Errorf("cannot write matrix: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = vf.Close()
		return err
	}
	return vf.Close()
}

func writeMovies(path string, movies []catalog.Movie) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create movies file: %w", err)
	}
	bw := bufio.NewWriter(f)
	for _, mv := range movies {
		line, err := json.Marshal(mv)
		if err != nil {
			_ = f.Close()
			return err
		}
		if _, err := bw.Write(line); err != nil {
			_ = f.Close()
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// AtomicSwap replaces destDir with srcDir by renaming.
func AtomicSwap(srcDir, destDir string) error {
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return err
	}
	backup := destDir + ".bak"
	_ = os.RemoveAll(backup)
	if _, err := os.Stat(destDir); err == nil {
		if err := os.Rename(destDir, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(srcDir, destDir); err != nil {
		// rollback best-effort
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, destDir)
		}
		return err
	}
	_ = os.RemoveAll(backup)
	return nil
}
