package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/kamusis/reel/internal/catalog"
	"github.com/kamusis/reel/internal/similarity"
)

// Load reads a snapshot from dir and checks that its parts agree.
func Load(dir string) (*Snapshot, error) {
	manifestPath := filepath.Join(dir, manifestFile)
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: invalid manifest JSON %s: %v", ErrMalformedSnapshot, manifestPath, err)
	}
	if m.Version != currentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedSnapshot, m.Version)
	}
	if m.Movies <= 0 {
		return nil, fmt.Errorf("%w: invalid movie count %d", ErrMalformedSnapshot, m.Movies)
	}
	if m.MoviesFile == "" {
		m.MoviesFile = defaultMoviesFile
	}
	if m.MatrixFile == "" {
		m.MatrixFile = defaultMatrixFile
	}

	movies, err := loadMovies(filepath.Join(dir, m.MoviesFile))
	if err != nil {
		return nil, err
	}
	if len(movies) != m.Movies {
		return nil, fmt.Errorf("%w: manifest lists %d movies, file has %d", ErrMalformedSnapshot, m.Movies, len(movies))
	}
	data, err := loadMatrix(filepath.Join(dir, m.MatrixFile), len(movies))
	if err != nil {
		return nil, err
	}

	cat, err := catalog.New(movies)
	if err != nil {
		return nil, err
	}
	mat, err := similarity.NewMatrix(len(movies), data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Manifest: m, Catalog: cat, Matrix: mat}, nil
}

func loadMovies(path string) ([]catalog.Movie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open movies file %s: %w", path, err)
	}
	defer f.Close()

	var out []catalog.Movie
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var mv catalog.Movie
		if err := json.Unmarshal(line, &mv); err != nil {
			return nil, fmt.Errorf("%w: invalid movies JSONL %s: %v", ErrMalformedSnapshot, path, err)
		}
		out = append(out, mv)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read movies file %s: %w", path, err)
	}
	return out, nil
}

func loadMatrix(path string, n int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open matrix file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat matrix file %s: %w", path, err)
	}
	expected := int64(n) * int64(n) * 8
	if st.Size() != expected {
		return nil, fmt.Errorf("%w: matrix file size mismatch: got %d want %d (movies=%d)", ErrMalformedSnapshot, st.Size(), expected, n)
	}

	out := make([]float64, n*n)
	if err := binary.Read(bufio.NewReader(io.LimitReader(f, expected)), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("cannot read matrix from %s: %w", path, err)
	}
	return out, nil
}
