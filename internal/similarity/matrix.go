// Package similarity turns catalog soups into bag-of-words vectors and a
// dense pairwise cosine-similarity matrix.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kamusis/reel/internal/catalog"
)

// ErrDimensionMismatch indicates matrix data that is not N×N.
var ErrDimensionMismatch = errors.New("similarity matrix dimension mismatch")

// Matrix is a dense, row-major, symmetric N×N similarity matrix.
type Matrix struct {
	N    int
	Data []float64
}

// NewMatrix wraps data as an n×n matrix.
func NewMatrix(n int, data []float64) (*Matrix, error) {
	if n <= 0 || len(data) != n*n {
		return nil, fmt.Errorf("%w: n=%d len=%d", ErrDimensionMismatch, n, len(data))
	}
	return &Matrix{N: n, Data: data}, nil
}

// At returns the similarity between rows i and j.
func (m *Matrix) At(i, j int) float64 { return m.Data[i*m.N+j] }

// Row returns row i. The returned slice aliases the matrix and must not be modified.
func (m *Matrix) Row(i int) []float64 { return m.Data[i*m.N : (i+1)*m.N] }

// BuildOptions controls matrix construction.
type BuildOptions struct {
	// Workers bounds the number of rows computed concurrently. Zero means GOMAXPROCS.
	Workers int
}

// Result is a built matrix plus the vocabulary it was computed over.
type Result struct {
	Matrix    *Matrix
	VocabSize int
}

// Build vectorizes every soup in c and computes the pairwise cosine matrix.
// The diagonal is exactly 1 for rows with a non-zero vector and 0 otherwise.
func Build(ctx context.Context, c *catalog.Catalog, opts BuildOptions) (*Result, error) {
	if c == nil || c.Len() == 0 {
		return nil, catalog.ErrEmptyCatalog
	}
	n := c.Len()

	docs := make([]string, n)
	for i := 0; i < n; i++ {
		docs[i] = c.At(i).Soup
	}
	vz := FitVectorizer(docs)
	vecs := make([]SparseVector, n)
	norms := make([]float64, n)
	for i, d := range docs {
		vecs[i] = vz.Transform(d)
		norms[i] = vecs[i].Norm()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	data := make([]float64, n*n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if err := gctx.Err(); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if norms[i] == 0 {
				return nil
			}
			data[i*n+i] = 1
			// Row i owns cells (i, j>i) and their mirrors.
			for j := i + 1; j < n; j++ {
				if norms[j] == 0 {
					continue
				}
				s := Dot(vecs[i], vecs[j]) / (norms[i] * norms[j])
				data[i*n+j] = s
				data[j*n+i] = s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{Matrix: &Matrix{N: n, Data: data}, VocabSize: len(vz.terms)}, nil
}
