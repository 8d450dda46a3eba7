// Package snapshot persists a catalog together with its similarity matrix so
// recommendations can be served without recomputing the matrix.
package snapshot

import (
	"errors"

	"github.com/kamusis/reel/internal/catalog"
	"github.com/kamusis/reel/internal/similarity"
)

const (
	manifestFile      = "manifest.json"
	defaultMoviesFile = "movies.jsonl"
	defaultMatrixFile = "similarity.f64"
	currentVersion    = 1
)

// ErrMalformedSnapshot indicates snapshot files that disagree with each other.
var ErrMalformedSnapshot = errors.New("malformed similarity snapshot")

// Manifest describes a snapshot directory and how to interpret it.
type Manifest struct {
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
	Movies      int    `json:"movies"`
	VocabSize   int    `json:"vocab_size"`
	CatalogHash string `json:"catalog_hash"`
	MoviesFile  string `json:"movies_file"`
	MatrixFile  string `json:"matrix_file"`
}

// Snapshot is a loaded catalog + matrix pair.
type Snapshot struct {
	Manifest Manifest
	Catalog  *catalog.Catalog
	Matrix   *similarity.Matrix
}
