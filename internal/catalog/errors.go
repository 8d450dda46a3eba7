package catalog

import "errors"

var (
	// ErrEmptyCatalog indicates a catalog with no movies.
	ErrEmptyCatalog = errors.New("catalog is empty")
	// ErrMalformedSnapshot indicates catalog input that cannot be parsed into movies.
	ErrMalformedSnapshot = errors.New("malformed catalog snapshot")
)
