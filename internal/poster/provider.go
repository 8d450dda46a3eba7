// Package poster resolves movie ids to poster image URLs.
package poster

import (
	"context"
	"errors"
	"strings"
)

// ErrPosterUnavailable means no usable poster URL could be produced for a
// movie: the upstream returned no poster path, or the call failed.
var ErrPosterUnavailable = errors.New("poster unavailable")

// DefaultPlaceholder is shown in place of a poster that could not be resolved.
const DefaultPlaceholder = "https://via.placeholder.com/500x750?text=No+Poster"

// Resolver maps a movie id to a fully-qualified image URL.
//
// Implementations must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, movieID int64) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, movieID int64) (string, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, movieID int64) (string, error) {
	return f(ctx, movieID)
}

// JoinURL joins an image base and a poster path with exactly one slash.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
