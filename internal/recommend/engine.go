// Package recommend ranks catalog movies by similarity to a query title and
// attaches poster URLs to the top matches.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kamusis/reel/internal/catalog"
	"github.com/kamusis/reel/internal/logging"
	"github.com/kamusis/reel/internal/poster"
	"github.com/kamusis/reel/internal/similarity"
)

// DefaultTopK is the number of recommendations returned per query.
const DefaultTopK = 8

// ErrNotFound indicates a query title that is not in the catalog.
var ErrNotFound = errors.New("title not found in catalog")

// Options configures an Engine.
type Options struct {
	TopK        int
	Placeholder string
	// Parallelism bounds concurrent poster lookups. Zero means TopK.
	Parallelism int
}

// Engine is the read-only recommendation context built once at startup.
// It is safe for concurrent use.
type Engine struct {
	catalog  *catalog.Catalog
	matrix   *similarity.Matrix
	resolver poster.Resolver
	opts     Options
}

// NewEngine validates that c and m are aligned and returns an Engine.
// resolver may be nil, in which case every slot gets the placeholder.
func NewEngine(c *catalog.Catalog, m *similarity.Matrix, resolver poster.Resolver, opts Options) (*Engine, error) {
	if c == nil || c.Len() == 0 {
		return nil, catalog.ErrEmptyCatalog
	}
	if m == nil || m.N != c.Len() || len(m.Data) != m.N*m.N {
		n := 0
		if m != nil {
			n = m.N
		}
		return nil, fmt.Errorf("%w: catalog has %d movies, matrix is %dx%d", similarity.ErrDimensionMismatch, c.Len(), n, n)
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Placeholder == "" {
		opts.Placeholder = poster.DefaultPlaceholder
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = opts.TopK
	}
	return &Engine{catalog: c, matrix: m, resolver: resolver, opts: opts}, nil
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Match is one ranked catalog entry.
type Match struct {
	Index int
	Movie catalog.Movie
	Score float64
}

// Rank returns up to TopK movies most similar to title, excluding the
// title's own row. Ties keep ascending catalog order.
//
// Duplicate titles resolve to their first catalog occurrence.
func (e *Engine) Rank(title string) ([]Match, error) {
	i, ok := e.catalog.Lookup(title)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
	}
	row := e.matrix.Row(i)

	matches := make([]Match, 0, len(row)-1)
	for j, s := range row {
		if j == i {
			continue
		}
		matches = append(matches, Match{Index: j, Score: s})
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if len(matches) > e.opts.TopK {
		matches = matches[:e.opts.TopK]
	}
	for k := range matches {
		matches[k].Movie = e.catalog.At(matches[k].Index)
	}
	return matches, nil
}

// Item is one recommendation slot.
type Item struct {
	Movie     catalog.Movie
	Score     float64
	PosterURL string
	// PosterErr is set when PosterURL is the placeholder.
	PosterErr error
}

// Result is an ordered recommendation list for one query.
type Result struct {
	Query string
	Items []Item
}

// Titles returns the recommended titles in rank order.
func (r Result) Titles() []string {
	out := make([]string, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Movie.Title
	}
	return out
}

// Recommend ranks title and resolves posters for every match concurrently.
// A failed poster lookup only affects its own slot.
func (e *Engine) Recommend(ctx context.Context, title string) (Result, error) {
	matches, err := e.Rank(title)
	if err != nil {
		return Result{}, err
	}

	items := make([]Item, len(matches))
	var g errgroup.Group
	g.SetLimit(e.opts.Parallelism)
	for k, m := range matches {
		k, m := k, m
		items[k] = Item{Movie: m.Movie, Score: m.Score}
		g.Go(func() error {
			u, err := e.resolve(ctx, m.Movie.ID)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Int64("movie_id", m.Movie.ID).Msg("using placeholder poster")
				items[k].PosterURL = e.opts.Placeholder
				items[k].PosterErr = err
				return nil
			}
			items[k].PosterURL = u
			return nil
		})
	}
	_ = g.Wait()

	return Result{Query: title, Items: items}, nil
}

func (e *Engine) resolve(ctx context.Context, movieID int64) (string, error) {
	if e.resolver == nil {
		return "", poster.ErrPosterUnavailable
	}
	return e.resolver.Resolve(ctx, movieID)
}
