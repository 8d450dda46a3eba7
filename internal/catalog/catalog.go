// Package catalog holds the immutable, ordered movie table that the
// similarity matrix is aligned with.
package catalog

import (
	"fmt"
)

// Movie is one catalog row. Soup is the space-joined tag text that is
// vectorized for similarity.
type Movie struct {
	ID    int64  `json:"id" bson:"id"`
	Title string `json:"title" bson:"title"`
	Soup  string `json:"soup" bson:"soup"`
}

// Catalog is an ordered, read-only movie table. Index i of the catalog is
// row and column i of the similarity matrix.
type Catalog struct {
	movies     []Movie
	byTitle    map[string]int
	duplicates int
}

// New builds a catalog from movies, preserving order. The slice is copied.
//
// Titles need not be unique: Lookup resolves a title to its first
// occurrence in catalog order.
func New(movies []Movie) (*Catalog, error) {
	if len(movies) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		movies:  make([]Movie, len(movies)),
		byTitle: make(map[string]int, len(movies)),
	}
	copy(c.movies, movies)
	for i, m := range c.movies {
		if _, seen := c.byTitle[m.Title]; seen {
			c.duplicates++
			continue
		}
		c.byTitle[m.Title] = i
	}
	return c, nil
}

// Len returns the number of movies.
func (c *Catalog) Len() int { return len(c.movies) }

// At returns the movie at index i.
func (c *Catalog) At(i int) Movie { return c.movies[i] }

// Movies returns a copy of all movies in catalog order.
func (c *Catalog) Movies() []Movie {
	out := make([]Movie, len(c.movies))
	copy(out, c.movies)
	return out
}

// Lookup returns the index of the first movie whose title equals title exactly.
func (c *Catalog) Lookup(title string) (int, bool) {
	i, ok := c.byTitle[title]
	return i, ok
}

// Titles returns every title in catalog order, duplicates included.
func (c *Catalog) Titles() []string {
	out := make([]string, len(c.movies))
	for i, m := range c.movies {
		out[i] = m.Title
	}
	return out
}

// DuplicateTitles reports how many rows are shadowed by an earlier row with
// the same title.
func (c *Catalog) DuplicateTitles() int { return c.duplicates }

// String implements fmt.Stringer.
func (c *Catalog) String() string {
	return fmt.Sprintf("catalog(%d movies)", len(c.movies))
}
