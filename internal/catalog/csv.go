package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads a catalog from a CSV file whose header names at least the
// id, title and soup columns.
func LoadCSV(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open catalog %s: %w", path, err)
	}
	defer f.Close()

	movies, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return New(movies)
}

// ReadCSV parses movies from r. Header names are matched case-insensitively
// and extra columns are ignored. A short row or empty soup cell yields an
// empty soup.
func ReadCSV(r io.Reader) ([]Movie, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("%w: cannot read header: %v", ErrMalformedSnapshot, err)
	}

	cols := map[string]int{"id": -1, "title": -1, "soup": -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if pos, ok := cols[name]; ok && pos < 0 {
			cols[name] = i
		}
	}
	for _, name := range []string{"id", "title", "soup"} {
		if cols[name] < 0 {
			return nil, fmt.Errorf("%w: missing %q column", ErrMalformedSnapshot, name)
		}
	}

	var out []Movie
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedSnapshot, line, err)
		}

		rawID := strings.TrimSpace(field(rec, cols["id"]))
		id, err := parseID(rawID)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad id %q", ErrMalformedSnapshot, line, rawID)
		}
		out = append(out, Movie{
			ID:    id,
			Title: field(rec, cols["title"]),
			Soup:  field(rec, cols["soup"]),
		})
	}
	if len(out) == 0 {
		return nil, ErrEmptyCatalog
	}
	return out, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}

// parseID accepts integers and integral floats ("19995.0"), which pandas
// writes for id columns that once held NaN.
func parseID(s string) (int64, error) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}
