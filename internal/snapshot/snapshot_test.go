package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/kamusis/reel/internal/catalog"
	"github.com/kamusis/reel/internal/similarity"
)

func buildFixture(t *testing.T) (*catalog.Catalog, *similarity.Result) {
	t.Helper()
	c, err := catalog.New([]catalog.Movie{
		{ID: 1, Title: "A", Soup: "action hero"},
		{ID: 2, Title: "B", Soup: "action hero"},
		{ID: 3, Title: "C", Soup: "romance drama"},
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := similarity.Build(context.Background(), c, similarity.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return c, res
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, res := buildFixture(t)
	m := NewManifest(c, res.VocabSize)
	if err := Write(dir, m, c, res.Matrix); err != nil {
		t.Fatalf("Write: %v", err)
	}

	snap, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(snap.Catalog.Movies(), c.Movies()) {
		t.Fatalf("movies differ: %+v", snap.Catalog.Movies())
	}
	if !reflect.DeepEqual(snap.Matrix.Data, res.Matrix.Data) {
		t.Fatalf("matrix differs")
	}
	if snap.Manifest.CatalogHash != CatalogHash(c.Movies()) || snap.Manifest.VocabSize != 4 {
		t.Fatalf("unexpected manifest: %+v", snap.Manifest)
	}
}

func TestLoad_TruncatedMatrix(t *testing.T) {
	dir := t.TempDir()
	c, res := buildFixture(t)
	if err := Write(dir, NewManifest(c, res.VocabSize), c, res.Matrix); err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(filepath.Join(dir, defaultMatrixFile), 16); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected ErrMalformedSnapshot, got %v", err)
	}
}

func TestLoad_MovieCountMismatch(t *testing.T) {
	dir := t.TempDir()
	c, res := buildFixture(t)
	m := NewManifest(c, res.VocabSize)
	if err := Write(dir, m, c, res.Matrix); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, defaultMoviesFile), []byte(`{"id":1,"title":"A","soup":""}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("expected ErrMalformedSnapshot, got %v", err)
	}
}

func TestWrite_RejectsDimensionMismatch(t *testing.T) {
	c, _ := buildFixture(t)
	m, err := similarity.NewMatrix(2, make([]float64, 4))
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(t.TempDir(), Manifest{}, c, m); !errors.Is(err, similarity.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCatalogHash_SensitiveToOrderAndContent(t *testing.T) {
	a := []catalog.Movie{{ID: 1, Title: "A", Soup: "x"}, {ID: 2, Title: "B", Soup: "y"}}
	b := []catalog.Movie{a[1], a[0]}
	c := []catalog.Movie{{ID: 1, Title: "A", Soup: "x "}, a[1]}
	if CatalogHash(a) == CatalogHash(b) || CatalogHash(a) == CatalogHash(c) {
		t.Fatalf("hash collision on reordered or edited catalog")
	}
	if CatalogHash(a) != CatalogHash(append([]catalog.Movie(nil), a...)) {
		t.Fatalf("hash not deterministic")
	}
}

func TestAtomicSwap_ReplacesExisting(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "new")
	dst := filepath.Join(base, "snapshot")
	for _, d := range []string{src, dst} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(src, "marker"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AtomicSwap(src, dst); err != nil {
		t.Fatalf("AtomicSwap: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dst, "marker"))
	if err != nil || string(b) != "new" {
		t.Fatalf("dest not replaced: %q %v", b, err)
	}
	if _, err := os.Stat(dst + ".bak"); !os.IsNotExist(err) {
		t.Fatalf("backup left behind")
	}
}

func TestAcquireBuildLock_Exclusive(t *testing.T) {
	dir := t.TempDir()
	release, err := AcquireBuildLock(dir, time.Second)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	defer release()

	if _, err := AcquireBuildLock(dir, 300*time.Millisecond); err == nil {
		t.Fatalf("expected second lock to fail")
	}
}
