package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kamusis/reel/internal/catalog"
	"github.com/kamusis/reel/internal/config"
	"github.com/kamusis/reel/internal/logging"
	"github.com/kamusis/reel/internal/poster"
	"github.com/kamusis/reel/internal/recommend"
	"github.com/kamusis/reel/internal/similarity"
	"github.com/kamusis/reel/internal/snapshot"
)

// loadCatalog reads the catalog from the configured source.
func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	var (
		c   *catalog.Catalog
		err error
	)
	switch cfg.Catalog.Source {
	case "mongo":
		c, err = catalog.LoadMongo(ctx, catalog.MongoSource{
			URI:        cfg.Catalog.Mongo.URI,
			Database:   cfg.Catalog.Mongo.Database,
			Collection: cfg.Catalog.Mongo.Collection,
		})
	default:
		c, err = catalog.LoadCSV(cfg.Catalog.Path)
	}
	if err != nil {
		return nil, err
	}
	if n := c.DuplicateTitles(); n > 0 {
		logging.Warn().Int("rows", n).Msg("duplicate titles in catalog; lookups use the first occurrence")
	}
	return c, nil
}

// loadMatrix returns a similarity matrix aligned with c, preferring the
// snapshot on disk. A missing or stale snapshot is rebuilt in memory.
func loadMatrix(ctx context.Context, cfg *config.Config, c *catalog.Catalog) (*similarity.Matrix, error) {
	snap, err := snapshot.Load(cfg.SnapshotDir)
	switch {
	case err == nil && snap.Manifest.CatalogHash == snapshot.CatalogHash(c.Movies()):
		logging.Debug().Str("dir", cfg.SnapshotDir).Msg("using similarity snapshot")
		return snap.Matrix, nil
	case err == nil:
		logging.Warn().Str("dir", cfg.SnapshotDir).Msg("snapshot does not match catalog; rebuilding in memory (run 'reel index')")
	case errors.Is(err, os.ErrNotExist):
		logging.Info().Str("dir", cfg.SnapshotDir).Msg("no snapshot; building similarity matrix in memory")
	default:
		return nil, fmt.Errorf("cannot load snapshot: %w", err)
	}

	res, err := similarity.Build(ctx, c, similarity.BuildOptions{})
	if err != nil {
		return nil, err
	}
	return res.Matrix, nil
}

// newResolver builds the TMDB resolver wrapped in the configured cache.
// The returned func releases cache connections.
func newResolver(ctx context.Context, cfg *config.Config) (poster.Resolver, func(), error) {
	tmdb := poster.NewTMDB(poster.TMDBConfig{
		APIKey:        cfg.TMDB.APIKey,
		APIBase:       cfg.TMDB.APIBase,
		ImageBase:     cfg.TMDB.ImageBase,
		Language:      cfg.TMDB.Language,
		Timeout:       cfg.TMDB.Timeout,
		RatePerSecond: cfg.TMDB.RatePerSecond,
	})
	if cfg.TMDB.APIKey == "" {
		logging.Warn().Msg("REEL_TMDB_API_KEY is not set; posters will use the placeholder")
	}

	switch cfg.Cache.Backend {
	case "redis":
		store, err := poster.NewRedisStore(ctx, poster.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return poster.NewCached(tmdb, store), func() { _ = store.Close() }, nil
	case "none":
		return tmdb, func() {}, nil
	default:
		return poster.NewCached(tmdb, poster.NewMemoryStore(cfg.Cache.Size, cfg.Cache.TTL)), func() {}, nil
	}
}

// openEngine loads catalog and matrix once and wires the poster resolver.
func openEngine(ctx context.Context, cfg *config.Config) (*recommend.Engine, func(), error) {
	c, err := loadCatalog(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	m, err := loadMatrix(ctx, cfg, c)
	if err != nil {
		return nil, nil, err
	}
	resolver, closeFn, err := newResolver(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	e, err := recommend.NewEngine(c, m, resolver, recommend.Options{
		TopK:        cfg.Recommend.TopK,
		Placeholder: cfg.Recommend.Placeholder,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return e, closeFn, nil
}
