package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envKeys maps REEL_* environment variables to config paths.
var envKeys = map[string]string{
	"REEL_SNAPSHOT_DIR":          "snapshot_dir",
	"REEL_CATALOG_SOURCE":        "catalog.source",
	"REEL_CATALOG_PATH":          "catalog.path",
	"REEL_MONGO_URI":             "catalog.mongo.uri",
	"REEL_MONGO_DATABASE":        "catalog.mongo.database",
	"REEL_MONGO_COLLECTION":      "catalog.mongo.collection",
	"REEL_TMDB_API_KEY":          "tmdb.api_key",
	"REEL_TMDB_API_BASE":         "tmdb.api_base",
	"REEL_TMDB_IMAGE_BASE":       "tmdb.image_base",
	"REEL_TMDB_LANGUAGE":         "tmdb.language",
	"REEL_TMDB_TIMEOUT":          "tmdb.timeout",
	"REEL_TMDB_RATE_PER_SECOND":  "tmdb.rate_per_second",
	"REEL_CACHE_BACKEND":         "cache.backend",
	"REEL_CACHE_SIZE":            "cache.size",
	"REEL_CACHE_TTL":             "cache.ttl",
	"REEL_REDIS_ADDR":            "cache.redis.addr",
	"REEL_REDIS_PASSWORD":        "cache.redis.password",
	"REEL_REDIS_DB":              "cache.redis.db",
	"REEL_RECOMMEND_TOP_K":       "recommend.top_k",
	"REEL_RECOMMEND_PLACEHOLDER": "recommend.placeholder",
	"REEL_SERVER_ADDR":           "server.addr",
	"REEL_LOG_LEVEL":             "log.level",
	"REEL_LOG_FORMAT":            "log.format",
}

// Load resolves configuration with precedence env > file > defaults.
//
// path may be empty, in which case ~/.reel/reel.yaml is used if it exists.
// ~/.reel/.env is applied to the process environment first without
// overriding variables that are already set.
func Load(path string) (*Config, error) {
	if err := ApplyDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	defaults, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		if path, err = ConfigPath(); err != nil {
			return nil, err
		}
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("cannot read config %s: %w", path, statErr)
	}

	if err := k.Load(env.Provider("REEL_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	for _, p := range []*string{&cfg.SnapshotDir, &cfg.Catalog.Path} {
		if *p, err = ExpandPath(*p); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envTransform returns the config path for a known variable, or "" so koanf
// skips it.
func envTransform(key string) string {
	return envKeys[strings.ToUpper(key)]
}
