package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CatalogConfig selects where the movie catalog is read from.
type CatalogConfig struct {
	Source string      `koanf:"source" yaml:"source"` // csv | mongo
	Path   string      `koanf:"path" yaml:"path,omitempty"`
	Mongo  MongoConfig `koanf:"mongo" yaml:"mongo,omitempty"`
}

// MongoConfig locates the catalog collection when Source is mongo.
type MongoConfig struct {
	URI        string `koanf:"uri" yaml:"uri,omitempty"`
	Database   string `koanf:"database" yaml:"database,omitempty"`
	Collection string `koanf:"collection" yaml:"collection,omitempty"`
}

// TMDBConfig configures the poster metadata API.
type TMDBConfig struct {
	APIKey        string        `koanf:"api_key" yaml:"api_key,omitempty"`
	APIBase       string        `koanf:"api_base" yaml:"api_base"`
	ImageBase     string        `koanf:"image_base" yaml:"image_base"`
	Language      string        `koanf:"language" yaml:"language"`
	Timeout       time.Duration `koanf:"timeout" yaml:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second" yaml:"rate_per_second"`
}

// CacheConfig configures the poster URL cache.
type CacheConfig struct {
	Backend string        `koanf:"backend" yaml:"backend"` // memory | redis | none
	Size    int           `koanf:"size" yaml:"size"`
	TTL     time.Duration `koanf:"ttl" yaml:"ttl"`
	Redis   RedisConfig   `koanf:"redis" yaml:"redis,omitempty"`
}

// RedisConfig locates a Redis server for the redis cache backend.
type RedisConfig struct {
	Addr     string `koanf:"addr" yaml:"addr,omitempty"`
	Password string `koanf:"password" yaml:"password,omitempty"`
	DB       int    `koanf:"db" yaml:"db,omitempty"`
}

// RecommendConfig tunes the recommender.
type RecommendConfig struct {
	TopK        int    `koanf:"top_k" yaml:"top_k"`
	Placeholder string `koanf:"placeholder" yaml:"placeholder"`
}

// ServerConfig configures `reel serve`.
type ServerConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// LogConfig configures diagnostics logging.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// Config is the in-memory representation of ~/.reel/reel.yaml.
type Config struct {
	SnapshotDir string          `koanf:"snapshot_dir" yaml:"snapshot_dir"`
	Catalog     CatalogConfig   `koanf:"catalog" yaml:"catalog"`
	TMDB        TMDBConfig      `koanf:"tmdb" yaml:"tmdb"`
	Cache       CacheConfig     `koanf:"cache" yaml:"cache"`
	Recommend   RecommendConfig `koanf:"recommend" yaml:"recommend"`
	Server      ServerConfig    `koanf:"server" yaml:"server"`
	Log         LogConfig       `koanf:"log" yaml:"log"`
}

// ReelDir returns the absolute path to ~/.reel/, or $REEL_HOME when set.
func ReelDir() (string, error) {
	if d := os.Getenv("REEL_HOME"); d != "" {
		return ExpandPath(d)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".reel"), nil
}

// ConfigPath returns the absolute path to ~/.reel/reel.yaml.
func ConfigPath() (string, error) {
	dir, err := ReelDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "reel.yaml"), nil
}

// ExpandPath expands a leading ~ or ~/ to the user's home directory.
// Other forms such as ~user/x are returned unchanged.
func ExpandPath(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the configuration written by `reel init`.
func DefaultConfig() (*Config, error) {
	dir, err := ReelDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		SnapshotDir: filepath.Join(dir, "snapshot"),
		Catalog: CatalogConfig{
			Source: "csv",
			Path:   filepath.Join(dir, "final_data.csv"),
		},
		TMDB: TMDBConfig{
			APIBase:       "https://api.themoviedb.org/3",
			ImageBase:     "https://image.tmdb.org/t/p/w500",
			Language:      "en-US",
			Timeout:       10 * time.Second,
			RatePerSecond: 20,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Size:    2048,
			TTL:     24 * time.Hour,
		},
		Recommend: RecommendConfig{
			TopK:        8,
			Placeholder: "https://via.placeholder.com/500x750?text=No+Poster",
		},
		Server: ServerConfig{Addr: "127.0.0.1:8501"},
		Log:    LogConfig{Level: "warn", Format: "console"},
	}, nil
}

// Validate checks enumerated fields and required values.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case "csv":
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the csv source")
		}
	case "mongo":
		m := c.Catalog.Mongo
		if m.URI == "" || m.Database == "" || m.Collection == "" {
			return fmt.Errorf("catalog.mongo needs uri, database and collection")
		}
	default:
		return fmt.Errorf("unsupported catalog.source %q (want csv or mongo)", c.Catalog.Source)
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported cache.backend %q (want memory, redis or none)", c.Cache.Backend)
	}
	if c.Recommend.TopK <= 0 {
		return fmt.Errorf("recommend.top_k must be positive, got %d", c.Recommend.TopK)
	}
	if c.SnapshotDir == "" {
		return fmt.Errorf("snapshot_dir is required")
	}
	return nil
}

// Save marshals cfg and writes it to path, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
