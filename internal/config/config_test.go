package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points REEL_HOME at a temp dir and clears REEL_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("REEL_HOME", home)
	for k := range envKeys {
		if _, ok := os.LookupEnv(k); ok {
			t.Setenv(k, "")
			_ = os.Unsetenv(k)
		}
	}
	return home
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Catalog.Source != "csv" || cfg.Recommend.TopK != 8 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SnapshotDir != filepath.Join(home, "snapshot") {
		t.Fatalf("SnapshotDir = %s", cfg.SnapshotDir)
	}
	if cfg.TMDB.Timeout != 10*time.Second || cfg.Cache.TTL != 24*time.Hour {
		t.Fatalf("durations not restored: %+v %+v", cfg.TMDB, cfg.Cache)
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	home := isolate(t)
	p := filepath.Join(home, "reel.yaml")
	body := "catalog:\n  source: csv\n  path: /data/movies.csv\nrecommend:\n  top_k: 5\ntmdb:\n  timeout: 3s\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REEL_RECOMMEND_TOP_K", "4")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Catalog.Path != "/data/movies.csv" {
		t.Fatalf("file value lost: %q", cfg.Catalog.Path)
	}
	if cfg.Recommend.TopK != 4 {
		t.Fatalf("env should override file, got %d", cfg.Recommend.TopK)
	}
	if cfg.TMDB.Timeout != 3*time.Second {
		t.Fatalf("timeout = %v", cfg.TMDB.Timeout)
	}
	if cfg.TMDB.Language != "en-US" {
		t.Fatalf("default lost under partial file: %q", cfg.TMDB.Language)
	}
}

func TestLoad_ExplicitMissingPathFails(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestLoad_DotEnvSuppliesSecretsEnvWins(t *testing.T) {
	home := isolate(t)
	if err := os.WriteFile(filepath.Join(home, ".env"), []byte("# secrets\nREEL_TMDB_API_KEY=fromdotenv\nREEL_REDIS_PASSWORD=pw\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REEL_REDIS_PASSWORD", "fromenv")
	t.Cleanup(func() { _ = os.Unsetenv("REEL_TMDB_API_KEY") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TMDB.APIKey != "fromdotenv" {
		t.Fatalf("APIKey = %q", cfg.TMDB.APIKey)
	}
	if cfg.Cache.Redis.Password != "fromenv" {
		t.Fatalf("process env should win, got %q", cfg.Cache.Redis.Password)
	}
}

func TestValidate(t *testing.T) {
	isolate(t)
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad source", func(c *Config) { c.Catalog.Source = "sqlite" }, "catalog.source"},
		{"mongo incomplete", func(c *Config) { c.Catalog.Source = "mongo" }, "catalog.mongo"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }, "cache.redis.addr"},
		{"bad backend", func(c *Config) { c.Cache.Backend = "disk" }, "cache.backend"},
		{"zero top k", func(c *Config) { c.Recommend.TopK = 0 }, "top_k"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg, err := DefaultConfig()
			if err != nil {
				t.Fatal(err)
			}
			c.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("Validate() = %v, want mention of %q", err, c.want)
			}
		})
	}
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	home := isolate(t)
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Recommend.TopK = 6
	cfg.TMDB.APIKey = "secret"
	p := filepath.Join(home, "reel.yaml")
	if err := Save(cfg, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Recommend.TopK != 6 || got.TMDB.Timeout != cfg.TMDB.Timeout {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEnsureDotEnvTemplate_DoesNotOverwrite(t *testing.T) {
	home := isolate(t)
	p := filepath.Join(home, ".env")
	if err := os.WriteFile(p, []byte("REEL_TMDB_API_KEY=keep\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDotEnvTemplate(); err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "REEL_TMDB_API_KEY=keep\n" {
		t.Fatalf("template overwrote existing file: %q", string(b))
	}
}

func TestEnsureDotEnvTemplate_CreatesWhenMissing(t *testing.T) {
	home := isolate(t)
	if err := EnsureDotEnvTemplate(); err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	m, err := LoadDotEnv()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m["REEL_TMDB_API_KEY"]; !ok {
		t.Fatalf("template missing key: %v (%s)", m, home)
	}
}

func TestLoadDotEnv_NotExist(t *testing.T) {
	isolate(t)
	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cases := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/movies.csv", filepath.Join(home, "movies.csv")},
		{"~user/x", "~user/x"},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
	}
	for _, c := range cases {
		got, err := ExpandPath(c.in)
		if err != nil {
			t.Fatalf("ExpandPath(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ExpandPath(%q) = %q want %q", c.in, got, c.want)
		}
	}
}
