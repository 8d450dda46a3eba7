package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotEnvPath returns the absolute path to reel's dotenv file (~/.reel/.env).
func DotEnvPath() (string, error) {
	dir, err := ReelDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// LoadDotEnv reads ~/.reel/.env and returns its key/value pairs. A missing
// file yields an empty map.
func LoadDotEnv() (map[string]string, error) {
	p, err := DotEnvPath()
	if err != nil {
		return nil, err
	}
	m, err := godotenv.Read(p)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("cannot read dotenv file %s: %w", p, err)
	}
	return m, nil
}

// ApplyDotEnv exports ~/.reel/.env into the process environment. Variables
// that are already set keep their value; empty entries are skipped.
func ApplyDotEnv() error {
	vals, err := LoadDotEnv()
	if err != nil {
		return err
	}
	for k, v := range vals {
		if v == "" {
			continue
		}
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("cannot export %s: %w", k, err)
		}
	}
	return nil
}

// EnsureDotEnvTemplate creates ~/.reel/.env if it does not already exist.
//
// The template lists the secret keys with empty values.
func EnsureDotEnvTemplate() error {
	p, err := DotEnvPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat dotenv file %s: %w", p, err)
	}

	body := "" +
		"REEL_TMDB_API_KEY=\n" +
		"REEL_REDIS_PASSWORD=\n" +
		"REEL_MONGO_URI=\n"

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		return fmt.Errorf("cannot write dotenv template %s: %w", p, err)
	}
	return nil
}
