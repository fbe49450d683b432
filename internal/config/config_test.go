package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"streamcheck/internal/config"
)

func TestLoadDefaultConfigUsesEnvTMDBKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	t.Setenv("PORT", "")
	t.Setenv("STREAMCHECK_PROXY_URL", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "streamcheck")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.WatchlistPath() != filepath.Join(wantData, "watchlist.db") {
		t.Fatalf("unexpected watchlist path: %q", cfg.WatchlistPath())
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.Region != "NO" || cfg.TMDB.Language != "en-US" {
		t.Fatalf("unexpected TMDB locale defaults: %q %q", cfg.TMDB.Language, cfg.TMDB.Region)
	}
	if cfg.Server.Bind != "127.0.0.1:4000" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.Import.CandidateLimit != 8 || cfg.Import.ManualResultLimit != 8 {
		t.Fatalf("unexpected import limits: %+v", cfg.Import)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if err := cfg.RequireTMDB(); err != nil {
		t.Fatalf("RequireTMDB returned error: %v", err)
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("PORT", "")
	t.Setenv("STREAMCHECK_PROXY_URL", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.TMDB.APIKey = "  file-key  "
	cfg.TMDB.Region = "se"
	cfg.Catalog.ProxyURL = "http://localhost:9000/api/movies/"
	cfg.Logging.Format = "JSON"
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %q, got %q exists=%v", path, resolved, exists)
	}
	if loaded.TMDB.APIKey != "file-key" {
		t.Fatalf("expected trimmed api key, got %q", loaded.TMDB.APIKey)
	}
	if loaded.TMDB.Region != "SE" {
		t.Fatalf("expected upper-cased region, got %q", loaded.TMDB.Region)
	}
	if loaded.Catalog.ProxyURL != "http://localhost:9000/api/movies" {
		t.Fatalf("expected trailing slash trimmed, got %q", loaded.Catalog.ProxyURL)
	}
	if loaded.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", loaded.Logging.Format)
	}
}

func TestPortEnvOverridesBindPort(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("STREAMCHECK_PROXY_URL", "")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PORT", "5050")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Bind != "127.0.0.1:5050" {
		t.Fatalf("expected PORT override, got %q", cfg.Server.Bind)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"language", func(c *config.Config) { c.TMDB.Language = "not a tag!" }, "tmdb.language"},
		{"region", func(c *config.Config) { c.TMDB.Region = "ZZZZ" }, "tmdb.region"},
		{"proxy scheme", func(c *config.Config) { c.Catalog.ProxyURL = "ftp://example.com/api" }, "catalog.proxy_url"},
		{"candidate limit", func(c *config.Config) { c.Import.CandidateLimit = -1 }, "import.candidate_limit"},
		{"timeout", func(c *config.Config) { c.Catalog.TimeoutSeconds = 0 }, "catalog.timeout_seconds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestRequireTMDBWithoutKey(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireTMDB(); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("PORT", "")
	t.Setenv("STREAMCHECK_PROXY_URL", "")
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Server.DiscoverProvider != "Netflix" {
		t.Fatalf("unexpected discover provider: %q", cfg.Server.DiscoverProvider)
	}
}
