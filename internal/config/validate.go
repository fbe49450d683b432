package config

import (
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"tmdb.timeout_seconds":    c.TMDB.TimeoutSeconds,
		"catalog.timeout_seconds": c.Catalog.TimeoutSeconds,
		"server.cache_size":       c.Server.CacheSize,
	}); err != nil {
		return err
	}
	return nil
}

// RequireTMDB reports whether the upstream credentials needed by the proxy are present.
// Only `serve` needs them; the importer talks to the proxy instead.
func (c *Config) RequireTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/streamcheck/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'streamcheck config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if _, err := url.ParseRequestURI(c.TMDB.BaseURL); err != nil {
		return fmt.Errorf("tmdb.base_url: %w", err)
	}
	if _, err := language.Parse(c.TMDB.Language); err != nil {
		return fmt.Errorf("tmdb.language %q is not a valid language tag: %w", c.TMDB.Language, err)
	}
	if _, err := language.ParseRegion(c.TMDB.Region); err != nil {
		return fmt.Errorf("tmdb.region %q is not a valid region code: %w", c.TMDB.Region, err)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	parsed, err := url.ParseRequestURI(c.Catalog.ProxyURL)
	if err != nil {
		return fmt.Errorf("catalog.proxy_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("catalog.proxy_url must use http or https")
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.CandidateLimit < 1 {
		return errors.New("import.candidate_limit must be >= 1")
	}
	if c.Import.ManualResultLimit < 1 {
		return errors.New("import.manual_result_limit must be >= 1")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
