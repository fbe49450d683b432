package config

const (
	defaultDataDir               = "~/.local/share/streamcheck"
	defaultLogDir                = "~/.local/share/streamcheck/logs"
	defaultTMDBBaseURL           = "https://api.themoviedb.org/3"
	defaultTMDBLanguage          = "en-US"
	defaultTMDBRegion            = "NO"
	defaultTMDBTimeoutSeconds    = 10
	defaultTMDBMaxRetries        = 3
	defaultServerBind            = "127.0.0.1:4000"
	defaultCacheTTLSeconds       = 600
	defaultCacheSize             = 512
	defaultDiscoverProvider      = "Netflix"
	defaultProxyURL              = "http://127.0.0.1:4000/api/movies"
	defaultCatalogTimeoutSeconds = 15
	defaultImportCandidateLimit  = 8
	defaultImportManualLimit     = 8
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultLogMaxSizeMB          = 20
	defaultLogMaxBackups         = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			Language:       defaultTMDBLanguage,
			Region:         defaultTMDBRegion,
			TimeoutSeconds: defaultTMDBTimeoutSeconds,
			MaxRetries:     defaultTMDBMaxRetries,
		},
		Server: Server{
			Bind:             defaultServerBind,
			CacheTTLSeconds:  defaultCacheTTLSeconds,
			CacheSize:        defaultCacheSize,
			DiscoverProvider: defaultDiscoverProvider,
		},
		Catalog: Catalog{
			ProxyURL:       defaultProxyURL,
			TimeoutSeconds: defaultCatalogTimeoutSeconds,
		},
		Import: Import{
			CandidateLimit:    defaultImportCandidateLimit,
			ManualResultLimit: defaultImportManualLimit,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
		},
	}
}
