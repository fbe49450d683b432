package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"streamcheck/internal/config"
	"streamcheck/internal/logging"
	"streamcheck/internal/tmdb"
)

// Upstream is the subset of the TMDB client the proxy forwards to.
type Upstream interface {
	SearchMovie(ctx context.Context, query string, opts tmdb.SearchOptions) (json.RawMessage, error)
	Popular(ctx context.Context, page int, language string) (json.RawMessage, error)
	MovieDetails(ctx context.Context, movieID int64, language string) (json.RawMessage, error)
	ReleaseDates(ctx context.Context, movieID int64) (json.RawMessage, error)
	WatchProviders(ctx context.Context, movieID int64) (*tmdb.WatchProvidersResponse, error)
	Similar(ctx context.Context, movieID int64, page int, language string) (json.RawMessage, error)
	Genres(ctx context.Context, language string) (json.RawMessage, error)
	MovieProviders(ctx context.Context, region string) ([]tmdb.Provider, error)
	Discover(ctx context.Context, opts tmdb.DiscoverOptions) (json.RawMessage, error)
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the clock that drives cache expiry.
func WithClock(clock Clock) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Server is the HTTP catalog proxy.
type Server struct {
	bind     string
	language string
	region   string
	provider string
	upstream Upstream
	logger   *slog.Logger
	clock    Clock

	payloads  *Cache[json.RawMessage]
	providers *Cache[int64]
	router    chi.Router

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New builds a proxy server from configuration.
func New(cfg *config.Config, upstream Upstream, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("proxy: config required")
	}
	if upstream == nil {
		return nil, errors.New("proxy: upstream client required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:     strings.TrimSpace(cfg.Server.Bind),
		language: cfg.TMDB.Language,
		region:   cfg.TMDB.Region,
		provider: strings.TrimSpace(cfg.Server.DiscoverProvider),
		upstream: upstream,
		logger:   logging.NewComponentLogger(logger, "proxy"),
		clock:    SystemClock(),
	}
	for _, opt := range opts {
		opt(s)
	}

	ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	var err error
	if s.payloads, err = NewCache[json.RawMessage](ttl, cfg.Server.CacheSize, s.clock); err != nil {
		return nil, err
	}
	if s.providers, err = NewCache[int64](ttl, cfg.Server.CacheSize, s.clock); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID, s.recoverer, s.requestLogger, cors)

	r.Get("/api/health", s.handleHealth)
	r.Route("/api/movies", func(r chi.Router) {
		r.Get("/popular", s.handlePopular)
		r.Get("/search", s.handleSearch)
		r.Get("/genres", s.handleGenres)
		r.Get("/netflix", s.handleDiscover)
		r.Get("/discover", s.handleDiscover)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleDetails)
			r.Get("/release-dates", s.handleReleaseDates)
			r.Get("/watch-providers", s.handleWatchProviders)
			r.Get("/similar", s.handleSimilar)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Start listens on the configured bind address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("proxy listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.server = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("proxy server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("proxy listening",
		logging.String("address", listener.Addr().String()),
		logging.String("region", s.region),
		logging.String("language", s.language),
	)
	return nil
}

// Addr returns the bound address once the server has started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully and drops every cached response so a
// restarted server starts cold.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	defer s.purgeCaches()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("proxy shutdown incomplete", logging.Error(err))
		return
	}
	s.logger.Info("proxy stopped")
}

func (s *Server) purgeCaches() {
	s.payloads.Purge()
	s.providers.Purge()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if raw, ok := payload.(json.RawMessage); ok {
		_, _ = w.Write(raw)
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
