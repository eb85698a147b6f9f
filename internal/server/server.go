// Package server wires the watchlist application together: configuration,
// database, session store, handlers and the HTTP server itself.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/GavinBoller/WatchlistVercel-sub001/internal/auth"
	"github.com/GavinBoller/WatchlistVercel-sub001/internal/config"
	"github.com/GavinBoller/WatchlistVercel-sub001/internal/database"
	"github.com/GavinBoller/WatchlistVercel-sub001/internal/movies"
	"github.com/GavinBoller/WatchlistVercel-sub001/internal/session"
	"github.com/GavinBoller/WatchlistVercel-sub001/internal/storage"
	"github.com/GavinBoller/WatchlistVercel-sub001/internal/watchlist"
)

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg config.Config

	db           database.Service
	sessionStore session.Store
	sessions     session.Manager
	storage      storage.Service // nil when object storage is unconfigured

	authHandler      *auth.Handler
	watchlistHandler *watchlist.Handler
	moviesHandler    *movies.Handler // nil when no metadata API key is set
}

// New assembles the server from its collaborators. storageSvc and the movie
// metadata client are optional; their endpoints answer 503 when absent.
func New(cfg config.Config, db database.Service, sessionStore session.Store, storageSvc storage.Service) *Server {
	sessions := session.NewManager(sessionStore)

	authService := auth.NewService(db, cfg.BootstrapAdmin)
	watchlistService := watchlist.NewService(watchlist.NewRepository(db))

	s := &Server{
		cfg:              cfg,
		db:               db,
		sessionStore:     sessionStore,
		sessions:         sessions,
		storage:          storageSvc,
		authHandler:      auth.NewHandler(authService, sessions, cfg.SessionMaxAge, cfg.CookieSecure),
		watchlistHandler: watchlist.NewHandler(watchlistService),
	}

	if cfg.TMDBAPIKey != "" {
		s.moviesHandler = movies.NewHandler(movies.NewClient(cfg.TMDBAPIKey))
	} else {
		slog.Warn("TMDB_API_KEY not set, movie search disabled")
	}

	return s
}

// HTTPServer returns a configured *http.Server serving the registered routes.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.Port),
		Handler:           s.RegisterRoutes(),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
