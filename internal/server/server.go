// Package server implements the HTTP server, middleware, and request
// handlers for the application.
package server

import (
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/sourcequery/spyglass/internal/config"
	"github.com/sourcequery/spyglass/internal/geoip"
	"github.com/sourcequery/spyglass/internal/storage"
)

// New creates a new Server instance with the provided storage, GeoIP
// provider, and configuration.
func New(store *storage.Repository, geo *geoip.Provider, cfg *config.Config) *Server {
	gameSet := make(map[uint64]struct{})
	for _, folder := range cfg.Server.AllowedGames {
		gameSet[xxhash.Sum64String(folder)] = struct{}{}
	}

	return &Server{
		storage:        store,
		geoip:          geo,
		a2sOptions:     cfg.A2S,
		authToken:      cfg.Server.AuthToken,
		allowedGames:   gameSet,
		maxBody:        cfg.Server.MaxBodySize,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,
		softLimitDur:   cfg.RateLimit.SoftLimitDur,

		queue:    make(chan registerJob, 1000),
		shutdown: make(chan struct{}),
	}
}

// StartWorkers initializes the background worker pool processing
// registration jobs and the cache cleanup routine.
func (s *Server) StartWorkers() {
	workers := 10
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	go s.gcSeenCache()
}

// StopWorkers gracefully stops the background workers and closes the job
// queue.
func (s *Server) StopWorkers() {
	close(s.shutdown)
	close(s.queue)
	s.wg.Wait()
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/servers", s.RateLimitMiddleware(http.HandlerFunc(s.handleRegister)))
	mux.Handle("GET /api/servers", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleNodes)))
	mux.Handle("GET /api/server", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleGetNode)))
	mux.Handle("DELETE /api/server", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleDeleteNode)))
	mux.Handle("GET /api/query", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleQueryInfo)))
	mux.Handle("GET /api/players", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleQueryPlayers)))
	mux.Handle("GET /api/version", http.HandlerFunc(handleVersion))

	return s.LoggingMiddleware(mux)
}

// gcSeenCache periodically evicts expired entries from the soft-limit
// cache.
func (s *Server) gcSeenCache() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			now := time.Now()
			s.seenCache.Range(func(key, value any) bool {
				if t, ok := value.(time.Time); ok {
					if now.Sub(t) > s.softLimitDur {
						s.seenCache.Delete(key)
					}
				} else {
					s.seenCache.Delete(key)
				}
				return true
			})
		}
	}
}
