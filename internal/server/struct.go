package server

import (
	"sync"
	"time"

	"github.com/sourcequery/spyglass/internal/config"
	"github.com/sourcequery/spyglass/internal/geoip"
	"github.com/sourcequery/spyglass/internal/storage"
)

// Server holds the dependencies, configuration, and runtime state
// required to handle HTTP requests and background query processing.
type Server struct {
	// storage provides access to the persistent database layer for
	// reading and writing tracked nodes.
	storage *storage.Repository

	// geoip resolves server IP addresses to country codes. It can be nil
	// if the GeoIP database is not initialized.
	geoip *geoip.Provider

	// allowedGames is a set of hashed game folder names (using xxhash)
	// that are accepted for tracking. Empty means every game is accepted.
	allowedGames map[uint64]struct{}

	// queue passes registration jobs from HTTP handlers to background
	// workers so the A2S round-trip never blocks the client.
	queue chan registerJob

	// shutdown broadcasts a stop signal to background goroutines during
	// a graceful shutdown.
	shutdown chan struct{}

	// seenCache tracks recently processed servers, keyed by an xxhash of
	// "ip:port". It backs the soft rate limit that skips re-querying a
	// server registered moments ago.
	seenCache sync.Map

	// authToken is the secret required by administrative API endpoints.
	authToken string

	// a2sOptions holds the query protocol settings (deadline, buffer
	// size, string scan bound).
	a2sOptions config.A2S

	// wg waits for background workers to drain before shutdown completes.
	wg sync.WaitGroup

	// maxBody caps incoming request bodies in bytes.
	maxBody int64

	// hardLimitCount is the request budget per IP within hardLimitWin.
	hardLimitCount int

	// hardLimitWin is the time window of the hard rate limiter.
	hardLimitWin time.Duration

	// softLimitDur is how long a server registration is considered fresh;
	// repeats within the window are acknowledged but not re-queried.
	softLimitDur time.Duration

	// trustProxy enables X-Forwarded-For style headers when resolving
	// the client address.
	trustProxy bool
}

// registerJob is a unit of work for the background workers: one server
// address to query and record.
type registerJob struct {
	IP   string
	Port int
}
