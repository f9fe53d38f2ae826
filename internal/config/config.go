// Package config handles the parsing and validation of application
// configuration from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/sourcequery/spyglass/internal/logger"
	"github.com/sourcequery/spyglass/internal/vars"
)

// AnyGame marks a maintenance flag that applies to every game folder.
const AnyGame = "AnyGame"

// Config represents the complete application flags configuration.
type Config struct {
	Server    Server        `group:"Server Options" env-namespace:"SPYGLASS"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"SPYGLASS_DB"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"SPYGLASS_GEOIP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"SPYGLASS_RATE_LIMIT"`
	A2S       A2S           `group:"A2S Options" namespace:"a2s" env-namespace:"SPYGLASS_A2S"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"SPYGLASS_LOG"`

	Query   string `short:"q" long:"query" description:"Query one server (host:port), print info and players, then exit"`
	Version bool   `short:"v" long:"version" description:"Print version and build info"`
}

// Server holds web server configuration.
type Server struct {
	Address      string   `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	AuthToken    string   `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Admin authentication token"`
	AllowedGames []string `short:"a" long:"allowed-game" env:"ALLOWED_GAMES" description:"Game folder names accepted for tracking (empty allows all)" env-delim:","`
	MaxBodySize  int64    `long:"max-body-size" env:"MAX_BODY_SIZE" description:"Max body size for incoming requests" default:"512"`
	TrustProxy   bool     `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// Storage holds database configuration and one-shot maintenance flags.
type Storage struct {
	Path          string `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"spyglass.db"`
	PruneEmpty    string `long:"prune-empty" description:"Delete nodes with no query data. Optional arg: game folder." optional:"true" optional-value:"AnyGame"`
	CheckInactive string `long:"check-inactive" description:"Re-check nodes with no query data. Update if UP, delete if DOWN. Optional arg: game folder." optional:"true" optional-value:"AnyGame"`
	CheckAll      string `long:"check-all" description:"Re-check ALL nodes. Update if UP, delete if DOWN. Optional arg: game folder." optional:"true" optional-value:"AnyGame"`
	GenerateCount int    `long:"gen-fake-data" hidden:"true"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"spyglass.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// A2S holds Source query protocol configuration.
type A2S struct {
	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" description:"Query deadline for the whole exchange (0 blocks indefinitely)" default:"3s"`
	BufferSize uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"Response receive buffer size" default:"4096"`
	MaxString  int           `long:"max-string" env:"MAX_STRING" description:"Terminator scan bound for response strings" default:"256"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"8"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
	SoftLimitDur   time.Duration `long:"soft" env:"SOFT" description:"Soft limit: skip re-query if a server was seen within duration" default:"5m"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the
// help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	// One-shot modes never serve the API, so the token is only required
	// when the server will actually start.
	if cfg.Server.AuthToken == "" && !cfg.oneShot() {
		fmt.Fprintln(os.Stderr,
			"Required flag `-t, --auth-token' or environment variable `SPYGLASS_AUTH_TOKEN` was not specified!")
		os.Exit(1)
	}

	return &cfg
}

// oneShot reports whether any flag selecting a run-and-exit mode is set.
func (c *Config) oneShot() bool {
	return c.Query != "" ||
		c.Storage.GenerateCount > 0 ||
		c.Storage.PruneEmpty != "" ||
		c.Storage.CheckInactive != "" ||
		c.Storage.CheckAll != ""
}
