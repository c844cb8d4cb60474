package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	SessionStoreMemory   = "memory"
	SessionStoreRedis    = "redis"
	SessionStorePostgres = "postgres"
)

type Config struct {
	Port             int
	Env              string
	Backend          BackendConfig
	Session          SessionConfig
	Redis            RedisConfig
	DB               DBConfig
	InFlightTTL      time.Duration
	OtelCollectorUrl string
}

type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

type SessionConfig struct {
	Store        string
	IdleTimeout  time.Duration
	Lifetime     time.Duration
	CookieSecure bool
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

// ParseConfig reads the configuration from args. Every flag can also be set
// through an environment variable named after it, e.g. -backend-url is
// BACKEND_URL; flags given on the command line win.
func ParseConfig(args []string, getenv func(string) string) (Config, bool, error) {
	var cfg Config

	fs := flag.NewFlagSet("seat-reservation-web", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.IntVar(&cfg.Port, "port", 3000, "server port")
	fs.StringVar(&cfg.Env, "env", "dev", "Environment (dev|staging|prod)")

	fs.StringVar(&cfg.Backend.URL, "backend-url", "http://localhost:5000", "Booking service base URL")
	fs.DurationVar(&cfg.Backend.Timeout, "backend-timeout", 10*time.Second, "Booking service request timeout")

	fs.StringVar(&cfg.Session.Store, "session-store", SessionStoreMemory, "Session store (memory|redis|postgres)")
	fs.DurationVar(&cfg.Session.IdleTimeout, "session-idle-timeout", 20*time.Minute, "Session idle timeout")
	fs.DurationVar(&cfg.Session.Lifetime, "session-lifetime", 12*time.Hour, "Session absolute lifetime")
	fs.BoolVar(&cfg.Session.CookieSecure, "cookie-secure", false, "Send the session cookie over HTTPS only")

	fs.StringVar(&cfg.Redis.URL, "redis-url", "", "Redis address")
	fs.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	fs.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	fs.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	fs.StringVar(&cfg.DB.DSN, "db-dsn", "", "PostgreSQL DSN")
	fs.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	fs.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	fs.DurationVar(&cfg.InFlightTTL, "inflight-ttl", 30*time.Second, "Upper bound for a held in-flight lock")
	fs.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector gRPC endpoint")

	displayVersion := fs.Bool("version", false, "Display version and exit")

	var envErr error
	fs.VisitAll(func(f *flag.Flag) {
		if f.Name == "version" {
			return
		}

		name := envName(f.Name)
		if v := getenv(name); v != "" {
			if err := fs.Set(f.Name, v); err != nil {
				envErr = errors.Join(envErr, fmt.Errorf("invalid %s: %w", name, err))
			}
		}
	})
	if envErr != nil {
		return Config{}, false, envErr
	}

	err := fs.Parse(args)
	if err != nil {
		return Config{}, false, err
	}

	if *displayVersion {
		return cfg, true, nil
	}

	return cfg, false, cfg.validate()
}

func (cfg Config) validate() error {
	if cfg.Backend.URL == "" {
		return errors.New("backend-url must be provided")
	}

	switch cfg.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if cfg.Redis.URL == "" {
			return errors.New("redis-url must be provided for the redis session store")
		}
	case SessionStorePostgres:
		if cfg.DB.DSN == "" {
			return errors.New("db-dsn must be provided for the postgres session store")
		}
	default:
		return fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}

	if cfg.InFlightTTL <= 0 {
		return errors.New("inflight-ttl must be positive")
	}

	return nil
}

func envName(flagName string) string {
	return strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}
