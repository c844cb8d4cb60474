package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation-web/internal/app"
	"github.com/metinatakli/seat-reservation-web/internal/backend"
	"github.com/metinatakli/seat-reservation-web/internal/domain"
	"github.com/metinatakli/seat-reservation-web/internal/validator"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

type BaseSuite struct {
	suite.Suite
	dbContainer    *PostgresContainer
	cacheContainer *RedisContainer
	cfg            app.Config
	logger         *slog.Logger
	redisClient    *redis.Client
	db             *pgxpool.Pool
}

func (s *BaseSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()

	postgresContainer, err := getDbContainer(ctx)
	if err != nil {
		s.T().Skipf("failed to start postgres container: %s", err)
	}
	s.dbContainer = postgresContainer

	redisContainer, err := getCacheContainer(ctx)
	if err != nil {
		s.T().Skipf("failed to start redis container: %s", err)
	}
	s.cacheContainer = redisContainer

	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cfg = app.Config{
		Port: 3000,
		Env:  "test",
		Backend: app.BackendConfig{
			Timeout: 5 * time.Second,
		},
		Session: app.SessionConfig{
			IdleTimeout: 20 * time.Minute,
			Lifetime:    time.Hour,
		},
		DB: app.DBConfig{
			DSN:          postgresContainer.ConnectionString,
			MaxOpenConns: 10,
			MaxIdleTime:  2 * time.Minute,
		},
		Redis: app.RedisConfig{
			URL:          redisContainer.ConnectionString,
			MaxOpenConns: 10,
			MaxIdleConns: 10,
			MaxIdleTime:  2 * time.Minute,
		},
		InFlightTTL: 10 * time.Second,
	}

	s.redisClient, err = app.NewRedisClient(s.cfg)
	s.Require().NoError(err)

	s.db, err = app.NewDatabasePool(s.cfg)
	s.Require().NoError(err)

	s.Require().NoError(app.MigrateSessions(s.db))
}

func (s *BaseSuite) TearDownSuite() {
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	if s.dbContainer != nil {
		if err := testcontainers.TerminateContainer(s.dbContainer.Container); err != nil {
			s.T().Logf("failed to terminate container: %s", err)
		}
	}
	if s.cacheContainer != nil {
		if err := testcontainers.TerminateContainer(s.cacheContainer.Container); err != nil {
			s.T().Logf("failed to terminate container: %s", err)
		}
	}
}

// newServer wires the application against the given session store, guard and
// booking backend, the same way Run does.
func (s *BaseSuite) newServer(store scs.Store, guard domain.ActionGuard, backendURL string) *httptest.Server {
	cfg := s.cfg
	cfg.Backend.URL = backendURL

	client, err := backend.NewClient(backendURL, &http.Client{Timeout: cfg.Backend.Timeout})
	s.Require().NoError(err)

	application, err := app.NewApp(cfg, s.logger, validator.NewValidator(), app.NewSessionManager(cfg, store), client, guard)
	s.Require().NoError(err)

	server := httptest.NewServer(application.Routes())
	s.T().Cleanup(server.Close)

	return server
}

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, server *httptest.Server) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &browser{
		t:    t,
		base: server.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type page struct {
	status   int
	location string
	body     string
}

func (b *browser) get(path string) page {
	return b.send(http.MethodGet, path, nil)
}

func (b *browser) post(path string, values url.Values) page {
	if values == nil {
		values = url.Values{}
	}
	return b.send(http.MethodPost, path, values)
}

func (b *browser) send(method, path string, values url.Values) page {
	b.t.Helper()

	var body io.Reader
	if values != nil {
		body = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequest(method, b.base+path, body)
	require.NoError(b.t, err)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)

	return page{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(data)}
}
