package app

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/exaring/otelpgx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxstd "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/metinatakli/seat-reservation-web/internal/backend"
	"github.com/metinatakli/seat-reservation-web/internal/domain"
	"github.com/metinatakli/seat-reservation-web/internal/inflight"
	"github.com/metinatakli/seat-reservation-web/internal/migrations"
	appvalidator "github.com/metinatakli/seat-reservation-web/internal/validator"
	"github.com/metinatakli/seat-reservation-web/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "seat-reservation-web"

var (
	version = vcs.Version()
)

type Application struct {
	config         Config
	logger         *slog.Logger
	validator      *validator.Validate
	formDecoder    *form.Decoder
	sessionManager *scs.SessionManager
	sessions       domain.SessionStore
	bookingService domain.BookingService
	guard          domain.ActionGuard
	templates      map[string]*template.Template
	metrics        *metrics
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	validator *validator.Validate,
	sessionManager *scs.SessionManager,
	bookingService domain.BookingService,
	guard domain.ActionGuard,
) (*Application, error) {

	templates, err := newTemplateCache()
	if err != nil {
		return nil, err
	}

	appMetrics, err := newMetrics()
	if err != nil {
		return nil, err
	}

	return &Application{
		config:         cfg,
		logger:         logger,
		validator:      validator,
		formDecoder:    form.NewDecoder(),
		sessionManager: sessionManager,
		sessions:       NewSessionStore(sessionManager),
		bookingService: bookingService,
		guard:          guard,
		templates:      templates,
		metrics:        appMetrics,
	}, nil
}

func Run() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, displayVersion, err := ParseConfig(os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	if displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	shutdownTelemetry, err := initTelemetry(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		return err
	}
	defer shutdownTelemetry(context.Background())

	if cfg.OtelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(logger.Handler(), otelslog.NewHandler(serviceName)))
	}

	var (
		store scs.Store = memstore.New()
		guard domain.ActionGuard
	)

	if cfg.Redis.URL != "" {
		redisClient, err := NewRedisClient(cfg)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			return err
		}
		defer redisClient.Close()

		guard = inflight.NewRedis(redisClient, cfg.InFlightTTL, logger)
		if cfg.Session.Store == SessionStoreRedis {
			store = goredisstore.New(redisClient)
		}
	} else {
		guard = inflight.NewMemory()
	}

	if cfg.Session.Store == SessionStorePostgres {
		db, err := NewDatabasePool(cfg)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			return err
		}
		defer db.Close()

		err = MigrateSessions(db)
		if err != nil {
			logger.Error("failed to migrate session table", "error", err)
			return err
		}

		store = pgxstore.New(db)
	}

	bookingService, err := backend.NewClient(cfg.Backend.URL, &http.Client{
		Timeout:   cfg.Backend.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return err
	}

	app, err := NewApp(cfg, logger, appvalidator.NewValidator(), NewSessionManager(cfg, store), bookingService, guard)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		return err
	}

	return app.run()
}

func NewSessionManager(cfg Config, store scs.Store) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = store
	sessionManager.IdleTimeout = cfg.Session.IdleTimeout
	sessionManager.Lifetime = cfg.Session.Lifetime
	sessionManager.Cookie.Name = "session_id"
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Session.CookieSecure

	return sessionManager
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb))
	if err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func NewDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// MigrateSessions creates the table backing the postgres session store.
func MigrateSessions(db *pgxpool.Pool) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}

	sqlDB := pgxstd.OpenDBFromPool(db)
	defer sqlDB.Close()

	driver, err := pgxmigrate.WithInstance(sqlDB, &pgxmigrate.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: app.config.Backend.Timeout + 10*time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		shutdownError <- srv.Shutdown(ctx)
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "backend", app.config.Backend.URL)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(app.sessionManager.LoadAndSave)
	r.Use(app.recoverPanic)

	r.Get("/healthz", app.GetHealth)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	r.Group(func(r chi.Router) {
		r.Use(app.redirectIfAuthenticated)

		r.Get("/login", app.LoginPage)
		r.Post("/login", app.Login)
		r.Get("/signup", app.SignupPage)
		r.Post("/signup", app.Signup)
	})

	r.Group(func(r chi.Router) {
		r.Use(app.requireSession)

		r.Get("/seats", app.ShowSeats)
		r.Post("/seats/book", app.BookSeats)
		r.Post("/seats/reset", app.ResetBooking)
		r.Post("/logout", app.Logout)
	})

	return r
}
