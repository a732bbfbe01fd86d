package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/weatherlog/internal/change"
	"github.com/simp-lee/weatherlog/internal/condition"
	"github.com/simp-lee/weatherlog/internal/config"
	"github.com/simp-lee/weatherlog/internal/db"
	"github.com/simp-lee/weatherlog/internal/domain"
	"github.com/simp-lee/weatherlog/internal/metrics"
	"github.com/simp-lee/weatherlog/internal/middleware"
	"github.com/simp-lee/weatherlog/internal/module/auth"
	"github.com/simp-lee/weatherlog/internal/module/user"
	"github.com/simp-lee/weatherlog/internal/module/weather"
	"github.com/simp-lee/weatherlog/internal/pkg"
)

const (
	defaultRequestTimeout  = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine  *gin.Engine
	db      *gorm.DB
	logger  *logger.Logger
	cfg     *config.Config
	metrics *metrics.Metrics
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler, timeout time.Duration) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      2 * timeout,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging and the database, applies migrations when configured,
// then builds repositories, services, handlers, middleware and routes.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}

	success := false

	// 1. Logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 exposes X-User-ID identity to the network")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	// 2. Database.
	gdb, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		closeDB(gdb)
	}()

	// 3. Migrations.
	if cfg.Database.Migrate.OnStart {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := db.Migrate(ctx, gdb, cfg.Database.Driver, log.Logger)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	// 4. Metrics. The registry is private to this App so tests can build many.
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
	}

	// 5. Manual dependency injection: repository → service → handler → module.
	modules := buildModules(cfg, gdb, m)

	// 6. Gin engine with explicit middleware (not gin.Default()).
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	quiet := []string{"/health"}
	if m != nil {
		quiet = append(quiet, metricsPathOf(cfg.Metrics.Path))
	}
	handlers := []gin.HandlerFunc{
		middleware.Recovery(log.Logger),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{TrustUpstream: cfg.Server.TrustRequestID}),
		middleware.LoggerWithConfig(log.Logger, middleware.LoggerConfig{SkipPaths: quiet}),
		middleware.CORSWithConfig(resolveCORSConfig(cfg.Server.Mode, cfg.Server.CORS)),
		middleware.Identity(),
	}
	if m != nil {
		handlers = append(handlers, m.Middleware())
	}
	engine.Use(handlers...)

	// 7. Routes.
	deps := &RouteDeps{
		Modules: modules,
		DB:      gdb,
	}
	if m != nil {
		deps.Metrics = m.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	if err := RegisterRoutes(engine, deps); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	success = true
	return &App{
		engine:  engine,
		db:      gdb,
		logger:  log,
		cfg:     cfg,
		metrics: m,
	}, nil
}

func buildModules(cfg *config.Config, gdb *gorm.DB, m *metrics.Metrics) []Module {
	pageLimits := pageLimitsOf(cfg)

	var recorder weather.Recorder
	if m != nil {
		recorder = m
	}
	weatherSvc := NewWeatherService(cfg, gdb, recorder)

	userRepo := user.NewUserRepository(gdb)
	userSvc := user.NewUserService(userRepo, pageLimits)
	authSvc := auth.NewService(userRepo, cfg.Auth.BcryptCost)

	return []Module{
		weather.NewModule(weather.NewWeatherHandler(weatherSvc, pageLimits)),
		condition.NewModule(condition.NewHandler(condition.NewNormalizer())),
		user.NewModule(user.NewUserHandler(userSvc, pageLimits)),
		auth.NewModule(auth.NewHandler(authSvc)),
	}
}

// NewWeatherService wires the weather service from cfg. The server and the
// weatherctl command share it. recorder may be nil.
func NewWeatherService(cfg *config.Config, gdb *gorm.DB, recorder weather.Recorder) domain.WeatherService {
	detector := change.NewDetector(change.NewComparator(cfg.Weather.Tolerance))
	return weather.NewWeatherService(
		weather.NewWeatherRepository(gdb),
		detector,
		condition.NewNormalizer(),
		weather.Options{
			Limits:     weatherLimits(cfg.Weather.Validation),
			PageLimits: pageLimitsOf(cfg),
			Recorder:   recorder,
		},
	)
}

func pageLimitsOf(cfg *config.Config) pkg.PageLimits {
	return pkg.PageLimits{
		DefaultSize: cfg.Weather.DefaultPageSize,
		MaxSize:     cfg.Weather.MaxPageSize,
	}
}

func weatherLimits(v config.ValidationConfig) weather.Limits {
	return weather.Limits{
		CityMaxLength:      v.CityMaxLength,
		ConditionMaxLength: v.ConditionMaxLength,
		TempMin:            v.TempMin,
		TempMax:            v.TempMax,
		HumidityMin:        v.HumidityMin,
		HumidityMax:        v.HumidityMax,
		WindSpeedMax:       v.WindSpeedMax,
		WindDegMax:         v.WindDegMax,
	}
}

// resolveCORSConfig maps configured CORS settings onto the middleware config.
// Unset lists keep the middleware defaults. In release mode an empty allowlist
// denies cross-origin requests instead of allowing every origin.
func resolveCORSConfig(mode string, c config.CORSConfig) middleware.CORSConfig {
	corsConfig := middleware.DefaultCORSConfig()

	switch {
	case len(c.AllowOrigins) > 0:
		corsConfig.AllowOrigins = c.AllowOrigins
	case mode == gin.ReleaseMode:
		corsConfig.AllowOrigins = []string{}
	}
	if len(c.AllowMethods) > 0 {
		corsConfig.AllowMethods = c.AllowMethods
	}
	if len(c.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = c.AllowHeaders
	}
	if len(c.ExposeHeaders) > 0 {
		corsConfig.ExposeHeaders = c.ExposeHeaders
	}
	if c.MaxAge > 0 {
		corsConfig.MaxAge = c.MaxAge
	}
	corsConfig.AllowCredentials = c.AllowCredentials

	return corsConfig
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

func closeDB(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Handler returns the configured HTTP handler.
func (a *App) Handler() http.Handler {
	return a.engine
}

// Close releases the database and logger without running the server.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	err := closeDB(a.db)
	if a.logger != nil {
		err = errors.Join(err, a.logger.Close())
	}
	return err
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It shuts the server down gracefully within server.shutdown_timeout and then
// closes the database connection.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine, config.Duration(a.cfg.Server.Timeout, defaultRequestTimeout))

	// Listen for SIGINT / SIGTERM.
	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		timeout := config.Duration(a.cfg.Server.ShutdownTimeout, defaultShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	if err := closeDB(a.db); err != nil {
		log.Error("database close error", slog.Any("error", err))
	} else if a.db != nil {
		log.Info("database connection closed")
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	return runErr
}
