package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Weather  WeatherConfig  `koanf:"weather"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string     `koanf:"host"`
	Port            int        `koanf:"port"`
	Mode            string     `koanf:"mode"`
	Timeout         string     `koanf:"timeout"`
	ShutdownTimeout string     `koanf:"shutdown_timeout"`
	TrustRequestID  bool       `koanf:"trust_request_id"`
	CORS            CORSConfig `koanf:"cors"`
}

// CORSConfig holds CORS middleware settings. MaxAge is in seconds.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	ExposeHeaders    []string `koanf:"expose_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
	Migrate  MigrateConfig  `koanf:"migrate"`

	// SlowQuery is the duration above which a statement is logged at warn.
	SlowQuery string `koanf:"slow_query"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// MigrateConfig controls schema migrations.
type MigrateConfig struct {
	// OnStart applies pending migrations when the server boots.
	OnStart bool `koanf:"on_start"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// AuthConfig holds credential settings.
type AuthConfig struct {
	BcryptCost int `koanf:"bcrypt_cost"`
}

// WeatherConfig holds change detection, paging and validation settings.
type WeatherConfig struct {
	Tolerance       float64          `koanf:"tolerance"`
	DefaultPageSize int              `koanf:"default_page_size"`
	MaxPageSize     int              `koanf:"max_page_size"`
	Validation      ValidationConfig `koanf:"validation"`
}

// ValidationConfig bounds the values accepted for saved and updated weather
// records.
type ValidationConfig struct {
	CityMaxLength      int     `koanf:"city_max_length"`
	ConditionMaxLength int     `koanf:"condition_max_length"`
	TempMin            float64 `koanf:"temp_min"`
	TempMax            float64 `koanf:"temp_max"`
	HumidityMin        int     `koanf:"humidity_min"`
	HumidityMax        int     `koanf:"humidity_max"`
	WindSpeedMax       float64 `koanf:"wind_speed_max"`
	WindDegMax         int     `koanf:"wind_deg_max"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__SERVER__PORT=9090 overrides server.port and
// APP__WEATHER__MAX_PAGE_SIZE=50 overrides weather.max_page_size.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate fills defaults, normalizes values and checks supported ranges.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateLog(); err != nil {
		return err
	}
	if err := c.validateWeather(); err != nil {
		return err
	}

	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = bcrypt.DefaultCost
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("invalid auth.bcrypt_cost %d: must be between %d and %d", c.Auth.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	c.Metrics.Path = strings.TrimSpace(c.Metrics.Path)
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics.path %q: must start with '/'", c.Metrics.Path)
	}

	return nil
}

func (c *Config) validateServer() error {
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	// Whitespace-only durations mean unset.
	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	c.Server.ShutdownTimeout = strings.TrimSpace(c.Server.ShutdownTimeout)
	if err := checkDuration("server.timeout", c.Server.Timeout); err != nil {
		return err
	}
	if err := checkDuration("server.shutdown_timeout", c.Server.ShutdownTimeout); err != nil {
		return err
	}

	if c.Server.CORS.MaxAge < 0 {
		return fmt.Errorf("invalid server.cors.max_age %d: must not be negative", c.Server.CORS.MaxAge)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "sqlite":
		sqlitePath := strings.TrimSpace(c.Database.SQLite.Path)
		if sqlitePath == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		c.Database.SQLite.Path = sqlitePath
	case "postgres":
		if err := c.validatePostgres(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", c.Database.Driver, "sqlite", "postgres")
	}

	c.Database.Pool.ConnMaxLifetime = strings.TrimSpace(c.Database.Pool.ConnMaxLifetime)
	if err := checkDuration("database.pool.conn_max_lifetime", c.Database.Pool.ConnMaxLifetime); err != nil {
		return err
	}
	c.Database.SlowQuery = strings.TrimSpace(c.Database.SlowQuery)
	return checkDuration("database.slow_query", c.Database.SlowQuery)
}

func (c *Config) validatePostgres() error {
	pg := &c.Database.Postgres
	host := strings.TrimSpace(pg.Host)
	if host == "" {
		return fmt.Errorf("database.postgres.host is required when driver is postgres")
	}
	if pg.Port < 1 || pg.Port > 65535 {
		return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", pg.Port)
	}
	user := strings.TrimSpace(pg.User)
	if user == "" {
		return fmt.Errorf("database.postgres.user is required when driver is postgres")
	}
	dbName := strings.TrimSpace(pg.DBName)
	if dbName == "" {
		return fmt.Errorf("database.postgres.dbname is required when driver is postgres")
	}

	sslMode := strings.TrimSpace(pg.SSLMode)
	switch sslMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return fmt.Errorf("invalid database.postgres.sslmode %q: must be one of %q, %q, %q, %q, %q, %q", pg.SSLMode, "disable", "allow", "prefer", "require", "verify-ca", "verify-full")
	}
	if c.Server.Mode == gin.ReleaseMode {
		switch sslMode {
		case "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be one of %q, %q, %q", pg.SSLMode, gin.ReleaseMode, "require", "verify-ca", "verify-full")
		}
	}

	pg.Host = host
	pg.User = user
	pg.DBName = dbName
	pg.SSLMode = sslMode
	return nil
}

func (c *Config) validateLog() error {
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}
	return nil
}

// validateWeather fills zero values with the stock defaults before checking.
func (c *Config) validateWeather() error {
	w := &c.Weather
	if w.Tolerance == 0 {
		w.Tolerance = 0.0001
	}
	if w.Tolerance < 0 {
		return fmt.Errorf("invalid weather.tolerance %v: must not be negative", w.Tolerance)
	}
	if w.DefaultPageSize == 0 {
		w.DefaultPageSize = 20
	}
	if w.MaxPageSize == 0 {
		w.MaxPageSize = 100
	}
	if w.DefaultPageSize < 1 {
		return fmt.Errorf("invalid weather.default_page_size %d: must be positive", w.DefaultPageSize)
	}
	if w.MaxPageSize < w.DefaultPageSize {
		return fmt.Errorf("invalid weather.max_page_size %d: must be at least default_page_size %d", w.MaxPageSize, w.DefaultPageSize)
	}

	v := &w.Validation
	if *v == (ValidationConfig{}) {
		*v = DefaultValidation()
	}
	if v.CityMaxLength < 1 {
		return fmt.Errorf("invalid weather.validation.city_max_length %d: must be positive", v.CityMaxLength)
	}
	if v.ConditionMaxLength == 0 {
		v.ConditionMaxLength = DefaultValidation().ConditionMaxLength
	}
	if v.ConditionMaxLength < 0 {
		return fmt.Errorf("invalid weather.validation.condition_max_length %d: must be positive", v.ConditionMaxLength)
	}
	if v.TempMin >= v.TempMax {
		return fmt.Errorf("invalid weather.validation temperature range [%v, %v]", v.TempMin, v.TempMax)
	}
	if v.HumidityMin < 0 || v.HumidityMin >= v.HumidityMax {
		return fmt.Errorf("invalid weather.validation humidity range [%d, %d]", v.HumidityMin, v.HumidityMax)
	}
	if v.WindSpeedMax <= 0 || v.WindDegMax <= 0 {
		return fmt.Errorf("invalid weather.validation wind bounds: speed %v, degree %d", v.WindSpeedMax, v.WindDegMax)
	}
	return nil
}

// DefaultValidation returns the stock validation bounds.
func DefaultValidation() ValidationConfig {
	return ValidationConfig{
		CityMaxLength:      100,
		ConditionMaxLength: 100,
		TempMin:            -100,
		TempMax:            100,
		HumidityMin:        0,
		HumidityMax:        100,
		WindSpeedMax:       200,
		WindDegMax:         360,
	}
}

// Duration parses an optional duration value, returning fallback when unset.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// checkDuration validates an optional, positive Go duration.
func checkDuration(name, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", name, value)
	}
	return nil
}
