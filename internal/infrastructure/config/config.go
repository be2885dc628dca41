package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Notifier kinds
const (
	NotifierLog   = "log"
	NotifierInbox = "inbox"
)

// Config holds all configuration for the application
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Logger        LoggerConfig        `mapstructure:"logger"`
	Security      SecurityConfig      `mapstructure:"security"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	Timezone    string `mapstructure:"timezone"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// StorageConfig selects the key/value backend for the planner blobs
type StorageConfig struct {
	Driver    string `mapstructure:"driver"`
	FilePath  string `mapstructure:"file_path"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	JWTSecret          string        `mapstructure:"jwt_secret"`
	JWTIssuer          string        `mapstructure:"jwt_issuer"`
	JWTExpiresIn       time.Duration `mapstructure:"jwt_expires_in"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// NotificationsConfig controls the due-soon reminder sweep
type NotificationsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Window   time.Duration `mapstructure:"window"`
	Notifier string        `mapstructure:"notifier"`
	// Granted pre-approves the notifier so reminders fire without an
	// explicit permission request.
	Granted   bool `mapstructure:"granted"`
	InboxSize int  `mapstructure:"inbox_size"`
}

// Load loads configuration from various sources
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Planner")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.timezone", "Local")

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")

	// Storage defaults
	v.SetDefault("storage.driver", StorageFile)
	v.SetDefault("storage.file_path", "planner.json")
	v.SetDefault("storage.key_prefix", "planner:")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "planner")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.conn_max_idle_time", "30s")
	v.SetDefault("database.migrations_path", "file://migrations")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_window", "1m")
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_issuer", "planner")
	v.SetDefault("security.jwt_expires_in", "720h")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)

	// Notification defaults
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.interval", "60s")
	v.SetDefault("notifications.window", "30m")
	v.SetDefault("notifications.notifier", NotifierInbox)
	v.SetDefault("notifications.granted", false)
	v.SetDefault("notifications.inbox_size", 100)
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.version", "APP_VERSION")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("app.debug", "APP_DEBUG")
	v.BindEnv("app.timezone", "APP_TIMEZONE")

	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")
	v.BindEnv("server.idle_timeout", "SERVER_IDLE_TIMEOUT")

	// Storage
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.file_path", "STORAGE_FILE_PATH")
	v.BindEnv("storage.key_prefix", "STORAGE_KEY_PREFIX")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.name", "DB_NAME")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.ssl_mode", "DB_SSL_MODE")
	v.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	v.BindEnv("database.max_idle_conns", "DB_MAX_IDLE_CONNS")
	v.BindEnv("database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME")
	v.BindEnv("database.conn_max_idle_time", "DB_CONN_MAX_IDLE_TIME")
	v.BindEnv("database.migrations_path", "DB_MIGRATIONS_PATH")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")
	v.BindEnv("logger.output", "LOG_OUTPUT")
	v.BindEnv("logger.filename", "LOG_FILENAME")

	// Security
	v.BindEnv("security.cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	v.BindEnv("security.rate_limit_requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("security.rate_limit_window", "RATE_LIMIT_WINDOW")
	v.BindEnv("security.jwt_secret", "JWT_SECRET")
	v.BindEnv("security.jwt_issuer", "JWT_ISSUER")
	v.BindEnv("security.jwt_expires_in", "JWT_EXPIRES_IN")

	// Metrics
	v.BindEnv("metrics.enabled", "ENABLE_METRICS")

	// Notifications
	v.BindEnv("notifications.enabled", "NOTIFICATIONS_ENABLED")
	v.BindEnv("notifications.interval", "NOTIFICATIONS_INTERVAL")
	v.BindEnv("notifications.window", "NOTIFICATIONS_WINDOW")
	v.BindEnv("notifications.notifier", "NOTIFICATIONS_NOTIFIER")
	v.BindEnv("notifications.granted", "NOTIFICATIONS_GRANTED")
	v.BindEnv("notifications.inbox_size", "NOTIFICATIONS_INBOX_SIZE")
}

func validateConfig(cfg *Config) error {
	switch cfg.Storage.Driver {
	case StorageMemory, StorageRedis, StoragePostgres:
	case StorageFile:
		if cfg.Storage.FilePath == "" {
			return fmt.Errorf("storage file path is required for the file driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Storage.Driver == StoragePostgres && cfg.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if cfg.Security.RateLimitRequests > 0 && cfg.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}

	if cfg.Notifications.Interval <= 0 {
		return fmt.Errorf("notification interval must be positive")
	}

	if cfg.Notifications.Window <= 0 || cfg.Notifications.Window > 24*time.Hour {
		return fmt.Errorf("notification window must be within (0, 24h]")
	}

	switch cfg.Notifications.Notifier {
	case NotifierLog, NotifierInbox:
	default:
		return fmt.Errorf("unknown notifier %q", cfg.Notifications.Notifier)
	}

	if _, err := cfg.App.Location(); err != nil {
		return err
	}

	if cfg.Security.JWTSecret != "" && len(cfg.Security.JWTSecret) < 16 {
		return fmt.Errorf("JWT secret must be at least 16 characters")
	}

	return nil
}

// GetDSN returns the database connection string
func (cfg *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// GetAddr returns the Redis address
func (cfg *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// Location resolves the configured time zone tasks are due in.
func (cfg *AppConfig) Location() (*time.Location, error) {
	if cfg.Timezone == "" || cfg.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return loc, nil
}

// AuthEnabled reports whether API requests must carry a bearer token.
func (cfg *SecurityConfig) AuthEnabled() bool {
	return cfg.JWTSecret != ""
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}

// IsProduction returns true if the environment is production
func (cfg *AppConfig) IsProduction() bool {
	return cfg.Environment == "production"
}
