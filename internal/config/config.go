package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ledger   LedgerConfig
	Security SecurityConfig
	Admin    AdminConfig
	Events   EventsConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port             string
	Host             string
	Environment      string
	Debug            bool
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	CORSAllowOrigins []string
}

type DatabaseConfig struct {
	Driver          string
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	SQLitePath      string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	SeedDatabase    bool
}

// LedgerConfig holds the knobs of the expense ledger contract that are
// deployment-specific rather than behavioural.
type LedgerConfig struct {
	Currency string
	PageSize int
}

type SecurityConfig struct {
	RateLimitPerSecond int
	RateLimitBurst     int
}

type AdminConfig struct {
	Enabled bool
}

type EventsConfig struct {
	AMQPURL      string
	ExchangeName string
	RoutingKey   string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8000"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Environment:     getEnv("APP_ENV", "development"),
			Debug:           getBoolEnv("DEBUG", false),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "expense_user"),
			Password:        getEnv("DB_PASSWORD", "expense_password"),
			Name:            getEnv("DB_NAME", "expense_tracker"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:      getEnv("SQLITE_PATH", "db.sqlite3"),
			MaxConnections:  getIntEnv("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			AutoMigrate:     getBoolEnv("AUTO_MIGRATE", false),
			SeedDatabase:    getBoolEnv("SEED_DATABASE", false),
		},
		Ledger: LedgerConfig{
			Currency: getEnv("LEDGER_CURRENCY", "₹"),
			PageSize: 100,
		},
		Security: SecurityConfig{
			RateLimitPerSecond: getIntEnv("RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 40),
		},
		Events: EventsConfig{
			AMQPURL:      getEnv("AMQP_URL", ""),
			ExchangeName: getEnv("AMQP_EXCHANGE", "expenses"),
			RoutingKey:   getEnv("AMQP_ROUTING_KEY", "expense.created"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
	}

	config.Database.Driver = config.resolveDriver()
	config.Admin.Enabled = getBoolEnv("ADMIN_API_ENABLED", config.IsDevelopment())
	config.Server.CORSAllowOrigins = config.loadCORSAllowOrigins()

	return config
}

// DSN returns the connection string for the configured driver. DATABASE_URL
// wins over the discrete DB_* settings.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == DriverSQLite {
		if c.URL != "" {
			return strings.TrimPrefix(c.URL, "sqlite://")
		}
		return c.SQLitePath
	}
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// MigrationURL returns a URL-style connection string suitable for lib/pq and
// golang-migrate.
func (c *DatabaseConfig) MigrationURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsTesting() bool {
	return c.Server.Environment == "testing"
}

// Address returns the host:port pair the HTTP server listens on
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// SlogLevel maps LOG_LEVEL onto a slog level; unknown values fall back to info.
// DEBUG=true forces debug level.
func (c *Config) SlogLevel() slog.Level {
	if c.Server.Debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// UseJSONLogs reports whether logs should be emitted as JSON. Production
// defaults to JSON, everything else to text, unless LOG_FORMAT says otherwise.
func (c *Config) UseJSONLogs() bool {
	switch strings.ToLower(c.Log.Format) {
	case "json":
		return true
	case "text":
		return false
	default:
		return c.IsProduction()
	}
}

func (c *Config) resolveDriver() string {
	if driver := strings.ToLower(os.Getenv("DB_DRIVER")); driver != "" {
		if driver == "sqlite3" {
			return DriverSQLite
		}
		return driver
	}
	if strings.HasPrefix(c.Database.URL, "postgres") {
		return DriverPostgres
	}
	if strings.HasPrefix(c.Database.URL, "sqlite") {
		return DriverSQLite
	}
	if c.IsDevelopment() && c.Database.URL == "" && os.Getenv("DB_HOST") == "" {
		return DriverSQLite
	}
	return DriverPostgres
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// loadCORSAllowOrigins retrieves CORS allowed origins from environment or returns default
func (c *Config) loadCORSAllowOrigins() []string {
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = os.Getenv("CORS_ALLOW_ORIGINS")
	}

	if corsOrigins == "" {
		if getBoolEnv("CORS_ALLOW_ALL_ORIGINS", false) {
			return []string{"*"}
		}
		if c.IsProduction() {
			log.Println("WARNING: CORS_ALLOWED_ORIGINS not set in production environment, only localhost dashboards will be allowed")
		}
		return []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:8501"}
	}

	origins := strings.Split(corsOrigins, ",")
	cleaned := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin = strings.TrimSpace(origin); origin != "" {
			cleaned = append(cleaned, origin)
		}
	}

	log.Printf("CORS allowed origins configured: %v", cleaned)
	return cleaned
}
