package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWTSecret string        `env:"JWT_SECRET, default=moviehub-dev-secret"`
	JWTTTL    time.Duration `env:"JWT_TTL,    default=24h"`

	// SessionBackend is where durable session entries live: redis or memory.
	SessionBackend string `env:"SESSION_BACKEND, default=memory"`
	// UserDirectory backs the local authentication service: memory or mongo.
	UserDirectory string `env:"USER_DIRECTORY, default=memory"`
	SeedDemoUsers bool   `env:"SEED_DEMO_USERS, default=true"`

	Session SessionConfig
	AuthAPI AuthAPIConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	RestoreTimeout time.Duration `env:"SESSION_RESTORE_TIMEOUT, default=5s"`
	IdleTTL        time.Duration `env:"SESSION_IDLE_TTL,        default=30m"`
	SweepInterval  time.Duration `env:"SESSION_SWEEP_INTERVAL,  default=1m"`
	StorageTTL     time.Duration `env:"SESSION_STORAGE_TTL,     default=168h"`
	CookieName     string        `env:"SESSION_COOKIE_NAME,     default=mh_client"`
	CookieSecure   bool          `env:"SESSION_COOKIE_SECURE,   default=false"`
	// GuardWait is how long a gated request waits for an initializing
	// session before answering with a loading response.
	GuardWait time.Duration `env:"SESSION_GUARD_WAIT, default=250ms"`
}

type AuthAPIConfig struct {
	// Enabled routes login and signup to the backend. When false the local
	// directory answers everything.
	Enabled bool          `env:"AUTH_API_ENABLED, default=true"`
	URL     string        `env:"AUTH_API_URL,     default=http://localhost:8080"`
	Timeout time.Duration `env:"AUTH_API_TIMEOUT, default=10s"`
	// Fallback enables the local directory when the backend is unreachable.
	Fallback bool `env:"AUTH_API_FALLBACK, default=true"`
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=moviehub"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=20"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.SessionBackend)
	}
	switch c.UserDirectory {
	case BackendMemory, BackendMongo:
	default:
		return fmt.Errorf("USER_DIRECTORY must be %q or %q, got %q", BackendMemory, BackendMongo, c.UserDirectory)
	}
	if c.Session.RestoreTimeout <= 0 {
		return fmt.Errorf("SESSION_RESTORE_TIMEOUT must be positive")
	}
	if c.AuthAPI.Enabled && c.AuthAPI.URL == "" {
		return fmt.Errorf("AUTH_API_URL must be set when AUTH_API_ENABLED is true")
	}
	if c.IsProduction() && c.JWTSecret == "moviehub-dev-secret" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}
