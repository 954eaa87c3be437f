package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the portal configuration.
type Config struct {
	App     AppConfig
	Backend BackendConfig
	Session SessionConfig
	Redis   RedisConfig
	Metrics MetricsConfig
	Limits  LoginLimitConfig
	CORS    CORSConfig
}

// DevBackendConfig configures cmd/devbackend.
type DevBackendConfig struct {
	App      AppConfig
	Port     string `envconfig:"PORTAL_DEVBACKEND_PORT" default:"8090"`
	DB       DBConfig
	JWT      JWTConfig
	Password PasswordConfig
	Seed     SeedConfig
	Faults   FaultConfig
}

// MigrateConfig configures cmd/migrate.
type MigrateConfig struct {
	App AppConfig
	DB  DBConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Session.validate(cfg.Redis); err != nil {
		return nil, err
	}
	if floor := MinLockTTL(cfg.Backend.Timeout); cfg.Session.LockTTL < floor {
		return nil, fmt.Errorf("%s must be at least %s (two backend calls plus margin), got %s", EnvSessionLockTTL, floor, cfg.Session.LockTTL)
	}
	return &cfg, nil
}

func LoadDevBackend() (*DevBackendConfig, error) {
	var cfg DevBackendConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadMigrate() (*MigrateConfig, error) {
	var cfg MigrateConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PORTAL_APP_ENV" required:"true"`
	Port         string `envconfig:"PORTAL_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PORTAL_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"PORTAL_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"PORTAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type BackendConfig struct {
	BaseURL string        `envconfig:"PORTAL_BACKEND_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"PORTAL_BACKEND_TIMEOUT" default:"10s"`
	Tracing bool          `envconfig:"PORTAL_BACKEND_TRACING" default:"false"`
}

func (b BackendConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(b.BaseURL))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvBackendBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvBackendBaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", EnvBackendBaseURL)
	}
	return nil
}

type SessionConfig struct {
	Driver       string        `envconfig:"PORTAL_SESSION_DRIVER" default:"memory"`
	CookieName   string        `envconfig:"PORTAL_SESSION_COOKIE" default:"portal_sid"`
	TTL          time.Duration `envconfig:"PORTAL_SESSION_TTL" default:"24h"`
	FlashTTL     time.Duration `envconfig:"PORTAL_SESSION_FLASH_TTL" default:"30s"`
	LockTTL      time.Duration `envconfig:"PORTAL_SESSION_LOCK_TTL" default:"30s"`
	LoginPath    string        `envconfig:"PORTAL_SESSION_LOGIN_PATH" default:"/login"`
	SecureCookie bool          `envconfig:"PORTAL_SESSION_SECURE_COOKIE" default:"false"`
}

func (s SessionConfig) validate(redisCfg RedisConfig) error {
	switch strings.ToLower(s.Driver) {
	case SessionDriverMemory:
		return nil
	case SessionDriverRedis:
		if redisCfg.URL == "" && redisCfg.Address == "" {
			return fmt.Errorf("%s or %s is required when %s=redis", EnvRedisURL, EnvRedisAddr, EnvSessionDriver)
		}
		return nil
	}
	return fmt.Errorf("unsupported %s %q", EnvSessionDriver, s.Driver)
}

const lockTTLMargin = 5 * time.Second

// MinLockTTL is the shortest cart flag lifetime that outlasts a mutation
// making two backend calls of the given timeout.
func MinLockTTL(backendTimeout time.Duration) time.Duration {
	return 2*backendTimeout + lockTTLMargin
}

// UsesRedis reports whether sessions are stored in Redis.
func (s SessionConfig) UsesRedis() bool {
	return strings.EqualFold(s.Driver, SessionDriverRedis)
}

type RedisConfig struct {
	URL          string        `envconfig:"PORTAL_REDIS_URL"`
	Address      string        `envconfig:"PORTAL_REDIS_ADDR"`
	Password     string        `envconfig:"PORTAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"PORTAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PORTAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PORTAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PORTAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PORTAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PORTAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"PORTAL_METRICS_ENABLED" default:"true"`
}

// LoginLimitConfig throttles POST /login per client IP and per email.
type LoginLimitConfig struct {
	Window     time.Duration `envconfig:"PORTAL_LOGIN_LIMIT_WINDOW" default:"1m"`
	IPLimit    int           `envconfig:"PORTAL_LOGIN_LIMIT_IP" default:"30"`
	EmailLimit int           `envconfig:"PORTAL_LOGIN_LIMIT_EMAIL" default:"5"`
}

// CORSConfig lists the origins allowed to read the JSON view models.
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PORTAL_CORS_ORIGINS" default:"http://localhost:3000"`
}

type DBConfig struct {
	Driver      string `envconfig:"PORTAL_DB_DRIVER" default:"sqlite"`
	DSN         string `envconfig:"PORTAL_DB_DSN" default:"file:devbackend.db?cache=shared"`
	AutoMigrate bool   `envconfig:"PORTAL_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"PORTAL_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"PORTAL_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"PORTAL_DB_CONN_MAX_LIFETIME" default:"1h"`
}

func (db DBConfig) validate() error {
	switch strings.ToLower(db.Driver) {
	case DBDriverSQLite, DBDriverPostgres:
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

// IsSQLite reports whether the dev backend runs on SQLite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type JWTConfig struct {
	Secret            string `envconfig:"PORTAL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PORTAL_JWT_ISSUER" default:"residence-devbackend"`
	ExpirationMinutes int    `envconfig:"PORTAL_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PORTAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PORTAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PORTAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PORTAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PORTAL_ARGON_KEY_LEN" default:"32"`
}

type SeedConfig struct {
	TenantEmail    string `envconfig:"PORTAL_SEED_TENANT_EMAIL" default:"tenant@residence.local"`
	TenantPassword string `envconfig:"PORTAL_SEED_TENANT_PASSWORD" default:"rooftop"`
	TenantName     string `envconfig:"PORTAL_SEED_TENANT_NAME" default:"Demo Tenant"`
	RoomNumber     string `envconfig:"PORTAL_SEED_TENANT_ROOM" default:"A-101"`
	History        bool   `envconfig:"PORTAL_SEED_HISTORY" default:"true"`
}

type FaultConfig struct {
	FailCheckout bool `envconfig:"PORTAL_FAULT_FAIL_CHECKOUT" default:"false"`
	// comma separated consumption sources (history, flat, legacy) that answer 500
	DisabledConsumption []string `envconfig:"PORTAL_FAULT_DISABLED_CONSUMPTION"`
}
