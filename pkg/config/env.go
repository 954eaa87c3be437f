package config

const (
	EnvPrefix = "PORTAL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "PORTAL_APP_ENV"
	EnvPort         = "PORTAL_APP_PORT"
	EnvLogLevel     = "PORTAL_LOG_LEVEL"
	EnvLogFormat    = "PORTAL_LOG_FORMAT"
	EnvLogWarnStack = "PORTAL_LOG_WARN_STACK"

	EnvBackendBaseURL = "PORTAL_BACKEND_BASE_URL"
	EnvBackendTimeout = "PORTAL_BACKEND_TIMEOUT"
	EnvBackendTracing = "PORTAL_BACKEND_TRACING"

	EnvSessionDriver     = "PORTAL_SESSION_DRIVER"
	EnvSessionCookie     = "PORTAL_SESSION_COOKIE"
	EnvSessionTTL        = "PORTAL_SESSION_TTL"
	EnvSessionFlashTTL   = "PORTAL_SESSION_FLASH_TTL"
	EnvSessionLockTTL    = "PORTAL_SESSION_LOCK_TTL"
	EnvSessionLoginPath  = "PORTAL_SESSION_LOGIN_PATH"
	EnvSessionSecureOnly = "PORTAL_SESSION_SECURE_COOKIE"

	EnvRedisURL  = "PORTAL_REDIS_URL"
	EnvRedisAddr = "PORTAL_REDIS_ADDR"

	EnvMetricsEnabled = "PORTAL_METRICS_ENABLED"
	EnvLoginLimitIP   = "PORTAL_LOGIN_LIMIT_IP"
	EnvCORSOrigins    = "PORTAL_CORS_ORIGINS"

	EnvDevBackendPort = "PORTAL_DEVBACKEND_PORT"
	EnvDBDriver       = "PORTAL_DB_DRIVER"
	EnvDBDSN          = "PORTAL_DB_DSN"
	EnvAutoMigrate    = "PORTAL_AUTO_MIGRATE"
	EnvJWTSecret      = "PORTAL_JWT_SECRET"
	EnvJWTIssuer      = "PORTAL_JWT_ISSUER"
	EnvJWTExpMins     = "PORTAL_JWT_EXPIRATION_MINUTES"
	EnvSeedEmail      = "PORTAL_SEED_TENANT_EMAIL"
	EnvSeedPassword   = "PORTAL_SEED_TENANT_PASSWORD"
	EnvFailCheckout   = "PORTAL_FAULT_FAIL_CHECKOUT"
	EnvDisabledSource = "PORTAL_FAULT_DISABLED_CONSUMPTION"

	SessionDriverMemory = "memory"
	SessionDriverRedis  = "redis"

	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)
