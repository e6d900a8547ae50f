package config

const EnvPrefix = "MARKETPLACE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "MARKETPLACE_APP_ENV"
	EnvPort     = "MARKETPLACE_APP_PORT"
	EnvLogLevel = "MARKETPLACE_LOG_LEVEL"
	EnvCORS     = "MARKETPLACE_CORS_ORIGINS"

	EnvDBDSN      = "MARKETPLACE_DB_DSN"
	EnvDBHost     = "MARKETPLACE_DB_HOST"
	EnvDBPort     = "MARKETPLACE_DB_PORT"
	EnvDBUser     = "MARKETPLACE_DB_USER"
	EnvDBPassword = "MARKETPLACE_DB_PASSWORD"
	EnvDBName     = "MARKETPLACE_DB_NAME"

	EnvRedisURL = "MARKETPLACE_REDIS_URL"

	EnvJWTSecret  = "MARKETPLACE_JWT_SECRET"
	EnvJWTIssuer  = "MARKETPLACE_JWT_ISSUER"
	EnvJWTExpMins = "MARKETPLACE_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite = "MARKETPLACE_USE_SQLITE"

	EnvSubscriptionPeriodDays = "MARKETPLACE_SUBSCRIPTION_PERIOD_DAYS"
	EnvSearchDefaultLimit     = "MARKETPLACE_SEARCH_DEFAULT_LIMIT"
	EnvSearchMaxLimit         = "MARKETPLACE_SEARCH_MAX_LIMIT"
	EnvCronSweepSchedule      = "MARKETPLACE_CRON_SWEEP_SCHEDULE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
