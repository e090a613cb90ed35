package config

// EnvPrefix is passed to envconfig; every field still names its full variable.
const EnvPrefix = "ARTICLE39"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv     = "ARTICLE39_APP_ENV"
	EnvPort       = "ARTICLE39_APP_PORT"
	EnvDBDSN      = "ARTICLE39_DB_DSN"
	EnvDBDriver   = "ARTICLE39_DB_DRIVER"
	EnvDBHost     = "ARTICLE39_DB_HOST"
	EnvDBUser     = "ARTICLE39_DB_USER"
	EnvDBName     = "ARTICLE39_DB_NAME"
	EnvDBPassword = "ARTICLE39_DB_PASSWORD"
	EnvRedisURL   = "ARTICLE39_REDIS_URL"
	EnvJWTSecret  = "ARTICLE39_JWT_SECRET"
	EnvJWTIssuer  = "ARTICLE39_JWT_ISSUER"
	EnvJWTExpMins = "ARTICLE39_JWT_EXPIRATION_MINUTES"
	EnvCORS       = "ARTICLE39_CORS_ALLOWED_ORIGINS"
	EnvTransfer   = "ARTICLE39_TRANSFER_URL"
	EnvWorkerMax  = "ARTICLE39_WORKER_MAX_ATTEMPTS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
