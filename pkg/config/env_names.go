package config

// EnvPrefix namespaces every config variable the service reads.
const EnvPrefix = "SHOEPARADISE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "SHOEPARADISE_APP_ENV"
	EnvPort       = "SHOEPARADISE_APP_PORT"
	EnvDBDSN      = "SHOEPARADISE_DB_DSN"
	EnvDBHost     = "SHOEPARADISE_DB_HOST"
	EnvDBUser     = "SHOEPARADISE_DB_USER"
	EnvDBName     = "SHOEPARADISE_DB_NAME"
	EnvRedisURL   = "SHOEPARADISE_REDIS_URL"
	EnvJWTSecret  = "SHOEPARADISE_JWT_SECRET"
	EnvJWTIssuer  = "SHOEPARADISE_JWT_ISSUER"
	EnvJWTExpMins = "SHOEPARADISE_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
