package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "ASKBOX"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:askbox.db?_foreign_keys=on&_busy_timeout=5000"
)

const (
	EnvAppEnv                 = "ASKBOX_APP_ENV"
	EnvPort                   = "ASKBOX_APP_PORT"
	EnvDBDSN                  = "ASKBOX_DB_DSN"
	EnvDBDriver               = "ASKBOX_DB_DRIVER"
	EnvDBHost                 = "ASKBOX_DB_HOST"
	EnvDBUser                 = "ASKBOX_DB_USER"
	EnvDBName                 = "ASKBOX_DB_NAME"
	EnvRedisURL               = "ASKBOX_REDIS_URL"
	EnvJWTSecret              = "ASKBOX_JWT_SECRET"
	EnvJWTIssuer              = "ASKBOX_JWT_ISSUER"
	EnvJWTExpMins             = "ASKBOX_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ASKBOX_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite              = "ASKBOX_USE_SQLITE"
	EnvReservedUsernames      = "ASKBOX_RESERVED_USERNAMES"
)
