package config

const (
	// EnvPrefix is passed to envconfig; every field carries an explicit key.
	EnvPrefix = "DORM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "DORM_APP_ENV"
	EnvPort      = "DORM_APP_PORT"
	EnvDBDSN     = "DORM_DB_DSN"
	EnvDBHost    = "DORM_DB_HOST"
	EnvDBUser    = "DORM_DB_USER"
	EnvDBName    = "DORM_DB_NAME"
	EnvRedisURL  = "DORM_REDIS_URL"
	EnvJWTSecret = "DORM_JWT_SECRET"
	EnvJWTIssuer = "DORM_JWT_ISSUER"
	EnvJWTExp    = "DORM_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
