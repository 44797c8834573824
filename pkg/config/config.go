package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Audit         AuditConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DORM_APP_ENV" required:"true"`
	Port         string `envconfig:"DORM_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"DORM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DORM_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"DORM_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DORM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"DORM_DB_DSN"`

	LegacyHost     string `envconfig:"DORM_DB_HOST"`
	LegacyPort     int    `envconfig:"DORM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DORM_DB_USER"`
	LegacyPassword string `envconfig:"DORM_DB_PASSWORD"`
	LegacyName     string `envconfig:"DORM_DB_NAME"`
	LegacySSLMode  string `envconfig:"DORM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DORM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DORM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DORM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DORM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DORM_REDIS_URL"`
	Address      string        `envconfig:"DORM_REDIS_ADDR"`
	Password     string        `envconfig:"DORM_REDIS_PASSWORD"`
	DB           int           `envconfig:"DORM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DORM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DORM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DORM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DORM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DORM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DORM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DORM_JWT_ISSUER" default:"hostel-inventory"`
	ExpirationMinutes int    `envconfig:"DORM_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DORM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DORM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DORM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DORM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DORM_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"DORM_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"DORM_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"DORM_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DORM_AUTO_MIGRATE" default:"false"`
}

type AuditConfig struct {
	CacheSize        int           `envconfig:"DORM_AUDIT_CACHE_SIZE" default:"128"`
	SnapshotInterval time.Duration `envconfig:"DORM_AUDIT_SNAPSHOT_INTERVAL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DORM_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
