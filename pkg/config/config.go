package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Accounts      AccountsConfig
	Metrics       MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate reports every cross-field problem at once.
func (c *Config) validate() error {
	var errs error
	if c.JWT.RefreshTokenTTL() <= c.JWT.AccessTokenTTL() {
		errs = multierr.Append(errs, fmt.Errorf("%s must exceed %s", EnvRefreshTokenTTLMinutes, EnvJWTExpMins))
	}
	switch strings.ToLower(c.App.LogFormat) {
	case "json", "console":
	default:
		errs = multierr.Append(errs, fmt.Errorf("log format %q must be json or console", c.App.LogFormat))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = multierr.Append(errs, fmt.Errorf("metrics path %q must start with /", c.Metrics.Path))
	}
	rl := c.AuthRateLimit
	if min(rl.LoginIPLimit, rl.LoginIdentifierLimit, rl.RegisterIPLimit, rl.RegisterIdentifierLimit) < 0 {
		errs = multierr.Append(errs, errors.New("auth rate limits cannot be negative"))
	}
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"ASKBOX_APP_ENV" required:"true"`
	Port         string `envconfig:"ASKBOX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ASKBOX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ASKBOX_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"ASKBOX_LOG_FORMAT" default:"json"`

	CORSOrigins []string `envconfig:"ASKBOX_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"ASKBOX_DB_DSN"`
	Driver string `envconfig:"ASKBOX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ASKBOX_DB_HOST"`
	LegacyPort     int    `envconfig:"ASKBOX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ASKBOX_DB_USER"`
	LegacyPassword string `envconfig:"ASKBOX_DB_PASSWORD"`
	LegacyName     string `envconfig:"ASKBOX_DB_NAME"`
	LegacySSLMode  string `envconfig:"ASKBOX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ASKBOX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ASKBOX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ASKBOX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ASKBOX_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"ASKBOX_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

// IsSQLite reports whether the configured driver targets SQLite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ASKBOX_REDIS_URL"`
	Address      string        `envconfig:"ASKBOX_REDIS_ADDR"`
	Password     string        `envconfig:"ASKBOX_REDIS_PASSWORD"`
	DB           int           `envconfig:"ASKBOX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ASKBOX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ASKBOX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ASKBOX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ASKBOX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ASKBOX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret                 string `envconfig:"ASKBOX_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ASKBOX_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ASKBOX_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ASKBOX_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL is the lifetime of a minted access token.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ASKBOX_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ASKBOX_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ASKBOX_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ASKBOX_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ASKBOX_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow             time.Duration `envconfig:"ASKBOX_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentifierLimit    int           `envconfig:"ASKBOX_AUTH_RATE_LIMIT_LOGIN_IDENTIFIER_LIMIT" default:"5"`
	LoginIPLimit            int           `envconfig:"ASKBOX_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow          time.Duration `envconfig:"ASKBOX_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIdentifierLimit int           `envconfig:"ASKBOX_AUTH_RATE_LIMIT_REGISTER_IDENTIFIER_LIMIT" default:"3"`
	RegisterIPLimit         int           `envconfig:"ASKBOX_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ASKBOX_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ASKBOX_AUTO_MIGRATE" default:"false"`
}

// AccountsConfig carries the account policy data that operators may extend.
type AccountsConfig struct {
	ExtraReservedUsernames []string `envconfig:"ASKBOX_RESERVED_USERNAMES"`
	ForbiddenUsernameChars string   `envconfig:"ASKBOX_FORBIDDEN_USERNAME_CHARS" default:"@+-"`
	DefaultAvatar          string   `envconfig:"ASKBOX_DEFAULT_AVATAR" default:"img/user.png"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"ASKBOX_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"ASKBOX_METRICS_PATH" default:"/metrics"`
}

// ensureDSN assembles a postgres URL from the discrete ASKBOX_DB_* variables
// when no DSN was given.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.LegacyHost, EnvDBUser: db.LegacyUser, EnvDBName: db.LegacyName} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	user := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		user = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   net.JoinHostPort(db.LegacyHost, strconv.Itoa(db.LegacyPort)),
		Path:   db.LegacyName,
	}
	if db.LegacySSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.LegacySSLMode}}.Encode()
	}
	db.DSN = u.String()
	return nil
}
