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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Checkout      CheckoutConfig
	Stripe        StripeConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"SHOEPARADISE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOEPARADISE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOEPARADISE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOEPARADISE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"SHOEPARADISE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// AllowedOrigins splits the comma-separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	parts := strings.Split(a.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOEPARADISE_DB_DSN"`
	Driver string `envconfig:"SHOEPARADISE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOEPARADISE_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOEPARADISE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOEPARADISE_DB_USER"`
	LegacyPassword string `envconfig:"SHOEPARADISE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOEPARADISE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOEPARADISE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOEPARADISE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOEPARADISE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOEPARADISE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOEPARADISE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOEPARADISE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOEPARADISE_REDIS_ADDR"`
	Password     string        `envconfig:"SHOEPARADISE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOEPARADISE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOEPARADISE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOEPARADISE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOEPARADISE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOEPARADISE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOEPARADISE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOEPARADISE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOEPARADISE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOEPARADISE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOEPARADISE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOEPARADISE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOEPARADISE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOEPARADISE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOEPARADISE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHOEPARADISE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SHOEPARADISE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SHOEPARADISE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SHOEPARADISE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SHOEPARADISE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SHOEPARADISE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// CheckoutConfig carries the pricing knobs used when totals are computed.
type CheckoutConfig struct {
	TaxRate               string `envconfig:"SHOEPARADISE_CHECKOUT_TAX_RATE" default:"0.10"`
	FreeShippingThreshold string `envconfig:"SHOEPARADISE_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"100"`
	FlatShippingCost      string `envconfig:"SHOEPARADISE_CHECKOUT_FLAT_SHIPPING_COST" default:"10"`
}

type StripeConfig struct {
	APIKey string `envconfig:"SHOEPARADISE_STRIPE_API_KEY"`
	Secret string `envconfig:"SHOEPARADISE_STRIPE_WEBHOOK_SECRET"`
	Env    string `envconfig:"SHOEPARADISE_STRIPE_ENV" default:"test"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOEPARADISE_AUTO_MIGRATE" default:"false"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
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
