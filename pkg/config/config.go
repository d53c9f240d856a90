package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Gateway      GatewayConfig
	Billing      BillingConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"KAROBAR_APP_ENV" required:"true"`
	Port         string `envconfig:"KAROBAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KAROBAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KAROBAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KAROBAR_DB_DSN"`
	Driver string `envconfig:"KAROBAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KAROBAR_DB_HOST"`
	LegacyPort     int    `envconfig:"KAROBAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KAROBAR_DB_USER"`
	LegacyPassword string `envconfig:"KAROBAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"KAROBAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"KAROBAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KAROBAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KAROBAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KAROBAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KAROBAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KAROBAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KAROBAR_REDIS_ADDR"`
	Password     string        `envconfig:"KAROBAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"KAROBAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KAROBAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KAROBAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KAROBAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KAROBAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KAROBAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KAROBAR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KAROBAR_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KAROBAR_JWT_EXPIRATION_MINUTES" default:"60"`
}

// GatewayConfig holds the shurjoPay-style payment gateway credentials.
type GatewayConfig struct {
	BaseURL     string        `envconfig:"KAROBAR_GATEWAY_BASE_URL" required:"true"`
	Username    string        `envconfig:"KAROBAR_GATEWAY_USERNAME"`
	Password    string        `envconfig:"KAROBAR_GATEWAY_PASSWORD"`
	StorePrefix string        `envconfig:"KAROBAR_GATEWAY_STORE_PREFIX" default:"KBR"`
	ReturnURL   string        `envconfig:"KAROBAR_GATEWAY_RETURN_URL"`
	CancelURL   string        `envconfig:"KAROBAR_GATEWAY_CANCEL_URL"`
	Timeout     time.Duration `envconfig:"KAROBAR_GATEWAY_TIMEOUT" default:"10s"`
	Currency    string        `envconfig:"KAROBAR_GATEWAY_CURRENCY" default:"BDT"`
}

type BillingConfig struct {
	VerifyWindow  time.Duration `envconfig:"KAROBAR_BILLING_VERIFY_WINDOW" default:"1m"`
	VerifyLimit   int           `envconfig:"KAROBAR_BILLING_VERIFY_LIMIT" default:"30"`
	WebhookTTL    time.Duration `envconfig:"KAROBAR_BILLING_WEBHOOK_TTL" default:"720h"`
	VATPercentage string        `envconfig:"KAROBAR_BILLING_DEFAULT_VAT" default:"0"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KAROBAR_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KAROBAR_AUTO_MIGRATE" default:"false"`
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
