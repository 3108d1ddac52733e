package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Accrual      AccrualConfig
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
	Env          string `envconfig:"ORDEROPS_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDEROPS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ORDEROPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDEROPS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"ORDEROPS_DB_DSN"`

	Host     string `envconfig:"ORDEROPS_DB_HOST"`
	Port     int    `envconfig:"ORDEROPS_DB_PORT" default:"5432"`
	User     string `envconfig:"ORDEROPS_DB_USER"`
	Password string `envconfig:"ORDEROPS_DB_PASSWORD"`
	Name     string `envconfig:"ORDEROPS_DB_NAME"`
	SSLMode  string `envconfig:"ORDEROPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDEROPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDEROPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDEROPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDEROPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN composes a Postgres DSN from the discrete fields when one is not
// provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("database config requires ORDEROPS_DB_DSN or host/user/name fields")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDEROPS_REDIS_URL"`
	Address      string        `envconfig:"ORDEROPS_REDIS_ADDR"`
	Password     string        `envconfig:"ORDEROPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDEROPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDEROPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDEROPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDEROPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDEROPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDEROPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type AccrualConfig struct {
	Interval  time.Duration `envconfig:"ORDEROPS_ACCRUAL_INTERVAL" default:"24h"`
	LockTTL   time.Duration `envconfig:"ORDEROPS_ACCRUAL_LOCK_TTL" default:"1h"`
	BatchSize int           `envconfig:"ORDEROPS_ACCRUAL_BATCH_SIZE" default:"200"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORDEROPS_AUTO_MIGRATE" default:"false"`
}
