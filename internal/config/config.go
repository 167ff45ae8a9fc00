package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	OTPStoreDB    = "db"
	OTPStoreRedis = "redis"

	SinkLog   = "log"
	SinkKafka = "kafka"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Addr     string `env:"AUTH_ADDR"    envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL"    envDefault:"info"`

	DBDriver    string `env:"DB_DRIVER"    envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`

	AccessSecret  string   `env:"ACCESS_TOKEN_SECRET"`
	RefreshSecret string   `env:"REFRESH_TOKEN_SECRET"`
	AccessTTL     Lifetime `env:"ACCESS_EXPIRES_IN"  envDefault:"1h"`
	RefreshTTL    Lifetime `env:"REFRESH_EXPIRES_IN" envDefault:"7d"`

	OTPTTL         Lifetime `env:"OTP_EXPIRES_IN"   envDefault:"10m"`
	OTPMaxAttempts int      `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
	OTPStore       string   `env:"OTP_STORE"        envDefault:"db"`
	RedisURL       string   `env:"REDIS_URL"`

	NotifySink   string   `env:"NOTIFY_SINK"     envDefault:"log"`
	KafkaBrokers []string `env:"KAFKA_BROKERS"   envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_OTP_TOPIC" envDefault:"user_events"`

	AuditESURL      string `env:"AUDIT_ES_URL"`
	AuditESUser     string `env:"AUDIT_ES_USER"`
	AuditESPassword string `env:"AUDIT_ES_PASSWORD"`
	AuditIndex      string `env:"AUDIT_INDEX" envDefault:"auth_audit"`

	RotateRefreshTokens bool `env:"ROTATE_REFRESH_TOKENS" envDefault:"false"`
	LoginRequiresActive bool `env:"LOGIN_REQUIRES_ACTIVE" envDefault:"false"`
	CSRFProtect         bool `env:"CSRF_PROTECT"          envDefault:"true"`
}

// LoadDotEnv reads .env into the process environment when the file exists.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	if err := godotenv.Load(paths...); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
}

func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver))
	}

	if c.AccessSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.RefreshSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.AccessSecret != "" && c.AccessSecret == c.RefreshSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}

	for name, l := range map[string]Lifetime{
		"ACCESS_EXPIRES_IN":  c.AccessTTL,
		"REFRESH_EXPIRES_IN": c.RefreshTTL,
		"OTP_EXPIRES_IN":     c.OTPTTL,
	} {
		if l.Duration() <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.OTPMaxAttempts <= 0 {
		errs = append(errs, errors.New("OTP_MAX_ATTEMPTS must be positive"))
	}

	switch c.OTPStore {
	case OTPStoreDB:
	case OTPStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when OTP_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("OTP_STORE %q is not supported", c.OTPStore))
	}

	switch c.NotifySink {
	case SinkLog:
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when NOTIFY_SINK=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("NOTIFY_SINK %q is not supported", c.NotifySink))
	}

	return errors.Join(errs...)
}

func (c *Config) AuditEnabled() bool { return c.AuditESURL != "" }

func (c *Config) AccessTokenTTL() time.Duration  { return c.AccessTTL.Duration() }
func (c *Config) RefreshTokenTTL() time.Duration { return c.RefreshTTL.Duration() }
func (c *Config) OTPValidity() time.Duration     { return c.OTPTTL.Duration() }
