package config

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"deco-ledger/internal/adapter/tokenclient"
	"deco-ledger/internal/domain/ledger"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BackendSQL   = "sql"
	BackendRedis = "redis"
)

type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sql"`
	DBDriver     string `env:"DB_DRIVER" envDefault:"mysql"`

	MySQLHost string `env:"MYSQL_HOST" envDefault:"mysql"`
	MySQLPort string `env:"MYSQL_PORT" envDefault:"3306"`
	MySQLDB   string `env:"MYSQL_DB" envDefault:"deco"`
	MySQLUser string `env:"MYSQL_USER" envDefault:"deco"`
	MySQLPass string `env:"MYSQL_PASS" envDefault:"deco"`

	PostgresDSN string `env:"POSTGRES_DSN"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"deco-ledger.db"`

	RedisAddr    string `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix  string `env:"REDIS_PREFIX" envDefault:"deco"`
	IdempTTLSecs int    `env:"IDEMPOTENCY_TTL_SECONDS" envDefault:"300"`

	ReleaseMode           string `env:"RELEASE_MODE" envDefault:"vc_invest"`
	VCAdmission           string `env:"VC_ADMISSION" envDefault:"stake"`
	StrictStakeWithdrawal bool   `env:"STRICT_STAKE_WITHDRAWAL" envDefault:"false"`

	JWTPublicKey string `env:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `env:"JWT_ISSUER" envDefault:"deco-ledger"`
	JWTAudience  string `env:"JWT_AUDIENCE" envDefault:"deco-ledger-api"`

	TokenServiceURL     string        `env:"TOKEN_SERVICE_URL" envDefault:"http://token-service:8090"`
	TokenServiceAPIKey  string        `env:"TOKEN_SERVICE_API_KEY"`
	TokenServiceTimeout time.Duration `env:"TOKEN_SERVICE_TIMEOUT" envDefault:"10s"`
	TokenServiceRetries int           `env:"TOKEN_SERVICE_RETRIES" envDefault:"3"`
	CustodyAccount      string        `env:"TOKEN_CUSTODY_ACCOUNT"`

	// RedisLockTTL bounds how long a crashed writer can hold the Redis ledger
	// lock. It must outlast one token call, which runs under the lock.
	RedisLockTTL time.Duration `env:"REDIS_LOCK_TTL" envDefault:"60s"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.StoreBackend {
	case BackendSQL:
		if err := c.validateDB(); err != nil {
			return err
		}
	case BackendRedis:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.RedisAddr == "" {
		return errors.New("missing REDIS_ADDR")
	}
	if c.TokenServiceTimeout <= 0 {
		return fmt.Errorf("TOKEN_SERVICE_TIMEOUT must be positive, got %s", c.TokenServiceTimeout)
	}
	if c.TokenServiceRetries < 0 {
		return fmt.Errorf("TOKEN_SERVICE_RETRIES must not be negative, got %d", c.TokenServiceRetries)
	}
	if c.StoreBackend == BackendRedis && c.RedisLockTTL <= c.TokenCallBudget() {
		return fmt.Errorf("REDIS_LOCK_TTL %s must exceed the longest token call %s (TOKEN_SERVICE_TIMEOUT × attempts)",
			c.RedisLockTTL, c.TokenCallBudget())
	}
	if err := c.Policy().Validate(); err != nil {
		return err
	}
	if !ledger.Principal(c.CustodyAccount).Valid() {
		return fmt.Errorf("invalid TOKEN_CUSTODY_ACCOUNT %q", c.CustodyAccount)
	}
	if _, err := c.JWTKey(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDB() error {
	switch c.DBDriver {
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("missing POSTGRES_DSN")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

func (c *Config) Policy() ledger.Policy {
	return ledger.Policy{
		ReleaseMode:           ledger.ReleaseMode(c.ReleaseMode),
		VCAdmission:           ledger.VCAdmission(c.VCAdmission),
		StrictStakeWithdrawal: c.StrictStakeWithdrawal,
	}
}

// JWTKey decodes JWT_PUBLIC_KEY (standard or URL-safe base64 of a raw ed25519 key).
func (c *Config) JWTKey() (ed25519.PublicKey, error) {
	raw := strings.TrimSpace(c.JWTPublicKey)
	if raw == "" {
		return nil, errors.New("missing JWT_PUBLIC_KEY")
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		if b, err = base64.RawURLEncoding.DecodeString(raw); err != nil {
			return nil, fmt.Errorf("decode JWT_PUBLIC_KEY: %w", err)
		}
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("JWT_PUBLIC_KEY must be %d bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(b), nil
}

// TokenCallBudget is the longest one token transfer can take: every attempt
// timing out, the capped backoff between attempts, then the lookup by reference.
func (c *Config) TokenCallBudget() time.Duration {
	attempts := time.Duration(c.TokenServiceRetries + 1)
	backoff := time.Duration(c.TokenServiceRetries) * tokenclient.RetryMaxWait
	return attempts*c.TokenServiceTimeout + backoff + c.TokenServiceTimeout
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
