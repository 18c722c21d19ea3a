package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment names.
const (
	EnvStaging    = "staging"
	EnvProduction = "production"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendDynamo = "dynamo"
)

// Config holds all runtime configuration.
type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPPort    int
	HTTPSPort   int
	TLSCertPath string
	TLSKeyPath  string

	DataDir         string
	StoreBackend    string // "file" | "dynamo"
	StoreKeyLocking bool   // serialize read-modify-write per document
	DynamoTable     string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	SNSRegion        string
	SMSCountryPrefix string

	HashingSecret string
	BcryptCost    int
	TokenTTL      time.Duration
	TokenLength   int
	MaxChecks     int
	MaxBodyBytes  int64

	AllowedOrigins []string // CORS allowed origins
	RateLimitRPS   float64
	RateLimitBurst int

	WorkerEnabled  bool
	WorkerInterval time.Duration
}

// Options are the command-line overrides. Empty fields are ignored.
type Options struct {
	File    string
	Env     string
	DataDir string
}

// Load builds the configuration from, in increasing precedence: defaults for
// the selected environment, the YAML file (base section, then the block for
// the environment), environment variables, and opts.
func Load(opts Options) (*Config, error) {
	env := opts.Env
	if env == "" {
		env = os.Getenv("APP_ENV")
	}
	cfg := Default(env)

	file := opts.File
	if file == "" {
		file = os.Getenv("CONFIG_FILE")
	}
	if file != "" {
		if err := cfg.loadFile(file); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration for env. Unknown environments
// fall back to staging.
func Default(env string) *Config {
	cfg := &Config{
		AppEnv:           EnvStaging,
		LogLevel:         "info",
		HTTPPort:         3000,
		HTTPSPort:        3001,
		TLSCertPath:      "./https/cert.pem",
		TLSKeyPath:       "./https/key.pem",
		DataDir:          "./.data",
		StoreBackend:     BackendFile,
		DynamoTable:      "documents",
		AWSRegion:        "us-east-1",
		SNSRegion:        "us-east-1",
		SMSCountryPrefix: "+1",
		HashingSecret:    "thisIsASecret",
		BcryptCost:       10,
		TokenTTL:         time.Hour,
		TokenLength:      20,
		MaxChecks:        5,
		MaxBodyBytes:     2 << 20,
		AllowedOrigins:   []string{"*"},
		RateLimitRPS:     5,
		RateLimitBurst:   10,
		WorkerEnabled:    true,
		WorkerInterval:   time.Minute,
	}
	if strings.ToLower(strings.TrimSpace(env)) == EnvProduction {
		cfg.AppEnv = EnvProduction
		cfg.HTTPPort = 5000
		cfg.HTTPSPort = 5001
		cfg.HashingSecret = ""
	}
	return cfg
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.HashingSecret == "" {
		errs = append(errs, errors.New("HASHING_SECRET must be set"))
	}
	if c.TokenLength < 1 {
		errs = append(errs, fmt.Errorf("token length must be positive, got %d", c.TokenLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL))
	}
	if c.HTTPPort <= 0 || c.HTTPSPort <= 0 {
		errs = append(errs, fmt.Errorf("ports must be positive, got http=%d https=%d", c.HTTPPort, c.HTTPSPort))
	}
	if c.MaxChecks < 0 {
		errs = append(errs, fmt.Errorf("max checks must not be negative, got %d", c.MaxChecks))
	}
	switch c.StoreBackend {
	case BackendFile:
		if c.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR must be set for the file backend"))
		}
	case BackendDynamo:
		if c.DynamoTable == "" {
			errs = append(errs, errors.New("DYNAMO_TABLE must be set for the dynamo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.StoreBackend))
	}
	if c.WorkerEnabled && c.WorkerInterval <= 0 {
		errs = append(errs, fmt.Errorf("worker interval must be positive, got %s", c.WorkerInterval))
	}
	return errors.Join(errs...)
}

// applyEnv overrides fields whose environment variable is set.
func (c *Config) applyEnv() error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	envString("LOG_LEVEL", &c.LogLevel)
	collect(envInt("HTTP_PORT", &c.HTTPPort))
	collect(envInt("HTTPS_PORT", &c.HTTPSPort))
	envString("TLS_CERT_PATH", &c.TLSCertPath)
	envString("TLS_KEY_PATH", &c.TLSKeyPath)
	envString("DATA_DIR", &c.DataDir)
	envString("STORE_BACKEND", &c.StoreBackend)
	collect(envBool("STORE_KEY_LOCKING", &c.StoreKeyLocking))
	envString("DYNAMO_TABLE", &c.DynamoTable)
	envString("AWS_REGION", &c.AWSRegion)
	envString("AWS_ENDPOINT_URL", &c.AWSEndpointURL)
	envString("AWS_ACCESS_KEY_ID", &c.AWSAccessKeyID)
	envString("AWS_SECRET_ACCESS_KEY", &c.AWSSecretKey)
	envString("SNS_REGION", &c.SNSRegion)
	envString("SMS_COUNTRY_PREFIX", &c.SMSCountryPrefix)
	envString("HASHING_SECRET", &c.HashingSecret)
	collect(envInt("BCRYPT_COST", &c.BcryptCost))
	collect(envDuration("TOKEN_TTL", &c.TokenTTL))
	collect(envInt("TOKEN_LENGTH", &c.TokenLength))
	collect(envInt("MAX_CHECKS", &c.MaxChecks))
	collect(envInt64("MAX_BODY_BYTES", &c.MaxBodyBytes))
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = strings.Split(v, ",")
	}
	collect(envFloat("RATE_LIMIT_RPS", &c.RateLimitRPS))
	collect(envInt("RATE_LIMIT_BURST", &c.RateLimitBurst))
	collect(envBool("WORKER_ENABLED", &c.WorkerEnabled))
	collect(envDuration("WORKER_INTERVAL", &c.WorkerInterval))
	return errors.Join(errs...)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envInt64(key string, dst *int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
