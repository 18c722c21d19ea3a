package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout. Top-level settings apply to every
// environment; the staging and production blocks override them.
//
//	data_dir: /var/lib/api
//	staging:
//	  http_port: 3000
//	production:
//	  http_port: 5000
//	  hashing_secret: ...
type fileConfig struct {
	fileSettings `yaml:",inline"`

	Staging    *fileSettings `yaml:"staging,omitempty"`
	Production *fileSettings `yaml:"production,omitempty"`
}

// fileSettings mirrors Config with optional fields so that an absent key
// never clobbers a default. Durations are Go duration strings ("90s", "1h").
type fileSettings struct {
	LogLevel         *string  `yaml:"log_level"`
	HTTPPort         *int     `yaml:"http_port"`
	HTTPSPort        *int     `yaml:"https_port"`
	TLSCertPath      *string  `yaml:"tls_cert_path"`
	TLSKeyPath       *string  `yaml:"tls_key_path"`
	DataDir          *string  `yaml:"data_dir"`
	StoreBackend     *string  `yaml:"store_backend"`
	StoreKeyLocking  *bool    `yaml:"store_key_locking"`
	DynamoTable      *string  `yaml:"dynamo_table"`
	AWSRegion        *string  `yaml:"aws_region"`
	AWSEndpointURL   *string  `yaml:"aws_endpoint_url"`
	SNSRegion        *string  `yaml:"sns_region"`
	SMSCountryPrefix *string  `yaml:"sms_country_prefix"`
	HashingSecret    *string  `yaml:"hashing_secret"`
	BcryptCost       *int     `yaml:"bcrypt_cost"`
	TokenTTL         *string  `yaml:"token_ttl"`
	TokenLength      *int     `yaml:"token_length"`
	MaxChecks        *int     `yaml:"max_checks"`
	MaxBodyBytes     *int64   `yaml:"max_body_bytes"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	RateLimitRPS     *float64 `yaml:"rate_limit_rps"`
	RateLimitBurst   *int     `yaml:"rate_limit_burst"`
	WorkerEnabled    *bool    `yaml:"worker_enabled"`
	WorkerInterval   *string  `yaml:"worker_interval"`
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := fc.fileSettings.apply(c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	override := fc.Staging
	if c.AppEnv == EnvProduction {
		override = fc.Production
	}
	if override != nil {
		if err := override.apply(c); err != nil {
			return fmt.Errorf("config file %s (%s): %w", path, c.AppEnv, err)
		}
	}
	return nil
}

func (s *fileSettings) apply(c *Config) error {
	setIf(s.LogLevel, &c.LogLevel)
	setIf(s.HTTPPort, &c.HTTPPort)
	setIf(s.HTTPSPort, &c.HTTPSPort)
	setIf(s.TLSCertPath, &c.TLSCertPath)
	setIf(s.TLSKeyPath, &c.TLSKeyPath)
	setIf(s.DataDir, &c.DataDir)
	setIf(s.StoreBackend, &c.StoreBackend)
	setIf(s.StoreKeyLocking, &c.StoreKeyLocking)
	setIf(s.DynamoTable, &c.DynamoTable)
	setIf(s.AWSRegion, &c.AWSRegion)
	setIf(s.AWSEndpointURL, &c.AWSEndpointURL)
	setIf(s.SNSRegion, &c.SNSRegion)
	setIf(s.SMSCountryPrefix, &c.SMSCountryPrefix)
	setIf(s.HashingSecret, &c.HashingSecret)
	setIf(s.BcryptCost, &c.BcryptCost)
	setIf(s.TokenLength, &c.TokenLength)
	setIf(s.MaxChecks, &c.MaxChecks)
	setIf(s.MaxBodyBytes, &c.MaxBodyBytes)
	setIf(s.RateLimitRPS, &c.RateLimitRPS)
	setIf(s.RateLimitBurst, &c.RateLimitBurst)
	setIf(s.WorkerEnabled, &c.WorkerEnabled)
	if len(s.AllowedOrigins) > 0 {
		c.AllowedOrigins = s.AllowedOrigins
	}
	if err := setDuration(s.TokenTTL, &c.TokenTTL, "token_ttl"); err != nil {
		return err
	}
	return setDuration(s.WorkerInterval, &c.WorkerInterval, "worker_interval")
}

func setIf[T any](src *T, dst *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(src *string, dst *time.Duration, name string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
