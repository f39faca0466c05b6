package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"netwatch/internal/models"
)

// Config holds every tunable of the monitor. Values come from an optional
// YAML file overlaid with NETWATCH_* environment variables; the
// environment wins because deployments are usually container-based.
type Config struct {
	IntervalSeconds     int      `yaml:"interval_seconds" env:"INTERVAL_SECONDS"`
	FailThreshold       int      `yaml:"fail_threshold" env:"FAIL_THRESHOLD"`
	OKThreshold         int      `yaml:"ok_threshold" env:"OK_THRESHOLD"`
	ProbeTimeoutSeconds int      `yaml:"probe_timeout_seconds" env:"PROBE_TIMEOUT_SECONDS"`
	PublicTargets       []string `yaml:"public_targets" env:"PUBLIC_TARGETS"`
	WANHost             string   `yaml:"wan_host" env:"WAN_HOST"`
	RediscoverSeconds   int      `yaml:"gateway_rediscover_seconds" env:"GATEWAY_REDISCOVER_SECONDS"`
	PrivilegedICMP      bool     `yaml:"privileged_icmp" env:"PRIVILEGED_ICMP"`
	Timezone            string   `yaml:"timezone" env:"TIMEZONE"`

	NotifyOnDown            bool `yaml:"notify_on_down" env:"NOTIFY_ON_DOWN"`
	MailRetries             int  `yaml:"mail_retries" env:"MAIL_RETRIES"`
	MailRetryBackoffSeconds int  `yaml:"mail_retry_backoff_seconds" env:"MAIL_RETRY_BACKOFF_SECONDS"`

	SMTPHost string   `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort int      `yaml:"smtp_port" env:"SMTP_PORT"`
	SMTPUser string   `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass string   `yaml:"smtp_pass" env:"SMTP_PASS"`
	MailFrom string   `yaml:"mail_from" env:"MAIL_FROM"`
	MailTo   []string `yaml:"mail_to" env:"MAIL_TO"`
}

// envPrefix namespaces every environment key, e.g. NETWATCH_SMTP_HOST.
const envPrefix = "NETWATCH_"

// DefaultConfig returns the defaults used when no file and no environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		IntervalSeconds:         5,
		FailThreshold:           3,
		OKThreshold:             2,
		ProbeTimeoutSeconds:     1,
		PublicTargets:           []string{"1.1.1.1", "8.8.8.8", "9.9.9.9"},
		RediscoverSeconds:       300,
		Timezone:                "Local",
		NotifyOnDown:            true,
		MailRetries:             3,
		MailRetryBackoffSeconds: 5,
		SMTPHost:                "smtp.gmail.com",
		SMTPPort:                587,
		MailFrom:                "netwatch <noreply@example.com>",
	}
}

// Load reads configuration from a YAML file (missing files fall back to
// defaults), applies environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults + environment only
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(content, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the monitor cannot safely run with.
// Only called before the loop starts; nothing changes afterwards.
func (c Config) Validate() error {
	if c.IntervalSeconds < 1 {
		return fmt.Errorf("interval_seconds must be >= 1, got %d", c.IntervalSeconds)
	}
	if c.FailThreshold < 1 {
		return fmt.Errorf("fail_threshold must be >= 1, got %d", c.FailThreshold)
	}
	if c.OKThreshold < 1 {
		return fmt.Errorf("ok_threshold must be >= 1, got %d", c.OKThreshold)
	}
	if c.ProbeTimeoutSeconds < 1 {
		return fmt.Errorf("probe_timeout_seconds must be >= 1, got %d", c.ProbeTimeoutSeconds)
	}
	if c.RediscoverSeconds < 1 {
		return fmt.Errorf("gateway_rediscover_seconds must be >= 1, got %d", c.RediscoverSeconds)
	}
	if c.MailRetries < 0 {
		return fmt.Errorf("mail_retries must be >= 0, got %d", c.MailRetries)
	}
	if c.MailRetryBackoffSeconds < 0 {
		return fmt.Errorf("mail_retry_backoff_seconds must be >= 0, got %d", c.MailRetryBackoffSeconds)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if len(c.MailTo) > 0 {
		if c.SMTPHost == "" {
			return errors.New("smtp_host is required when mail_to is set")
		}
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			return fmt.Errorf("smtp_port out of range: %d", c.SMTPPort)
		}
		if _, err := mail.ParseAddress(c.MailFrom); err != nil {
			return fmt.Errorf("mail_from %q: %w", c.MailFrom, err)
		}
		for _, to := range c.MailTo {
			if _, err := mail.ParseAddress(to); err != nil {
				return fmt.Errorf("mail_to %q: %w", to, err)
			}
		}
	}
	return nil
}

// Interval returns the sampling interval.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// ProbeTimeout returns the per-probe timeout.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// RediscoverEvery returns how often the default gateway is re-resolved.
func (c Config) RediscoverEvery() time.Duration {
	return time.Duration(c.RediscoverSeconds) * time.Second
}

// MailRetryBackoff returns the pause between mail delivery attempts.
func (c Config) MailRetryBackoff() time.Duration {
	return time.Duration(c.MailRetryBackoffSeconds) * time.Second
}

// Location resolves the configured timezone. Validate has already
// checked it, so errors here only happen on an unvalidated Config.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Publics returns the public probe targets as models.
func (c Config) Publics() []models.Target {
	targets := make([]models.Target, 0, len(c.PublicTargets))
	for _, addr := range c.PublicTargets {
		if addr == "" {
			continue
		}
		targets = append(targets, models.Target{Address: addr, Role: models.RolePublic})
	}
	return targets
}
