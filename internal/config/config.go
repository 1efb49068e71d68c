package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAppName          = "DevicePortal"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
	defaultShutdownDelay    = 10 * time.Second
	defaultRequestTimeout   = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultSubmissionTTL    = time.Minute
	defaultRateLimit        = 10
	defaultMQTTClientID     = "device-portal"
	defaultMQTTTopic        = "portal/registrations"
	defaultOperatorUsername = "operator"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
	requestSecondsEnvVar    = "REQUEST_TIMEOUT_SECONDS"
	requestDurationEnvVar   = "REQUEST_TIMEOUT"
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	submissionTTLEnvVar     = "SUBMISSION_LOCK_TTL"
	rateLimitEnvVar         = "REGISTRATION_RATE_LIMIT"
)

// Config captures application runtime configuration. Values come from an optional
// YAML file and are then overridden by environment variables.
type Config struct {
	AppName        string        `yaml:"app_name"`
	AppEnv         string        `yaml:"app_env"`
	Port           string        `yaml:"port"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	ShutdownPeriod time.Duration `yaml:"shutdown_timeout"`

	Upstream UpstreamConfig `yaml:"upstream"`
	Keycloak KeycloakConfig `yaml:"keycloak"`

	DatabaseURL        string         `yaml:"database_url"`
	RedisURL           string         `yaml:"redis_url"`
	IdempotencyTTL     time.Duration  `yaml:"idempotency_ttl"`
	SubmissionLockTTL  time.Duration  `yaml:"submission_lock_ttl"`
	RegistrationPerMin int            `yaml:"registration_rate_limit"`
	MQTT               MQTTConfig     `yaml:"mqtt"`
	Operator           OperatorConfig `yaml:"operator"`
}

// UpstreamConfig points at the device backend that decides registration eligibility.
type UpstreamConfig struct {
	APIBaseURL     string        `yaml:"api_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// KeycloakConfig holds the service credentials used for admin user creation.
type KeycloakConfig struct {
	URL          string `yaml:"url"`
	Realm        string `yaml:"realm"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// MQTTConfig enables registration event publishing when BrokerURL is set.
type MQTTConfig struct {
	BrokerURL string `yaml:"broker_url"`
	ClientID  string `yaml:"client_id"`
	Topic     string `yaml:"topic"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// OperatorConfig guards the device management views with basic auth when PasswordHash is set.
type OperatorConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// Default returns a Config populated with defaults only.
func Default() Config {
	return Config{
		AppName:            defaultAppName,
		AppEnv:             defaultAppEnv,
		Port:               defaultPort,
		LogLevel:           defaultLogLevel,
		LogFormat:          defaultLogFormat,
		ShutdownPeriod:     defaultShutdownDelay,
		Upstream:           UpstreamConfig{RequestTimeout: defaultRequestTimeout},
		IdempotencyTTL:     defaultIdempotencyTTL,
		SubmissionLockTTL:  defaultSubmissionTTL,
		RegistrationPerMin: defaultRateLimit,
		MQTT:               MQTTConfig{ClientID: defaultMQTTClientID, Topic: defaultMQTTTopic},
		Operator:           OperatorConfig{Username: defaultOperatorUsername},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.AppName, "APP_NAME")
	setString(&cfg.AppEnv, "APP_ENV")
	setString(&cfg.Port, "PORT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.Upstream.APIBaseURL, "API_BASE_URL")
	setString(&cfg.Keycloak.URL, "KEYCLOAK_URL")
	setString(&cfg.Keycloak.Realm, "KEYCLOAK_REALM")
	setString(&cfg.Keycloak.ClientID, "KEYCLOAK_CLIENT_ID")
	setString(&cfg.Keycloak.ClientSecret, "KEYCLOAK_ADMIN_CLIENT_SECRET")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.MQTT.BrokerURL, "MQTT_BROKER_URL")
	setString(&cfg.MQTT.ClientID, "MQTT_CLIENT_ID")
	setString(&cfg.MQTT.Topic, "MQTT_TOPIC")
	setString(&cfg.MQTT.Username, "MQTT_USERNAME")
	setString(&cfg.MQTT.Password, "MQTT_PASSWORD")
	setString(&cfg.Operator.Username, "OPERATOR_USERNAME")
	setString(&cfg.Operator.PasswordHash, "OPERATOR_PASSWORD_HASH")

	if err := setDuration(&cfg.ShutdownPeriod, shutdownSecondsEnvVar, shutdownDurationEnvVar); err != nil {
		return err
	}
	if err := setDuration(&cfg.Upstream.RequestTimeout, requestSecondsEnvVar, requestDurationEnvVar); err != nil {
		return err
	}
	if err := setDuration(&cfg.IdempotencyTTL, idemTTLSecondsEnvVar, idemTTLDurEnvVar); err != nil {
		return err
	}
	if err := setDuration(&cfg.SubmissionLockTTL, "", submissionTTLEnvVar); err != nil {
		return err
	}

	if v := os.Getenv(rateLimitEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", rateLimitEnvVar, err)
		}
		cfg.RegistrationPerMin = n
	}
	return nil
}

// Validate checks that the upstream and identity provider settings are usable.
func (c Config) Validate() error {
	if err := requireURL("API_BASE_URL", c.Upstream.APIBaseURL); err != nil {
		return err
	}
	if err := requireURL("KEYCLOAK_URL", c.Keycloak.URL); err != nil {
		return err
	}
	if c.Keycloak.Realm == "" {
		return fmt.Errorf("KEYCLOAK_REALM must be set")
	}
	if c.Keycloak.ClientID == "" {
		return fmt.Errorf("KEYCLOAK_CLIENT_ID must be set")
	}
	if c.Keycloak.ClientSecret == "" {
		return fmt.Errorf("KEYCLOAK_ADMIN_CLIENT_SECRET must be set")
	}
	if c.Upstream.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// LogValue keeps secrets out of structured logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("app_name", c.AppName),
		slog.String("app_env", c.AppEnv),
		slog.String("port", c.Port),
		slog.String("api_base_url", c.Upstream.APIBaseURL),
		slog.Duration("request_timeout", c.Upstream.RequestTimeout),
		slog.String("keycloak_url", c.Keycloak.URL),
		slog.String("keycloak_realm", c.Keycloak.Realm),
		slog.String("keycloak_client_id", c.Keycloak.ClientID),
		slog.String("keycloak_client_secret", redact(c.Keycloak.ClientSecret)),
		slog.Bool("postgres", c.DatabaseURL != ""),
		slog.Bool("redis", c.RedisURL != ""),
		slog.Bool("mqtt", c.MQTT.BrokerURL != ""),
		slog.Bool("operator_auth", c.Operator.PasswordHash != ""),
	)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + "****"
}

func requireURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s must be set", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", name)
	}
	return nil
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, secondsKey, durationKey string) error {
	if secondsKey != "" {
		if v := os.Getenv(secondsKey); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", secondsKey, err)
			}
			*dst = time.Duration(seconds) * time.Second
			return nil
		}
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		*dst = d
	}
	return nil
}
