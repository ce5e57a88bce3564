package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers understood by the service.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config captures the settings of the rentals service.
type Config struct {
	HTTPPort        int           `yaml:"http_port"`
	Storage         string        `yaml:"storage"`
	SQLiteDSN       string        `yaml:"sqlite_dsn"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Kafka           KafkaConfig   `yaml:"kafka"`
	Tokens          TokenConfig   `yaml:"tokens"`
}

// KafkaConfig enables booking event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether at least one broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// TokenConfig enables bearer token issuance when Secret is non-empty.
type TokenConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// Enabled reports whether a signing secret is configured.
func (t TokenConfig) Enabled() bool {
	return t.Secret != ""
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTPPort:        8080,
		Storage:         StorageSQLite,
		SQLiteDSN:       "rentals.db",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
		Kafka: KafkaConfig{
			Topic: "booking-events",
		},
		Tokens: TokenConfig{
			TTL: time.Hour,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// RENTALS_CONFIG_FILE when set, then RENTALS_* variables. Variables come from
// the process environment first and from the dotenv file second: the file
// named by RENTALS_ENV_FILE, or ./.env when that is unset and the file exists.
func Load() (Config, error) {
	cfg := Default()

	dotenv, err := readEnvFile()
	if err != nil {
		return Config{}, err
	}
	env := func(key string) string {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
		return strings.TrimSpace(dotenv[key])
	}

	if path := env("RENTALS_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	invalid := make([]string, 0, 2)

	if portValue := env("RENTALS_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil {
			invalid = append(invalid, "RENTALS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}
	if storage := env("RENTALS_STORAGE"); storage != "" {
		cfg.Storage = storage
	}
	if dsn := env("RENTALS_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if level := env("RENTALS_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if format := env("RENTALS_LOG_FORMAT"); format != "" {
		cfg.LogFormat = format
	}
	if timeoutValue := env("RENTALS_SHUTDOWN_TIMEOUT"); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil {
			invalid = append(invalid, "RENTALS_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}
	if brokers := env("RENTALS_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitList(brokers)
	}
	if topic := env("RENTALS_KAFKA_TOPIC"); topic != "" {
		cfg.Kafka.Topic = topic
	}
	if secret := env("RENTALS_TOKEN_SECRET"); secret != "" {
		cfg.Tokens.Secret = secret
	}
	if ttlValue := env("RENTALS_TOKEN_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil {
			invalid = append(invalid, "RENTALS_TOKEN_TTL")
		} else {
			cfg.Tokens.TTL = ttl
		}
	}

	cfg.normalize()
	invalid = append(invalid, cfg.validate()...)

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// readEnvFile parses the dotenv file without touching the process environment.
func readEnvFile() (map[string]string, error) {
	path := strings.TrimSpace(os.Getenv("RENTALS_ENV_FILE"))
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}

func (c *Config) normalize() {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	c.SQLiteDSN = strings.TrimSpace(c.SQLiteDSN)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Kafka.Topic = strings.TrimSpace(c.Kafka.Topic)
	c.Kafka.Brokers = splitList(strings.Join(c.Kafka.Brokers, ","))
	c.Tokens.Secret = strings.TrimSpace(c.Tokens.Secret)
}

// validate returns the names of settings holding unusable values.
func (c Config) validate() []string {
	var invalid []string
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, "RENTALS_HTTP_PORT")
	}
	switch c.Storage {
	case StorageMemory:
	case StorageSQLite:
		if c.SQLiteDSN == "" {
			invalid = append(invalid, "RENTALS_SQLITE_DSN")
		}
	default:
		invalid = append(invalid, "RENTALS_STORAGE")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "RENTALS_LOG_LEVEL")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		invalid = append(invalid, "RENTALS_LOG_FORMAT")
	}
	if c.ShutdownTimeout <= 0 {
		invalid = append(invalid, "RENTALS_SHUTDOWN_TIMEOUT")
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		invalid = append(invalid, "RENTALS_KAFKA_TOPIC")
	}
	if c.Tokens.TTL <= 0 {
		invalid = append(invalid, "RENTALS_TOKEN_TTL")
	}
	return invalid
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
