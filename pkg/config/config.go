package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrNoBrokers     = errors.New("kafka brokers cannot be empty")
	ErrInvalidSource = errors.New("gateway source must be memory or redis")
	ErrNoWorkers     = errors.New("processor num_workers must be positive")
)

const (
	SourceMemory = "memory"
	SourceRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	View      ViewConfig      `mapstructure:"view"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"` // tracker only; the processor always needs kafka
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type ProcessorConfig struct {
	NumWorkers int `mapstructure:"num_workers"`
}

type GatewayConfig struct {
	Source string `mapstructure:"source"` // "memory" or "redis"
}

type ViewConfig struct {
	Title    string `mapstructure:"title"`
	LogoBase string `mapstructure:"logo_base"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// .env only feeds the process environment; real env vars still win
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.development", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "crypto_ticks")
	v.SetDefault("kafka.group_id", "crypto-processor-group")

	v.SetDefault("processor.num_workers", 4)

	v.SetDefault("gateway.source", SourceMemory)

	v.SetDefault("view.title", "Crypto Price Tracker")
	v.SetDefault("view.logo_base", "/crypto-icons/")

	// "app.port" -> "APP_PORT"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not populate nested structs on Unmarshal
	bindEnv(v, "app.port", "app.env")
	bindEnv(v, "logger.level", "logger.development")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "kafka.enabled", "kafka.brokers", "kafka.topic", "kafka.group_id")
	bindEnv(v, "processor.num_workers")
	bindEnv(v, "gateway.source")
	bindEnv(v, "view.title", "view.logo_base")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings shared by every binary.
func (c *Config) Validate() error {
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return ErrNoBrokers
	}
	if c.Processor.NumWorkers <= 0 {
		return fmt.Errorf("%w: got %d", ErrNoWorkers, c.Processor.NumWorkers)
	}
	switch c.Gateway.Source {
	case SourceMemory, SourceRedis:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidSource, c.Gateway.Source)
	}
	return nil
}

// Warnings lists settings that are valid but probably not what was meant.
func (c *Config) Warnings() []string {
	var w []string
	if c.Gateway.Source == SourceRedis && !c.Kafka.Enabled {
		// prices only reach redis through kafka and the processor
		w = append(w, "gateway reads prices from redis but kafka is disabled: "+
			"clients only see updates if another tracker publishes to the same redis through the processor")
	}
	return w
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
