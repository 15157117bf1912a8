package pricing

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
	StorageMemory   = "memory"
)

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Base     string
}

func (c PostgresConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Base
}

type CacheConfig struct {
	URL      string
	User     string
	Password string
	TTL      time.Duration
}

type KafkaConfig struct {
	URL   string
	Topic string
}

type RabbitConfig struct {
	URL      string
	Port     string
	User     string
	Password string
	Queue    string
}

func (c RabbitConfig) DSN() string {
	return "amqp://" + c.User + ":" + c.Password + "@" + c.URL + ":" + c.Port + "/"
}

type Config struct {
	Env           string
	LogLevel      string
	Port          string
	Storage       string
	DB            PostgresConfig
	Mongo         string
	Cache         CacheConfig
	Kafka         KafkaConfig
	Rabbit        RabbitConfig
	JWTSecret     string
	OTLPEndpoint  string
	BootstrapFile string
}

// Load reads the environment. Values from a .env file in the working directory
// are used when the variable is not already set.
func Load() (*Config, error) {
	envFiles := []string{".env"}
	if f := os.Getenv("PRICING_ENV_FILE"); f != "" {
		envFiles = []string{f}
	}
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PRICING_ENV", "development")
	v.SetDefault("PRICING_LOG_LEVEL", "info")
	v.SetDefault("PRICING_STORAGE", StoragePostgres)
	v.SetDefault("PRICING_DB_PORT", "5432")
	v.SetDefault("RABBIT_PORT", "5672")
	v.SetDefault("RABBIT_QUEUE", "pricing_alerts")
	v.SetDefault("KAFKA_AUDIT_TOPIC", "pricing_audit")
	v.SetDefault("PRICING_CACHE_TTL", 30*time.Second)

	cfg := &Config{
		Env:      v.GetString("PRICING_ENV"),
		LogLevel: v.GetString("PRICING_LOG_LEVEL"),
		Port:     v.GetString("PRICING_PORT"),
		Storage:  v.GetString("PRICING_STORAGE"),
		DB: PostgresConfig{
			Host:     v.GetString("PRICING_DB_HOST"),
			Port:     v.GetString("PRICING_DB_PORT"),
			User:     v.GetString("PRICING_DB_USER"),
			Password: v.GetString("PRICING_DB_PASSWORD"),
			Base:     v.GetString("PRICING_DB_BASE"),
		},
		Mongo: v.GetString("PRICING_MONGO"),
		Cache: CacheConfig{
			URL:      v.GetString("PRICING_CACHE_URL"),
			User:     v.GetString("PRICING_CACHE_USER"),
			Password: v.GetString("PRICING_CACHE_PWD"),
			TTL:      v.GetDuration("PRICING_CACHE_TTL"),
		},
		Kafka: KafkaConfig{
			URL:   v.GetString("KAFKA_AUDIT_URL"),
			Topic: v.GetString("KAFKA_AUDIT_TOPIC"),
		},
		Rabbit: RabbitConfig{
			URL:      v.GetString("RABBIT_URL"),
			Port:     v.GetString("RABBIT_PORT"),
			User:     v.GetString("RABBIT_USER"),
			Password: v.GetString("RABBIT_PASSWORD"),
			Queue:    v.GetString("RABBIT_QUEUE"),
		},
		JWTSecret:     v.GetString("PRICING_JWT_SECRET"),
		OTLPEndpoint:  v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		BootstrapFile: v.GetString("PRICING_BOOTSTRAP_FILE"),
	}
	return cfg, nil
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("env %s is not set", name)
	}
	return nil
}

// ValidateServer checks the settings the HTTP service cannot start without.
func (c *Config) ValidateServer() error {
	if err := required("PRICING_PORT", c.Port); err != nil {
		return err
	}
	if err := required("PRICING_JWT_SECRET", c.JWTSecret); err != nil {
		return err
	}
	return c.ValidateStorage()
}

func (c *Config) ValidateStorage() error {
	switch c.Storage {
	case StoragePostgres:
		for _, kv := range [][2]string{
			{"PRICING_DB_HOST", c.DB.Host},
			{"PRICING_DB_USER", c.DB.User},
			{"PRICING_DB_PASSWORD", c.DB.Password},
			{"PRICING_DB_BASE", c.DB.Base},
		} {
			if err := required(kv[0], kv[1]); err != nil {
				return err
			}
		}
	case StorageMongo:
		return required("PRICING_MONGO", c.Mongo)
	case StorageMemory:
	default:
		return fmt.Errorf("unknown PRICING_STORAGE %q", c.Storage)
	}
	return nil
}

func (c *Config) CacheEnabled() bool  { return c.Cache.URL != "" }
func (c *Config) KafkaEnabled() bool  { return c.Kafka.URL != "" }
func (c *Config) RabbitEnabled() bool { return c.Rabbit.URL != "" }
