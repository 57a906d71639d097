package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes "30s" style values, which plain time.Duration cannot.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Payment  PaymentConfig  `yaml:"payment"`
	Email    EmailConfig    `yaml:"email"`
	Auth     AuthConfig     `yaml:"auth"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port"`
	RequestTimeout  Duration      `yaml:"request_timeout"`
	ShutdownTimeout Duration      `yaml:"shutdown_timeout"`
}

type MongoConfig struct {
	URI                    string   `yaml:"uri"`
	Database               string   `yaml:"database"`
	ConnectTimeout         Duration `yaml:"connect_timeout"`
	ServerSelectionTimeout Duration `yaml:"server_selection_timeout"`
	MaxPoolSize            uint64   `yaml:"max_pool_size"`
	MinPoolSize            uint64   `yaml:"min_pool_size"`
}

type PostgresConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	DBName        string `yaml:"dbname"`
	MigrationsDir string `yaml:"migrations_dir"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type PaymentConfig struct {
	APIBase            string        `yaml:"api_base"`
	SessionsPath       string        `yaml:"sessions_path"`
	OAuthURL           string        `yaml:"oauth_url"`
	ClientID           string        `yaml:"client_id"`
	ClientSecret       string        `yaml:"client_secret"`
	Scope              string        `yaml:"scope"`
	StoreID            string        `yaml:"store_id"`
	WebhookPublicKey   string        `yaml:"webhook_public_key"`
	SuccessURLTemplate string        `yaml:"success_url_template"`
	CancelURL          string        `yaml:"cancel_url"`
	OrderTimeout       Duration      `yaml:"order_timeout"`
	SweepInterval      Duration      `yaml:"sweep_interval"`
}

type EmailConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
}

type AuthConfig struct {
	JWTSecret string     `yaml:"jwt_secret"`
	Users     []UserCred `yaml:"users"`
}

type UserCred struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Load reads the YAML file, layers env-var overrides for secrets on top and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Secrets always win from the environment so the YAML file can be committed.
func (c *Config) applyEnvOverrides() {
	overrideString(&c.Mongo.URI, "MONGO_URI")
	overrideString(&c.Postgres.Password, "POSTGRES_PASSWORD")
	overrideString(&c.Redis.Password, "REDIS_PASSWORD")
	overrideString(&c.Payment.ClientID, "TEYA_CLIENT_ID")
	overrideString(&c.Payment.ClientSecret, "TEYA_CLIENT_SECRET")
	overrideString(&c.Payment.StoreID, "TEYA_STORE_ID")
	overrideString(&c.Payment.WebhookPublicKey, "TEYA_WEBHOOK_PUBLIC_KEY")
	overrideString(&c.Email.APIKey, "EMAIL_API_KEY")
	overrideString(&c.Auth.JWTSecret, "JWT_SECRET")
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == "" {
		c.HTTP.Port = "8080"
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = Duration(30 * time.Second)
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = Duration(10 * time.Second)
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "bakari"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "order-events"
	}
	if c.Payment.OrderTimeout <= 0 {
		c.Payment.OrderTimeout = Duration(30 * time.Minute)
	}
	if c.Payment.SweepInterval <= 0 {
		c.Payment.SweepInterval = Duration(5 * time.Minute)
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/prices.json"
	}
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required")
	}
	if c.Payment.APIBase == "" || c.Payment.OAuthURL == "" {
		return fmt.Errorf("payment.api_base and payment.oauth_url are required")
	}
	if c.Payment.ClientID == "" || c.Payment.ClientSecret == "" {
		return fmt.Errorf("payment provider credentials are required")
	}
	if c.Payment.SuccessURLTemplate == "" || c.Payment.CancelURL == "" {
		return fmt.Errorf("payment.success_url_template and payment.cancel_url are required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	return nil
}

func overrideString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}
