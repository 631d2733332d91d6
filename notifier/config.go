package notifier

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the main configuration
type Config struct {
	Env      string         `yaml:"env"`
	Redis    RedisConfig    `yaml:"redis"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	Notifier NotifierConfig `yaml:"notifier"`
	Sources  SourcesConfig  `yaml:"sources"`
}

// RedisConfig represents the stream state store configuration
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MySQLConfig represents the MySQL configuration
type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

// AMQPConfig represents the config of the trigger queue
type AMQPConfig struct {
	Tag      string   `yaml:"tag"`
	Exchange string   `yaml:"exchange"`
	DSN      string   `yaml:"dsn"`
	TLS      bool     `yaml:"tls"`
	Topics   []string `yaml:"topics"`
}

// NotifierConfig represents the notification channel configuration
type NotifierConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// SourcesConfig holds the upstream data source locations
type SourcesConfig struct {
	PageURL      string        `yaml:"page_url"`
	CounterURL   string        `yaml:"counter_url"`
	DatastoreURL string        `yaml:"datastore_url"`
	DatasetID    string        `yaml:"dataset_id"`
	County       string        `yaml:"county"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
}

// LoadConfig reads the YAML file at path, expands ${VAR} references from the
// environment and validates that every required value is present. A missing
// required value is a startup failure, not a runtime one.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %v", err)
	}

	var c Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &c); err != nil {
		return Config{}, fmt.Errorf("config: %v", err)
	}

	if err := c.validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

func (c Config) validate() error {
	required := map[string]string{
		"redis.addr":            c.Redis.Addr,
		"mysql.dsn":             c.MySQL.DSN,
		"amqp.dsn":              c.AMQP.DSN,
		"amqp.exchange":         c.AMQP.Exchange,
		"notifier.webhook_url":  c.Notifier.WebhookURL,
		"sources.page_url":      c.Sources.PageURL,
		"sources.counter_url":   c.Sources.CounterURL,
		"sources.datastore_url": c.Sources.DatastoreURL,
		"sources.dataset_id":    c.Sources.DatasetID,
		"sources.county":        c.Sources.County,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("config: %s not set", name)
		}
	}
	return nil
}
