package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config of the order service. Storage selects where orders live, the
// restaurant catalog is always read from Postgres.
type Config struct {
	ServiceName string    `mapstructure:"service_name"`
	Env         string    `mapstructure:"env"`
	Port        string    `mapstructure:"port"`
	LogLevel    string    `mapstructure:"log_level"`
	Storage     string    `mapstructure:"storage"`
	Database    Database  `mapstructure:"database"`
	AWS         AWS       `mapstructure:"aws"`
	Redis       Redis     `mapstructure:"redis"`
	Outbox      Outbox    `mapstructure:"outbox"`
	SagaLog     SagaLog   `mapstructure:"saga_log"`
	Telemetry   Telemetry `mapstructure:"telemetry"`
}

type Database struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// AWS configures the SNS topic events are relayed to and the SQS queue saga
// replies are read from. VisibilityTimeout is in seconds.
type AWS struct {
	Region            string `mapstructure:"region"`
	SNSTopicArn       string `mapstructure:"sns_topic_arn"`
	SQSQueueURL       string `mapstructure:"sqs_queue_url"`
	Workers           int32  `mapstructure:"workers"`
	Readers           int32  `mapstructure:"readers"`
	VisibilityTimeout int32  `mapstructure:"visibility_timeout"`
}

// Redis caches restaurant names and product catalogs. An empty Addr
// disables the cache.
type Redis struct {
	Addr          string        `mapstructure:"addr"`
	RestaurantTTL time.Duration `mapstructure:"restaurant_ttl"`
}

// Outbox tunes the relay that publishes events saved with orders
type Outbox struct {
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

// SagaLog is the sqlite audit log. An empty Path disables it.
type SagaLog struct {
	Path string `mapstructure:"path"`
}

type Telemetry struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// ReadConfig loads <ENVIRONMENT>.json from this package's directory, with
// ORDER_ prefixed environment variables taking precedence
func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("unable to get current file")
	}

	v := viper.New()
	v.SetConfigName(getConfigName())
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Dir(filename))
	v.AddConfigPath(".")

	v.SetEnvPrefix("ORDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func getConfigName() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "local"
	}
	return env
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "order-service")
	v.SetDefault("env", "local")
	v.SetDefault("port", "8181")
	v.SetDefault("log_level", "info")
	v.SetDefault("storage", StoragePostgres)

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.database", "food_ordering")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.sns_topic_arn", "")
	v.SetDefault("aws.sqs_queue_url", "")
	v.SetDefault("aws.workers", 10)
	v.SetDefault("aws.readers", 1)
	v.SetDefault("aws.visibility_timeout", 30)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.restaurant_ttl", "30s")

	v.SetDefault("outbox.interval", "1s")
	v.SetDefault("outbox.batch_size", 10)

	v.SetDefault("saga_log.path", "")

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.otlp_endpoint", "")
}

// Validate rejects combinations the service cannot run with
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		return errors.Errorf("unknown storage %q", c.Storage)
	}

	if c.AWS.SNSTopicArn == "" {
		return errors.New("aws.sns_topic_arn is required")
	}

	if c.AWS.SQSQueueURL == "" {
		return errors.New("aws.sqs_queue_url is required")
	}

	return nil
}

// GetDatabaseURL constructs database URL from config
func (c *Config) GetDatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
