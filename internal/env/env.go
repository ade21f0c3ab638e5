package env

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Cfg struct {
	Port    int    `envconfig:"PORT" default:"8080"`
	Storage string `envconfig:"STORAGE" default:"postgres"`

	DBHost       string `envconfig:"DB_HOST" default:"localhost"`
	DBUser       string `envconfig:"DB_USER"`
	DBPass       string `envconfig:"DB_PASSWORD"`
	DBName       string `envconfig:"DB_NAME"`
	DBPort       int    `envconfig:"DB_PORT" default:"5432"`
	DBMigrate    bool   `envconfig:"DB_MIGRATE" default:"true"`
	DBMaxRetries uint   `envconfig:"DB_MAX_RETRIES" default:"5"`

	RedisHost string `envconfig:"REDIS_HOST"`
	RedisPass string `envconfig:"REDIS_PASSWORD"`
	RedisPort int    `envconfig:"REDIS_PORT" default:"6379"`

	MQUser         string `envconfig:"MQ_USER" default:"guest"`
	MQPass         string `envconfig:"MQ_PASSWORD" default:"guest"`
	MQHost         string `envconfig:"MQ_HOST"`
	MQPort         int    `envconfig:"MQ_PORT" default:"5672"`
	MQConcurrency  int    `envconfig:"MQ_CONCURRENCY" default:"5"`
	MQMaxReconnect int    `envconfig:"MQ_MAX_RECONNECT" default:"5"`

	Currency string `envconfig:"CURRENCY" default:"EUR"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

// GetEnvCfg reads the APP_ prefixed environment variables.
func GetEnvCfg() (Cfg, error) {
	var cfg Cfg

	if err := envconfig.Process("APP", &cfg); err != nil {
		return Cfg{}, errors.Wrap(err, "parse environment variables")
	}

	if cfg.Storage != StoragePostgres && cfg.Storage != StorageMemory {
		return Cfg{}, errors.Errorf("unsupported storage %q, use %s or %s", cfg.Storage, StoragePostgres, StorageMemory)
	}

	return cfg, nil
}

func (c Cfg) CacheEnabled() bool {
	return c.RedisHost != ""
}

func (c Cfg) MQEnabled() bool {
	return c.MQHost != ""
}
