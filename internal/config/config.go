// Package config provides runtime configuration values for the service and
// its clients.
package config

import (
	"errors"
	"io/fs"
	"net"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DotEnvFile is read from the working directory before the environment is
// processed. Variables already set in the environment win.
const DotEnvFile = ".env"

// Config holds configuration knobs for the API service, the store backends
// and the clients.
type Config struct {
	Port            string        `envconfig:"PORT" default:"5001"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`

	StoreBackend    string `envconfig:"STORE_BACKEND" default:"mongo"`
	MongoURI        string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase   string `envconfig:"MONGO_DATABASE" default:"nexus"`
	MongoCollection string `envconfig:"MONGO_COLLECTION" default:"products"`
	RedisURL        string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	RedisPrefix     string `envconfig:"REDIS_PREFIX" default:"nexus:products"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	TracingExporter    string   `envconfig:"TRACING_EXPORTER"`
	OTLPEndpoint       string   `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`

	APIURL            string        `envconfig:"API_URL" default:"http://localhost:5001"`
	DashboardPort     string        `envconfig:"DASHBOARD_PORT" default:"3000"`
	ClientTimeout     time.Duration `envconfig:"CLIENT_TIMEOUT" default:"10s"`
	ImportConcurrency int           `envconfig:"IMPORT_CONCURRENCY" default:"8"`
}

// HTTPAddr is the API listen address.
func (c Config) HTTPAddr() string { return net.JoinHostPort("", c.Port) }

// DashboardAddr is the dashboard listen address.
func (c Config) DashboardAddr() string { return net.JoinHostPort("", c.DashboardPort) }

// Load collects configuration from DotEnvFile and the environment with
// defaults. A missing DotEnvFile is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, err
	}
	if c.ImportConcurrency <= 0 {
		c.ImportConcurrency = 1
	}
	return c, nil
}
