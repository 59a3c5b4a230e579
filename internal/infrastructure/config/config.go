package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// SecretKey signs bearer tokens. The default is for local development
	// only.
	SecretKey          string `env:"ONCOSCAN_SECRET_KEY, default=CHANGE_THIS_TO_A_LONG_RANDOM_SECRET_FOR_DEVELOPMENT"`
	TokenExpireMinutes int    `env:"ONCOSCAN_TOKEN_EXPIRE_MINUTES, default=1440"`

	UploadDir string `env:"ONCOSCAN_UPLOAD_DIR, default=uploads"`
	AuditFile string `env:"ONCOSCAN_AUDIT_FILE, default=audit_log.csv"`

	Model ModelConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type ModelConfig struct {
	// Backend selects the prediction strategy: "simulate" or "artifact".
	Backend string `env:"ONCOSCAN_MODEL_BACKEND, default=simulate"`
	Path    string `env:"ONCOSCAN_MODEL_PATH"`
	Device  string `env:"ONCOSCAN_MODEL_DEVICE, default=cpu"`
	// SimulateDelay fixes the simulator latency; zero means random.
	SimulateDelay time.Duration `env:"ONCOSCAN_SIMULATE_DELAY, default=0s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=oncoscan"`
}

type RedisConfig struct {
	// Addr empty disables the scan result cache.
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// TokenTTL returns the configured token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenExpireMinutes) * time.Minute
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
