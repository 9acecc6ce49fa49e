package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "CATALOGKEEPER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Storage backend selectors.
const (
	StorageBackendFile   = "file"
	StorageBackendRedis  = "redis"
	StorageBackendMemory = "memory"
)

// Environment variable names used by tests and tooling.
const (
	EnvAppEnv         = "CATALOGKEEPER_APP_ENV"
	EnvLogLevel       = "CATALOGKEEPER_LOG_LEVEL"
	EnvGatewayBaseURL = "CATALOGKEEPER_GATEWAY_BASE_URL"
	EnvStorageBackend = "CATALOGKEEPER_STORAGE_BACKEND"
	EnvStorageDir     = "CATALOGKEEPER_STORAGE_DIR"
	EnvRedisURL       = "CATALOGKEEPER_REDIS_URL"
)

type Config struct {
	App      AppConfig
	Gateway  GatewayConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Password PasswordConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.ensureDir(); err != nil {
		return nil, err
	}
	if cfg.Storage.Backend == StorageBackendRedis && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("redis storage backend requires %s", EnvRedisURL)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CATALOGKEEPER_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"CATALOGKEEPER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CATALOGKEEPER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type GatewayConfig struct {
	BaseURL string        `envconfig:"CATALOGKEEPER_GATEWAY_BASE_URL" default:"https://dummyjson.com"`
	Timeout time.Duration `envconfig:"CATALOGKEEPER_GATEWAY_TIMEOUT" default:"10s"`
}

type StorageConfig struct {
	Backend string `envconfig:"CATALOGKEEPER_STORAGE_BACKEND" default:"file"`
	Dir     string `envconfig:"CATALOGKEEPER_STORAGE_DIR"`
}

// ensureDir resolves the default state directory under the user home when no
// explicit directory was configured.
func (s *StorageConfig) ensureDir() error {
	switch s.Backend {
	case StorageBackendFile, StorageBackendRedis, StorageBackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
	if s.Dir != "" || s.Backend != StorageBackendFile {
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home dir: %w", err)
	}
	s.Dir = filepath.Join(home, ".catalogkeeper")
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"CATALOGKEEPER_REDIS_URL"`
	Address      string        `envconfig:"CATALOGKEEPER_REDIS_ADDR"`
	Password     string        `envconfig:"CATALOGKEEPER_REDIS_PASSWORD"`
	DB           int           `envconfig:"CATALOGKEEPER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CATALOGKEEPER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CATALOGKEEPER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CATALOGKEEPER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CATALOGKEEPER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CATALOGKEEPER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CATALOGKEEPER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CATALOGKEEPER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CATALOGKEEPER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CATALOGKEEPER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CATALOGKEEPER_ARGON_KEY_LEN" default:"32"`
}
