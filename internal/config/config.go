package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/localrivet/configurator"
)

const (
	defaultDBHost         = "localhost"
	defaultDBPort         = 5432
	defaultDBName         = "vector_memory"
	defaultDBUser         = "aister"
	defaultServiceURL     = "http://127.0.0.1:8765"
	defaultChunkSize      = 500
	defaultSearchLimit    = 5
	defaultThreshold      = 0.5
	defaultModel          = "intfloat/e5-large-v2"
	defaultProvider       = "openai"
	defaultBaseURL        = "http://127.0.0.1:8080/v1"
	defaultServiceHost    = "127.0.0.1"
	defaultServicePort    = 8765
	defaultCacheSize      = 1024
	defaultCacheTTL       = time.Hour
	defaultBatchTimeout   = 120
	defaultQueryTimeout   = 30
	defaultBackendTimeout = 120
)

var defaultMemoryFiles = []string{"MEMORY.md", "IDENTITY.md", "USER.md"}

// Every leaf field carries an env tag: the env provider falls back to the
// bare field name otherwise. `env:"-"` marks file-only fields.
type Config struct {
	Database  DatabaseConfig  `json:"database"`
	Memory    MemoryConfig    `json:"memory"`
	Search    SearchConfig    `json:"search"`
	Embedding EmbeddingConfig `json:"embedding"`
	Service   ServiceConfig   `json:"service"`
	LogConfig LogConfig       `json:"log_config"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn" env:"VECTOR_MEMORY_DB_DSN"`
	Host     string `json:"host" env:"VECTOR_MEMORY_DB_HOST"`
	Port     int    `json:"port" env:"VECTOR_MEMORY_DB_PORT"`
	User     string `json:"user" env:"VECTOR_MEMORY_DB_USER"`
	Password string `json:"password" env:"VECTOR_MEMORY_DB_PASSWORD"`
	DBName   string `json:"dbname" env:"VECTOR_MEMORY_DB_NAME"`
	SSLMode  string `json:"sslmode" env:"VECTOR_MEMORY_DB_SSLMODE"`
}

type MemoryConfig struct {
	Dir       string   `json:"dir" env:"VECTOR_MEMORY_DIR"`
	Files     []string `json:"files" env:"VECTOR_MEMORY_FILES" validate:"required"`
	ChunkSize int      `json:"chunk_size" env:"VECTOR_MEMORY_CHUNK_SIZE" validate:"min:1"`
}

type SearchConfig struct {
	Limit     int     `json:"limit" env:"VECTOR_MEMORY_LIMIT" validate:"min:1"`
	Threshold float64 `json:"threshold" env:"VECTOR_MEMORY_THRESHOLD"`
}

// EmbeddingConfig is shared by the service (backend side) and the CLI tools
// (client side, ServiceURL and timeouts).
type EmbeddingConfig struct {
	ServiceURL           string          `json:"service_url" env:"EMBEDDING_SERVICE_URL" validate:"required"`
	BatchTimeoutSecond   int             `json:"batch_timeout_second" env:"EMBEDDING_BATCH_TIMEOUT_SECOND"`
	QueryTimeoutSecond   int             `json:"query_timeout_second" env:"EMBEDDING_QUERY_TIMEOUT_SECOND"`
	Model                string          `json:"model" env:"EMBEDDING_MODEL" validate:"required"`
	Dimension            int             `json:"dimension" env:"EMBEDDING_DIMENSION" validate:"min:0"`
	Backends             []BackendConfig `json:"backends" env:"-"`
	CacheSize            int             `json:"cache_size" env:"EMBEDDING_CACHE_SIZE"`
	CacheTTLSecond       int             `json:"cache_ttl_second" env:"-"`
	BackendTimeoutSecond int             `json:"backend_timeout_second" env:"EMBEDDING_BACKEND_TIMEOUT_SECOND"`

	// Environment only. CacheTTL is resolved from CacheTTLSecond when unset.
	CacheTTL time.Duration `json:"-" env:"EMBEDDING_CACHE_TTL"`
	Provider string        `json:"-" env:"EMBEDDING_PROVIDER"`
	BaseURL  string        `json:"-" env:"EMBEDDING_BASE_URL"`
	APIKey   string        `json:"-" env:"EMBEDDING_API_KEY"`
}

// BackendConfig selects an embedding provider. Data is passed to the
// provider factory as-is.
type BackendConfig struct {
	Provider string                 `json:"provider"`
	Model    string                 `json:"model"`
	Data     map[string]interface{} `json:"data"`
}

type ServiceConfig struct {
	Host string `json:"host" env:"EMBEDDING_HOST"`
	Port int    `json:"port" env:"EMBEDDING_PORT" validate:"min:1"`
}

// LogConfig mirrors logger.LogConfig with env bindings.
type LogConfig struct {
	File      string `json:"file" env:"LOG_FILE"`
	Level     string `json:"level" env:"LOG_LEVEL"`
	FileSize  uint64 `json:"file_size" env:"LOG_FILE_SIZE"`
	FileCount uint64 `json:"file_count" env:"LOG_FILE_COUNT"`
	KeepDays  uint32 `json:"keep_days" env:"LOG_KEEP_DAYS"`
	Console   bool   `json:"console" env:"LOG_CONSOLE"`
}

func (c *ServiceConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *EmbeddingConfig) BatchTimeout() time.Duration {
	return time.Duration(c.BatchTimeoutSecond) * time.Second
}

func (c *EmbeddingConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSecond) * time.Second
}

// Load builds the configuration from defaults, the optional json file at path
// and finally the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	loader := configurator.New(nil).
		WithProvider(configurator.NewJSONFileProvider(path)).
		WithProvider(configurator.NewEnvProvider("")).
		WithValidator(configurator.NewDefaultValidator())
	if err := loader.Load(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyBackendEnv(&cfg.Embedding)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Database: DatabaseConfig{
			Host:    defaultDBHost,
			Port:    defaultDBPort,
			User:    defaultDBUser,
			DBName:  defaultDBName,
			SSLMode: "disable",
		},
		Memory: MemoryConfig{
			Dir:       filepath.Join(home, ".openclaw", "workspace", "memory"),
			Files:     append([]string(nil), defaultMemoryFiles...),
			ChunkSize: defaultChunkSize,
		},
		Search: SearchConfig{
			Limit:     defaultSearchLimit,
			Threshold: defaultThreshold,
		},
		Embedding: EmbeddingConfig{
			ServiceURL:           defaultServiceURL,
			BatchTimeoutSecond:   defaultBatchTimeout,
			QueryTimeoutSecond:   defaultQueryTimeout,
			Model:                defaultModel,
			CacheSize:            defaultCacheSize,
			CacheTTLSecond:       int(defaultCacheTTL / time.Second),
			BackendTimeoutSecond: defaultBackendTimeout,
		},
		Service: ServiceConfig{
			Host: defaultServiceHost,
			Port: defaultServicePort,
		},
		LogConfig: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// applyBackendEnv turns EMBEDDING_PROVIDER / _BASE_URL / _API_KEY into a
// single backend. Backends declared in the config file are kept untouched
// unless EMBEDDING_PROVIDER is set.
func applyBackendEnv(c *EmbeddingConfig) {
	if len(c.Backends) > 0 && c.Provider == "" {
		return
	}
	provider := c.Provider
	if provider == "" {
		provider = defaultProvider
	}
	baseURL := c.BaseURL
	if baseURL == "" && provider == defaultProvider {
		baseURL = defaultBaseURL
	}
	data := map[string]interface{}{}
	if baseURL != "" {
		data["base_url"] = baseURL
	}
	if c.APIKey != "" {
		data["api_key"] = c.APIKey
	}
	c.Backends = []BackendConfig{{
		Provider: provider,
		Model:    c.Model,
		Data:     data,
	}}
}

// validate covers the cross-field rules the tag validator cannot express and
// fills derived defaults.
func (c *Config) validate() error {
	if c.Database.DSN == "" {
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port <= 0 {
			return fmt.Errorf("database.port must be positive")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database.dbname is required")
		}
	}
	for i := range c.Embedding.Backends {
		if strings.TrimSpace(c.Embedding.Backends[i].Provider) == "" {
			return fmt.Errorf("embedding.backends[%d].provider is required", i)
		}
		if c.Embedding.Backends[i].Model == "" {
			c.Embedding.Backends[i].Model = c.Embedding.Model
		}
	}
	if c.Embedding.CacheTTL < 0 {
		return fmt.Errorf("embedding cache ttl must not be negative")
	}
	if c.Embedding.CacheTTL == 0 {
		c.Embedding.CacheTTL = time.Duration(c.Embedding.CacheTTLSecond) * time.Second
	}
	if c.Embedding.BatchTimeoutSecond <= 0 {
		c.Embedding.BatchTimeoutSecond = defaultBatchTimeout
	}
	if c.Embedding.QueryTimeoutSecond <= 0 {
		c.Embedding.QueryTimeoutSecond = defaultQueryTimeout
	}
	if c.Embedding.BackendTimeoutSecond <= 0 {
		c.Embedding.BackendTimeoutSecond = defaultBackendTimeout
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	return nil
}
