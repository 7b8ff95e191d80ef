package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"egovportal/internal/pkg/storage"
)

// Config armazena as configurações do portal (egovctl) e do backend de
// desenvolvimento (egovmock). Todos os campos vêm de variáveis EGOV_*.
type Config struct {
	// Geral
	LogLevel string `env:"EGOV_LOG_LEVEL" envDefault:"info"`

	// Cliente HTTP
	APIBaseURL     string `env:"EGOV_API_BASE_URL" envDefault:"http://localhost:5000/api"`
	HTTPTimeoutSec int    `env:"EGOV_HTTP_TIMEOUT_SEC" envDefault:"0"` // 0 mantém o padrão do transporte

	// Armazenamento da sessão
	Storage        string `env:"EGOV_STORAGE" envDefault:"file"`
	StoragePath    string `env:"EGOV_STORAGE_PATH"` // vazio usa storage.DefaultPath()
	StorageTimeout int    `env:"EGOV_STORAGE_TIMEOUT_SEC" envDefault:"5"`
	RedisAddr      string `env:"EGOV_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix    string `env:"EGOV_REDIS_PREFIX" envDefault:"egov:"`
	DatabaseURL    string `env:"EGOV_DATABASE_URL"`
	Namespace      string `env:"EGOV_SESSION_NAMESPACE"` // vazio usa o nome do usuário do sistema

	// Backend de desenvolvimento
	MockPort        int     `env:"EGOV_MOCK_PORT" envDefault:"5000"`
	JWTSecret       string  `env:"EGOV_JWT_SECRET" envDefault:"egovportal-dev-secret"`
	JWTExpiryMin    int     `env:"EGOV_JWT_EXPIRY_MIN" envDefault:"60"`
	RateLimitPerSec float64 `env:"EGOV_RATE_LIMIT_PER_SEC" envDefault:"20"`
	RateLimitBurst  int     `env:"EGOV_RATE_LIMIT_BURST" envDefault:"40"`
	SeedMockBackend bool    `env:"EGOV_MOCK_SEED" envDefault:"true"`
}

// Load lê um .env opcional no diretório atual e depois o ambiente.
// Variáveis já definidas no ambiente têm precedência sobre o .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("lendo .env: %w", err)
	}
	return Parse()
}

// Parse lê apenas o ambiente e valida o resultado.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.Storage {
	case storage.BackendFile, storage.BackendMemory:
	case storage.BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("EGOV_REDIS_ADDR must be set when EGOV_STORAGE=redis")
		}
	case storage.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("EGOV_DATABASE_URL must be set when EGOV_STORAGE=postgres")
		}
	default:
		return nil, fmt.Errorf("EGOV_STORAGE must be one of file, memory, redis, postgres; got %q", cfg.Storage)
	}
	if cfg.HTTPTimeoutSec < 0 {
		return nil, fmt.Errorf("EGOV_HTTP_TIMEOUT_SEC cannot be negative")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = defaultNamespace()
	}
	return cfg, nil
}

// HTTPTimeout devolve o timeout do cliente HTTP (0 = sem timeout próprio).
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// TokenExpiry devolve a validade dos tokens emitidos pelo egovmock.
func (c Config) TokenExpiry() time.Duration {
	return time.Duration(c.JWTExpiryMin) * time.Minute
}

// MockAddr devolve o endereço de escuta do egovmock.
func (c Config) MockAddr() string {
	return fmt.Sprintf(":%d", c.MockPort)
}

// StorageOptions monta as opções do armazenamento da sessão.
func (c Config) StorageOptions() storage.Options {
	path := c.StoragePath
	if path == "" && c.Storage == storage.BackendFile {
		path = storage.DefaultPath()
	}
	return storage.Options{
		Backend:     c.Storage,
		Path:        path,
		RedisAddr:   c.RedisAddr,
		RedisPrefix: c.RedisPrefix,
		DatabaseURL: c.DatabaseURL,
		Namespace:   c.Namespace,
		Timeout:     time.Duration(c.StorageTimeout) * time.Second,
	}
}

func defaultNamespace() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "default"
}
