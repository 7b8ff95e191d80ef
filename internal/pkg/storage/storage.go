// Package storage é o armazenamento persistente da sessão do portal, o
// equivalente ao localStorage do navegador: chaves string, valores string,
// leitura e escrita síncronas.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"egovportal/internal/pkg/logger"
)

// ErrNotFound é retornado quando a chave não existe no armazenamento.
var ErrNotFound = errors.New("storage: chave não encontrada")

// Store define o contrato de qualquer backend de armazenamento da sessão.
// Cada chamada só retorna depois que a escrita estiver durável no backend.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backends suportados.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options reúne os parâmetros de todos os backends; cada um usa apenas os seus.
type Options struct {
	Backend     string
	Path        string        // file
	RedisAddr   string        // redis
	RedisPrefix string        // redis
	DatabaseURL string        // postgres
	Namespace   string        // redis e postgres: separa terminais que compartilham o backend
	Timeout     time.Duration // redis e postgres
}

// Open cria o Store descrito por opts.
func Open(opts Options, log logger.Logger) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.Path)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(opts.RedisAddr, opts.RedisPrefix+opts.Namespace+":", opts.Timeout, log)
	case BackendPostgres:
		return NewPostgresStore(opts.DatabaseURL, opts.Namespace, opts.Timeout, log)
	}
	return nil, fmt.Errorf("storage: backend desconhecido %q", opts.Backend)
}
