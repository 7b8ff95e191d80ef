package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"egovportal/internal/pkg/logger"
)

// RedisStore guarda as chaves da sessão no Redis, sob um prefixo por terminal.
// Permite que terminais de atendimento compartilhem a sessão de um guichê.
type RedisStore struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
	logger  logger.Logger
}

// NewRedisStore conecta ao Redis em addr e valida a conexão com PING.
func NewRedisStore(addr, prefix string, timeout time.Duration, log logger.Logger) (*RedisStore, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr, // e.g. "localhost:6379"
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("storage: não foi possível conectar ao Redis em %s: %w", addr, err)
	}
	log.Info("Armazenamento de sessão Redis conectado.", map[string]interface{}{"addr": addr, "prefix": prefix})

	return &RedisStore{rdb: rdb, prefix: prefix, timeout: timeout, logger: log}, nil
}

func (r *RedisStore) key(k string) string { return r.prefix + k }

// Get recupera o valor associado a uma chave.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	val, err := r.rdb.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		r.logger.Error("Falha ao ler chave no Redis.", err)
		return "", err
	}
	return val, nil
}

// Set grava a chave sem expiração: a sessão só termina por logout ou 401.
func (r *RedisStore) Set(ctx context.Context, key string, value string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.rdb.Set(ctx, r.key(key), value, 0).Err()
}

// Delete remove uma chave; chave ausente não é erro.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.rdb.Del(ctx, r.key(key)).Err()
}

func (r *RedisStore) Close() error { return r.rdb.Close() }
