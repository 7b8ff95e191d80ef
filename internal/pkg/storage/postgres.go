package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"egovportal/internal/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	selectSQL = `SELECT value FROM egov_session_storage WHERE namespace = $1 AND key = $2`
	upsertSQL = `INSERT INTO egov_session_storage (namespace, key, value, updated_at)
                 VALUES ($1, $2, $3, now())
                 ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	deleteSQL = `DELETE FROM egov_session_storage WHERE namespace = $1 AND key = $2`
)

// PostgresStore guarda as chaves numa tabela do PostgreSQL, separadas por namespace.
type PostgresStore struct {
	DB        *sql.DB
	DBTimeout time.Duration
	namespace string
	logger    logger.Logger
}

// OpenPostgres abre e configura o pool de conexões com o PostgreSQL.
func OpenPostgres(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir a conexão com o DB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao realizar o ping inicial no DB: %w", err)
	}

	// Um cliente usa poucas conexões: no máximo uma operação por vez na sessão.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return db, nil
}

// Migrate aplica as migrações embutidas da tabela de sessão.
func Migrate(db *sql.DB) error {
	return RunMigrations(db, "up")
}

// RunMigrations executa um comando do goose (up, down, status, version...)
// sobre as migrações embutidas.
func RunMigrations(db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose: dialeto: %w", err)
	}
	if err := goose.Run(command, db, "migrations", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// NewPostgresStore conecta, migra e devolve o PostgresStore.
func NewPostgresStore(dsn, namespace string, timeout time.Duration, log logger.Logger) (*PostgresStore, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if namespace == "" {
		namespace = "default"
	}
	db, err := OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Armazenamento de sessão PostgreSQL pronto.", map[string]interface{}{"namespace": namespace})
	return &PostgresStore{DB: db, DBTimeout: timeout, namespace: namespace, logger: log}, nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, p.DBTimeout)
	defer cancel()

	var value string
	err := p.DB.QueryRowContext(ctxTimeout, selectSQL, p.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		p.logger.Error("Falha ao ler chave da sessão no DB.", err)
		return "", err
	}
	return value, nil
}

func (p *PostgresStore) Set(ctx context.Context, key string, value string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, p.DBTimeout)
	defer cancel()

	if _, err := p.DB.ExecContext(ctxTimeout, upsertSQL, p.namespace, key, value); err != nil {
		p.logger.Error("Falha ao gravar chave da sessão no DB.", err)
		return err
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, p.DBTimeout)
	defer cancel()

	_, err := p.DB.ExecContext(ctxTimeout, deleteSQL, p.namespace, key)
	return err
}

func (p *PostgresStore) Close() error { return p.DB.Close() }
