package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egovportal/internal/pkg/logger"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "token", "T"))
	require.NoError(t, s.Set(ctx, "user", `{"id":1}`))

	v, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "T", v)

	require.NoError(t, s.Set(ctx, "token", "T2"))
	v, _ = s.Get(ctx, "token")
	assert.Equal(t, "T2", v)

	require.NoError(t, s.Delete(ctx, "token"))
	require.NoError(t, s.Delete(ctx, "token"))
	_, err = s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)

	v, err = s.Get(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, v)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	assert.Equal(t, 1, s.Len())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	s1, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, "token", "abc"))

	s2, err := NewFileStore(path)
	require.NoError(t, err)
	v, err := s2.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestFileStore_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	ctx := context.Background()

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Get(ctx, "token")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	// Escritas recuperam o arquivo.
	require.NoError(t, s.Set(ctx, "token", "fresh"))
	v, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestOpen(t *testing.T) {
	s, err := Open(Options{Backend: BackendMemory}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(Options{Backend: BackendFile, Path: filepath.Join(t.TempDir(), "s.json")}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(Options{Backend: "etcd"}, logger.Nop())
	assert.Error(t, err)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	r := &RedisStore{prefix: "egov:kiosk-3:"}
	assert.Equal(t, "egov:kiosk-3:token", r.key("token"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	raw, err := migrations.ReadFile("migrations/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "-- +goose Up")
	assert.Contains(t, string(raw), "egov_session_storage")
}
