package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shindakun/urlshort/internal/login"
	"github.com/shindakun/urlshort/internal/models"
)

var _ login.Store = (*KV)(nil)

func setupKV(t *testing.T) *KV {
	t.Helper()

	db, err := InitDB(filepath.Join(t.TempDir(), "nested", "urlshort.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewKV(db)
}

func TestInitDBCreatesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urlshort.db")

	db, err := InitDB(path)
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	version, err := schemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].version, version)
}

func TestInitDBIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urlshort.db")

	db, err := InitDB(path)
	require.NoError(t, err)
	require.NoError(t, NewKV(db).Set(context.Background(), models.KeyToken, "T"))
	db.Close()

	db, err = InitDB(path)
	require.NoError(t, err)
	defer db.Close()

	e, err := NewKV(db).Get(context.Background(), models.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "T", e.Value)

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&applied))
	assert.Equal(t, len(migrations), applied)
}

func TestKVSetAndGet(t *testing.T) {
	kv := setupKV(t)
	ctx := context.Background()

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return fixed }

	require.NoError(t, kv.Set(ctx, models.KeyUsername, "Alice"))

	e, err := kv.Get(ctx, models.KeyUsername)
	require.NoError(t, err)
	assert.Equal(t, "Alice", e.Value)
	assert.True(t, e.UpdatedAt.Equal(fixed), "updated_at = %v", e.UpdatedAt)
}

func TestKVSetOverwrites(t *testing.T) {
	kv := setupKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, models.KeyToken, "first"))
	require.NoError(t, kv.Set(ctx, models.KeyToken, "second"))

	e, err := kv.Get(ctx, models.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "second", e.Value)

	var rows int
	require.NoError(t, kv.db.QueryRow("SELECT COUNT(*) FROM kv").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestKVSetRejectsEmptyKey(t *testing.T) {
	kv := setupKV(t)
	assert.Error(t, kv.Set(context.Background(), "", "v"))
}

func TestKVGetMissing(t *testing.T) {
	kv := setupKV(t)

	_, err := kv.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKVDelete(t *testing.T) {
	kv := setupKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, models.KeyToken, "T"))
	require.NoError(t, kv.Set(ctx, models.KeyUsername, "Alice"))
	require.NoError(t, kv.Set(ctx, "other", "kept"))

	require.NoError(t, kv.Delete(ctx, models.KeyToken, models.KeyUsername, "never-set"))

	for _, k := range []string{models.KeyToken, models.KeyUsername} {
		_, err := kv.Get(ctx, k)
		assert.ErrorIs(t, err, ErrNotFound, k)
	}

	e, err := kv.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "kept", e.Value)
}

func TestKVAsLoginStore(t *testing.T) {
	kv := setupKV(t)
	ctx := context.Background()

	var store login.Store = kv
	require.NoError(t, store.Set(ctx, models.KeyToken, "T"))

	e, err := kv.Get(ctx, models.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "T", e.Value)
}
