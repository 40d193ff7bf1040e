package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, []byte("k"), []byte("v")))
	require.NoError(t, s.Close())

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_ExtraPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithSQLitePragmas("PRAGMA cache_size = -4000"))
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.verifyPragma("cache_size", "-4000"))
}

func TestOpen_BadPragmaFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	_, err := Open(path, WithSQLitePragmas("PRAGMA nope nope"))
	assert.Error(t, err)
}

func TestMigrateToV1_RebuildsRowidTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE kv (key BLOB PRIMARY KEY NOT NULL, value BLOB NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO kv (key, value) VALUES (x'02', x'bb'), (x'01', x'aa')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var ddl string
	require.NoError(t, s.db.QueryRow(`SELECT sql FROM sqlite_master WHERE name = 'kv'`).Scan(&ddl))
	assert.Contains(t, ddl, "WITHOUT ROWID")

	got, err := Collect(s.Range(context.Background(), []byte{0x00}, []byte{0xff}))
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Key: []byte{0x01}, Value: []byte{0xaa}},
		{Key: []byte{0x02}, Value: []byte{0xbb}},
	}, got)
}

func TestSQLite_Count(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Put(ctx, []byte("a"), []byte("1")))
	require.NoError(t, s.Put(ctx, []byte("a"), []byte("2")))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_NilLowerBound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, []byte{0x00}, []byte("zero")))

	got, err := Collect(s.Range(ctx, nil, []byte{0xff}))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
