package migrations

import (
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(files, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file %s", name)
		}
	}

	assert.Equal(t, ups, downs)
}

func TestSourceWalksVersionsInOrder(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	body, _, err := src.ReadUp(first)
	require.NoError(t, err)
	defer body.Close()

	sql, err := io.ReadAll(body)
	require.NoError(t, err)
	for _, table := range []string{"users", "stores", "products", "carts", "cart_items", "addresses", "refresh_tokens"} {
		assert.Contains(t, string(sql), "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
}

func TestUpRejectsEmptyDSN(t *testing.T) {
	err := Up("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestDownRejectsInvalidSteps(t *testing.T) {
	err := Down("postgres://localhost/db", 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
