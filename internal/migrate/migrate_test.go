package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/ecocycle/migrations"
)

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, n := range names {
		b, err := fs.ReadFile(migrations.FS, n)
		require.NoError(t, err)
		body := string(b)
		require.Containsf(t, body, "-- +goose Up", "%s has no Up section", n)
		require.Containsf(t, body, "-- +goose Down", "%s has no Down section", n)
	}
}

func TestInitSchemaTables(t *testing.T) {
	b, err := fs.ReadFile(migrations.FS, "00001_init.sql")
	require.NoError(t, err)
	for _, table := range []string{"users", "products", "bids", "cart_items", "transactions", "reviews"} {
		require.Truef(t, strings.Contains(string(b), "CREATE TABLE "+table+" ("), "missing table %s", table)
	}
}
