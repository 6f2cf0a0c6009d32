package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"add invoices table", "add_invoices_table"},
		{"Add-Payment-Allocations", "add_payment_allocations"},
		{"already_snake_case", "already_snake_case"},
		{"  spaced   out  ", "spaced_out"},
		{"special!@#$chars", "specialchars"},
		{"trailing-", "trailing"},
		{"", ""},
	} {
		assert.Equal(t, tc.want, sanitizeName(tc.in), tc.in)
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	mf, err := CreateMigration(dir, "Add Batch Payments", "batch payment tables")
	require.NoError(t, err)

	assert.Len(t, mf.Version, 14)
	assert.Contains(t, filepath.Base(mf.UpPath), "add_batch_payments.up.sql")
	assert.Contains(t, filepath.Base(mf.DownPath), "add_batch_payments.down.sql")

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Add Batch Payments")
	assert.Contains(t, string(up), "batch payment tables")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigrationMakesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{
		"000001_init.up.sql",
		"000001_init.down.sql",
		"000002_add_suppliers.up.sql",
		"000002_add_suppliers.down.sql",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- sql"), 0o644))
	}

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init", "000002_add_suppliers"}, migrations)
}

func TestListMigrationsMissingDirectory(t *testing.T) {
	migrations, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestListMigrationsIgnoresDownOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000003_x.down.sql"), nil, 0o644))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	for _, m := range migrations {
		assert.False(t, strings.Contains(m, "000003"))
	}
	assert.Empty(t, migrations)
}
