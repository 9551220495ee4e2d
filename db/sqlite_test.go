package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectCreatesFileAndTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "ledger.db")

	gdb, err := Connect(path, Options{})
	require.NoError(t, err)
	defer Close(gdb)

	_, err = os.Stat(path)
	assert.NoError(t, err)
	for _, table := range []string{"runs", "file_outcomes", "offenses"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	gdb, err := Connect(filepath.Join(t.TempDir(), "ledger.db"), Options{})
	require.NoError(t, err)
	defer Close(gdb)

	assert.NoError(t, Migrate(gdb))
}

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"http://localhost:8080":       true,
		"https://db.example.com":      true,
		"libsql://rubric.turso.io":    true,
		"ledger.db":                   false,
		"/var/lib/rubric/ledger.db":   false,
		"file:ledger.db?cache=shared": false,
	}
	for dsn, want := range tests {
		assert.Equal(t, want, IsURL(dsn), dsn)
	}
}
