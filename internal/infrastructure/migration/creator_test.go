package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopledger/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add refunds index", "add_refunds_index"},
		{"Add-Refunds-Index", "add_refunds_index"},
		{"ADD__REFUNDS", "add_refunds"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create widgets", "widgets table")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_widgets.up.sql"), first.UpPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- create_widgets (up)")
	assert.Contains(t, string(up), "-- widgets table")
	assert.FileExists(t, first.DownPath)

	second, err := CreateMigration(dir, "Add Widget Index", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "create_widgets", list[0].Name)
	assert.Equal(t, "add_widget_index", list[1].Name)
}

func TestListMigrations_MissingDir(t *testing.T) {
	list, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := migrations.FS.ReadDir(".")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		m := migrationFileRe.FindStringSubmatch(e.Name())
		require.NotNil(t, m, e.Name())
		if m[3] == "up" {
			ups[m[1]] = true
		} else {
			downs[m[1]] = true
		}
	}
	assert.Len(t, ups, 4)
	assert.Equal(t, ups, downs)
}
