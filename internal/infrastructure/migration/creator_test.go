package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add store codes", "add_store_codes"},
		{"Add-Store-Codes", "add_store_codes"},
		{"ADD__STORE__CODES", "add_store_codes"},
		{"refund gaps 2", "refund_gaps_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_init.up.sql"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_init.down.sql"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_tills.up.sql"), nil, 0o644))

	mf, err := CreateMigration(dir, "Add store codes", "")
	require.NoError(t, err)

	assert.Equal(t, "000008", mf.Version)
	assert.Equal(t, filepath.Join(dir, "000008_add_store_codes.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000008_add_store_codes.down.sql"), mf.DownPath)

	content, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- add store codes")
	assert.FileExists(t, mf.DownPath)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")

	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_sales.up.sql", "000002_sales.down.sql",
		"000001_catalog.up.sql", "000001_catalog.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	names, err := ListMigrations(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{"000001_catalog", "000002_sales"}, names)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "missing"))

	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestNextVersion_EmptyDirectory(t *testing.T) {
	v, err := NextVersion(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)
}
