package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateFromTOMLOverlaysProvidedFields(t *testing.T) {
	base := Default("/repo")
	data := []byte(`
project_name = "legacy-app"
default_tier = "A"
stale_lock_seconds = 90
`)

	cfg, err := MigrateFromTOML(data, base)
	require.NoError(t, err)
	assert.Equal(t, "legacy-app", cfg.Project.Name)
	assert.Equal(t, "A", cfg.Budget.DefaultTier)
	assert.Equal(t, 90, cfg.Backup.StaleLockSeconds)
	// Untouched fields keep base's values.
	assert.Equal(t, "cl100k_base", cfg.Budget.DefaultEncoding)
}

func TestExportToTOMLRoundTrips(t *testing.T) {
	base := Default("/repo")
	base.Project.Name = "roundtrip"
	base.Budget.DefaultTier = "C"

	data, err := ExportToTOML(base)
	require.NoError(t, err)

	cfg, err := MigrateFromTOML(data, Default("/repo"))
	require.NoError(t, err)
	assert.Equal(t, "roundtrip", cfg.Project.Name)
	assert.Equal(t, "C", cfg.Budget.DefaultTier)
}

func TestMigrateFromTOMLRejectsMalformedInput(t *testing.T) {
	_, err := MigrateFromTOML([]byte("not = [valid toml"), Default("/repo"))
	require.Error(t, err)
}
