package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default("/repo")
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "B", cfg.Budget.DefaultTier)
	assert.Equal(t, 3000, cfg.Budget.TierBBudget)
	assert.Equal(t, ".rup/symbols.jsonl", cfg.Index.Path)
}

func TestLoadWithoutConfigFileReturnsDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "B", cfg.Budget.DefaultTier)
	assert.Equal(t, filepath.Base(root), cfg.Project.Name)
}

func TestLoadParsesKDLOverrides(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".rup"), 0o755))
	kdl := `
project {
    name "widget"
}
budget {
    default_tier "C"
    tier_c {
        budget 9000
        overall_limit 300
        per_query_cap 16
    }
}
backup {
    stale_lock_seconds 120
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".rup", "rup.kdl"), []byte(kdl), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "widget", cfg.Project.Name)
	assert.Equal(t, "C", cfg.Budget.DefaultTier)
	assert.Equal(t, 9000, cfg.Budget.TierCBudget)
	assert.Equal(t, 300, cfg.Budget.TierCOverallLimit)
	assert.Equal(t, 120, cfg.Backup.StaleLockSeconds)
	// Unset sections keep their defaults.
	assert.Equal(t, ".rup/symbols.jsonl", cfg.Index.Path)
}

func TestLoadRejectsInvalidTier(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".rup"), 0o755))
	kdl := `budget { default_tier "Z" }`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".rup", "rup.kdl"), []byte(kdl), 0o644))

	_, err := Load(root)
	require.Error(t, err)
}

func TestMergeOverridesNonZeroFieldsOnly(t *testing.T) {
	base := Default("/repo")
	override := &Config{
		Budget: Budget{DefaultTier: "A"},
		Backup: Backup{StaleLockSeconds: 30},
	}
	merged := Merge(base, override)

	assert.Equal(t, "A", merged.Budget.DefaultTier)
	assert.Equal(t, "cl100k_base", merged.Budget.DefaultEncoding) // unset, kept from base
	assert.Equal(t, 30, merged.Backup.StaleLockSeconds)
	assert.Equal(t, ".rup/backups", merged.Backup.Dir) // unset, kept from base
}

func TestValidateRejectsEmptyProjectRoot(t *testing.T) {
	cfg := Default("/repo")
	cfg.Project.Root = ""
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsNonPositiveLockTimeouts(t *testing.T) {
	cfg := Default("/repo")
	cfg.Backup.RegenLockTimeoutS = 0
	require.Error(t, Validate(cfg))
}
