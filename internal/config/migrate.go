package config

import (
	"github.com/pelletier/go-toml/v2"

	rerrors "github.com/standardbeagle/rup/internal/errors"
)

// legacyTOML is the flat layout rup's predecessor tooling used before the
// KDL config was introduced. MigrateFromTOML and ExportToTOML translate
// between it and Config so an old config can be imported once and the TOML
// file discarded afterward. No rup subcommand calls them.
type legacyTOML struct {
	ProjectName     string `toml:"project_name"`
	DefaultTier     string `toml:"default_tier"`
	DefaultEncoding string `toml:"default_encoding"`
	IndexPath       string `toml:"index_path"`
	BackupDir       string `toml:"backup_dir"`
	StaleLockSecs   int    `toml:"stale_lock_seconds"`
}

// MigrateFromTOML parses legacy flat-TOML config bytes and overlays their
// values onto base, returning the merged Config. Fields absent from the TOML
// document are left at base's values.
func MigrateFromTOML(data []byte, base *Config) (*Config, error) {
	var legacy legacyTOML
	if err := toml.Unmarshal(data, &legacy); err != nil {
		return nil, rerrors.InvalidSpec("parse legacy toml config: %v", err).WithCause(err)
	}

	cfg := *base
	if legacy.ProjectName != "" {
		cfg.Project.Name = legacy.ProjectName
	}
	if legacy.DefaultTier != "" {
		cfg.Budget.DefaultTier = legacy.DefaultTier
	}
	if legacy.DefaultEncoding != "" {
		cfg.Budget.DefaultEncoding = legacy.DefaultEncoding
	}
	if legacy.IndexPath != "" {
		cfg.Index.Path = legacy.IndexPath
	}
	if legacy.BackupDir != "" {
		cfg.Backup.Dir = legacy.BackupDir
	}
	if legacy.StaleLockSecs != 0 {
		cfg.Backup.StaleLockSeconds = legacy.StaleLockSecs
	}
	return &cfg, nil
}

// ExportToTOML renders cfg in the legacy flat-TOML shape, for round-trip
// testing of MigrateFromTOML and for operators who want a readable diff of
// what migration will change before adopting KDL.
func ExportToTOML(cfg *Config) ([]byte, error) {
	legacy := legacyTOML{
		ProjectName:     cfg.Project.Name,
		DefaultTier:     cfg.Budget.DefaultTier,
		DefaultEncoding: cfg.Budget.DefaultEncoding,
		IndexPath:       cfg.Index.Path,
		BackupDir:       cfg.Backup.Dir,
		StaleLockSecs:   cfg.Backup.StaleLockSeconds,
	}
	out, err := toml.Marshal(legacy)
	if err != nil {
		return nil, rerrors.Internal("render legacy toml config: %v", err).WithCause(err)
	}
	return out, nil
}
