// Package config loads rup's repository configuration from .rup/rup.kdl,
// mirroring the teacher's Config{...}/Load/Merge/Validate shape but scoped to
// rup's own concerns: budget tier presets, symbol index freshness, and backup
// session locking.
package config

import (
	"os"
	"path/filepath"

	rerrors "github.com/standardbeagle/rup/internal/errors"
)

// Config is rup's fully resolved repository configuration.
type Config struct {
	Project      Project
	Budget       Budget
	Index        Index
	Backup       Backup
	FeatureFlags FeatureFlags
}

// Project describes the repository rup is operating on.
type Project struct {
	Root string
	Name string
}

// Budget holds the Context Assembler's default tier presets and tokenizer
// encoding, overridable per invocation by CLI flags.
type Budget struct {
	DefaultTier     string // "A", "B", or "C"
	DefaultEncoding string // passed to tokenizer.New, e.g. "cl100k_base"

	TierABudget, TierAOverallLimit, TierAPerQueryCap int
	TierBBudget, TierBOverallLimit, TierBPerQueryCap int
	TierCBudget, TierCOverallLimit, TierCPerQueryCap int
}

// Index configures symbol index location and staleness checking.
type Index struct {
	Path              string // relative to Project.Root, default ".rup/symbols.jsonl"
	StalenessMaxDepth int    // 0 = unbounded
	IgnoredDirs       []string
}

// Backup configures the Backup Session Manager's lock behavior.
type Backup struct {
	Dir               string // relative to Project.Root, default ".rup/backups"
	StaleLockSeconds  int    // lock age after which a held lock is reclaimed
	RegenLockTimeoutS int    // index regen lock timeout in seconds
}

// FeatureFlags toggles optional/experimental behavior.
type FeatureFlags struct {
	EnableCallgraphDerivation bool
	EnableDetailedErrorLogging bool
}

const configFileName = "rup.kdl"

// Load reads .rup/rup.kdl under root (if present), merges it over rup's
// built-in defaults, validates the result, and returns it. A missing config
// file is not an error: Load returns the defaults.
func Load(root string) (*Config, error) {
	cfg := Default(root)

	kdlPath := filepath.Join(root, ".rup", configFileName)
	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return nil, rerrors.RepoIssue("stat config file: %s", kdlPath).WithFile(kdlPath).WithCause(err)
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, rerrors.RepoIssue("read config file: %s", kdlPath).WithFile(kdlPath).WithCause(err)
	}

	fileCfg, err := parseKDL(string(content), cfg)
	if err != nil {
		return nil, rerrors.InvalidSpec("parse config file %s: %v", kdlPath, err)
	}

	if err := Validate(fileCfg); err != nil {
		return nil, err
	}
	return fileCfg, nil
}

// Default returns rup's built-in configuration for a repository at root,
// before any .rup/rup.kdl overrides are applied.
func Default(root string) *Config {
	return &Config{
		Project: Project{Root: root, Name: filepath.Base(root)},
		Budget: Budget{
			DefaultTier:       "B",
			DefaultEncoding:   "cl100k_base",
			TierABudget:       1200, TierAOverallLimit: 96, TierAPerQueryCap: 6,
			TierBBudget:       3000, TierBOverallLimit: 192, TierBPerQueryCap: 8,
			TierCBudget:       6000, TierCOverallLimit: 256, TierCPerQueryCap: 12,
		},
		Index: Index{
			Path:              ".rup/symbols.jsonl",
			StalenessMaxDepth: 0,
			IgnoredDirs:       []string{".git", ".rup", "node_modules", "target", "vendor", "dist", "build"},
		},
		Backup: Backup{
			Dir:               ".rup/backups",
			StaleLockSeconds:  60,
			RegenLockTimeoutS: 10,
		},
		FeatureFlags: FeatureFlags{
			EnableCallgraphDerivation:  true,
			EnableDetailedErrorLogging: false,
		},
	}
}

// Merge overlays override onto base: any non-zero field in override replaces
// the corresponding field in base, except FeatureFlags, which is always
// taken from override as a whole. Project.Root is never overridden from a
// config file — it is always the directory Load was called with.
func Merge(base, override *Config) *Config {
	merged := *base
	mergeProject(&merged.Project, override.Project)
	mergeBudget(&merged.Budget, override.Budget)
	mergeIndex(&merged.Index, override.Index)
	mergeBackup(&merged.Backup, override.Backup)
	merged.FeatureFlags = override.FeatureFlags
	return &merged
}

func mergeProject(dst *Project, src Project) {
	if src.Name != "" {
		dst.Name = src.Name
	}
}

func mergeBudget(dst *Budget, src Budget) {
	if src.DefaultTier != "" {
		dst.DefaultTier = src.DefaultTier
	}
	if src.DefaultEncoding != "" {
		dst.DefaultEncoding = src.DefaultEncoding
	}
	if src.TierABudget != 0 {
		dst.TierABudget, dst.TierAOverallLimit, dst.TierAPerQueryCap = src.TierABudget, src.TierAOverallLimit, src.TierAPerQueryCap
	}
	if src.TierBBudget != 0 {
		dst.TierBBudget, dst.TierBOverallLimit, dst.TierBPerQueryCap = src.TierBBudget, src.TierBOverallLimit, src.TierBPerQueryCap
	}
	if src.TierCBudget != 0 {
		dst.TierCBudget, dst.TierCOverallLimit, dst.TierCPerQueryCap = src.TierCBudget, src.TierCOverallLimit, src.TierCPerQueryCap
	}
}

func mergeIndex(dst *Index, src Index) {
	if src.Path != "" {
		dst.Path = src.Path
	}
	if src.StalenessMaxDepth != 0 {
		dst.StalenessMaxDepth = src.StalenessMaxDepth
	}
	if len(src.IgnoredDirs) > 0 {
		dst.IgnoredDirs = src.IgnoredDirs
	}
}

func mergeBackup(dst *Backup, src Backup) {
	if src.Dir != "" {
		dst.Dir = src.Dir
	}
	if src.StaleLockSeconds != 0 {
		dst.StaleLockSeconds = src.StaleLockSeconds
	}
	if src.RegenLockTimeoutS != 0 {
		dst.RegenLockTimeoutS = src.RegenLockTimeoutS
	}
}

// Validate checks cfg for invalid values and then applies the one smart
// default: when Index.StalenessMaxDepth is zero and Index.IgnoredDirs is
// empty, IgnoredDirs is filled with the default list.
func Validate(cfg *Config) error {
	if cfg.Project.Root == "" {
		return rerrors.InvalidSpec("config: project root cannot be empty")
	}
	switch cfg.Budget.DefaultTier {
	case "A", "B", "C":
	default:
		return rerrors.InvalidSpec("config: budget.default_tier must be A, B, or C, got %q", cfg.Budget.DefaultTier)
	}
	if cfg.Index.StalenessMaxDepth < 0 {
		return rerrors.InvalidSpec("config: index.staleness_max_depth cannot be negative, got %d", cfg.Index.StalenessMaxDepth)
	}
	if cfg.Backup.StaleLockSeconds <= 0 {
		return rerrors.InvalidSpec("config: backup.stale_lock_seconds must be positive, got %d", cfg.Backup.StaleLockSeconds)
	}
	if cfg.Backup.RegenLockTimeoutS <= 0 {
		return rerrors.InvalidSpec("config: backup.regen_lock_timeout_s must be positive, got %d", cfg.Backup.RegenLockTimeoutS)
	}
	setSmartDefaults(cfg)
	return nil
}

func setSmartDefaults(cfg *Config) {
	if cfg.Index.StalenessMaxDepth == 0 && len(cfg.Index.IgnoredDirs) == 0 {
		cfg.Index.IgnoredDirs = Default(cfg.Project.Root).Index.IgnoredDirs
	}
}
