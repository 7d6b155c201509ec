package config

import (
	"fmt"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// parseKDL parses content (the text of .rup/rup.kdl) into a copy of base
// with any specified nodes overridden, following the node layout:
//
//	project { name "myapp" }
//	budget { default_tier "B"; default_encoding "cl100k_base" }
//	index { path ".rup/symbols.jsonl"; staleness_max_depth 4 }
//	backup { stale_lock_seconds 60; regen_lock_timeout_s 10 }
//	feature_flags { enable_callgraph_derivation true }
func parseKDL(content string, base *Config) (*Config, error) {
	override := *base
	override.FeatureFlags = base.FeatureFlags

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse kdl: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				if nodeName(cn) == "name" {
					if s, ok := firstStringArg(cn); ok {
						override.Project.Name = s
					}
				}
			}
		case "budget":
			parseBudgetNode(&override.Budget, n)
		case "index":
			parseIndexNode(&override.Index, n)
		case "backup":
			parseBackupNode(&override.Backup, n)
		case "feature_flags":
			parseFeatureFlagsNode(&override.FeatureFlags, n)
		}
	}

	return &override, nil
}

func parseBudgetNode(b *Budget, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "default_tier":
			if s, ok := firstStringArg(cn); ok {
				b.DefaultTier = s
			}
		case "default_encoding":
			if s, ok := firstStringArg(cn); ok {
				b.DefaultEncoding = s
			}
		case "tier_a":
			parseTierNode(cn, &b.TierABudget, &b.TierAOverallLimit, &b.TierAPerQueryCap)
		case "tier_b":
			parseTierNode(cn, &b.TierBBudget, &b.TierBOverallLimit, &b.TierBPerQueryCap)
		case "tier_c":
			parseTierNode(cn, &b.TierCBudget, &b.TierCOverallLimit, &b.TierCPerQueryCap)
		}
	}
}

func parseTierNode(n *document.Node, budget, overallLimit, perQueryCap *int) {
	for _, gn := range n.Children {
		switch nodeName(gn) {
		case "budget":
			if v, ok := firstIntArg(gn); ok {
				*budget = v
			}
		case "overall_limit":
			if v, ok := firstIntArg(gn); ok {
				*overallLimit = v
			}
		case "per_query_cap":
			if v, ok := firstIntArg(gn); ok {
				*perQueryCap = v
			}
		}
	}
}

func parseIndexNode(idx *Index, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "path":
			if s, ok := firstStringArg(cn); ok {
				idx.Path = s
			}
		case "staleness_max_depth":
			if v, ok := firstIntArg(cn); ok {
				idx.StalenessMaxDepth = v
			}
		case "ignored_dirs":
			if dirs := collectStringArgs(cn); len(dirs) > 0 {
				idx.IgnoredDirs = dirs
			}
		}
	}
}

func parseBackupNode(b *Backup, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "dir":
			if s, ok := firstStringArg(cn); ok {
				b.Dir = s
			}
		case "stale_lock_seconds":
			if v, ok := firstIntArg(cn); ok {
				b.StaleLockSeconds = v
			}
		case "regen_lock_timeout_s":
			if v, ok := firstIntArg(cn); ok {
				b.RegenLockTimeoutS = v
			}
		}
	}
}

func parseFeatureFlagsNode(f *FeatureFlags, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "enable_callgraph_derivation":
			if b, ok := firstBoolArg(cn); ok {
				f.EnableCallgraphDerivation = b
			}
		case "enable_detailed_error_logging":
			if b, ok := firstBoolArg(cn); ok {
				f.EnableDetailedErrorLogging = b
			}
		}
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	b, ok := n.Arguments[0].Value.(bool)
	return b, ok
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
