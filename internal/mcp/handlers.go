package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/rup/internal/applyengine"
	"github.com/standardbeagle/rup/internal/backup"
	"github.com/standardbeagle/rup/internal/contextasm"
	"github.com/standardbeagle/rup/internal/editfmt"
	"github.com/standardbeagle/rup/pkg/pathutil"
)

func readRepoFile(repoRoot string) contextasm.FileReader {
	return func(path string) (string, error) {
		rel, err := pathutil.ValidateRepoRelative(path)
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(filepath.Join(repoRoot, rel))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

type contextAssembleParams struct {
	Queries       []string `json:"queries"`
	Tier          string   `json:"tier"`
	AnchorFile    string   `json:"anchor_file"`
	AnchorLine    int      `json:"anchor_line"`
	TraitResolve  []string `json:"trait_resolve"`
	Callgraph     []string `json:"callgraph"`
	FailSignalLog string   `json:"fail_signal_log"`
}

func (s *Server) handleContextAssemble(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params contextAssembleParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult("context.assemble", fmt.Errorf("invalid parameters: %w", err)), nil
	}
	if len(params.Queries) == 0 {
		return errorResult("context.assemble", fmt.Errorf("queries must not be empty")), nil
	}

	idx, err := s.loadSymbolIndex()
	if err != nil {
		return errorResult("context.assemble", err), nil
	}
	tok, err := s.loadTokenizer()
	if err != nil {
		return errorResult("context.assemble", err), nil
	}

	tier := contextasm.Tier(params.Tier)
	if tier == "" {
		tier = contextasm.Tier(s.cfg.Budget.DefaultTier)
	}

	out, err := contextasm.Assemble(idx, tok, readRepoFile(s.repoRoot), contextasm.Options{
		Model:         s.cfg.Budget.DefaultEncoding,
		Tier:          tier,
		Queries:       params.Queries,
		TraitResolve:  params.TraitResolve,
		Callgraph:     params.Callgraph,
		AnchorFile:    params.AnchorFile,
		AnchorLine:    params.AnchorLine,
		HasAnchor:     params.AnchorFile != "",
		FailSignalLog: params.FailSignalLog,
	})
	if err != nil {
		return errorResult("context.assemble", err), nil
	}

	body, err := out.RenderJSON()
	if err != nil {
		return errorResult("context.assemble", err), nil
	}
	return textResult(string(body)), nil
}

type editApplyParams struct {
	Spec  string `json:"spec"`
	Force bool   `json:"force"`
}

func (s *Server) handleEditApply(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params editApplyParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult("edit.apply", fmt.Errorf("invalid parameters: %w", err)), nil
	}

	spec, err := editfmt.Parse(params.Spec)
	if err != nil {
		return errorResult("edit.apply", err), nil
	}

	report, err := applyengine.Apply(s.repoRoot, spec, applyengine.Options{
		Force:     params.Force,
		Backup:    true,
		Operation: "mcp.edit.apply",
	})
	if err != nil {
		return errorResult("edit.apply", err), nil
	}

	body, err := json.Marshal(report)
	if err != nil {
		return errorResult("edit.apply", err), nil
	}
	return textResult(string(body)), nil
}

type backupListParams struct {
	Limit int `json:"limit"`
}

func (s *Server) handleBackupList(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params backupListParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return errorResult("backup.list", fmt.Errorf("invalid parameters: %w", err)), nil
		}
	}

	entries, err := backup.ListSessions(s.repoRoot)
	if err != nil {
		return errorResult("backup.list", err), nil
	}

	// Newest first: the append-only index is read in order and reversed.
	// `rup backup list` prints the same entries oldest first.
	reversed := make([]backup.IndexEntry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	if params.Limit > 0 && params.Limit < len(reversed) {
		reversed = reversed[:params.Limit]
	}

	body, err := json.Marshal(reversed)
	if err != nil {
		return errorResult("backup.list", err), nil
	}
	return textResult(string(body)), nil
}
