// Package mcp exposes rup's Context Assembler, Apply Engine, and Backup
// Session Manager as Model Context Protocol tools, mirroring the teacher's
// internal/mcp tool-registration pattern (one mcp.Tool + handler pair per
// operation, registered on an mcp.Server) but scoped to rup's three tools:
// context.assemble, edit.apply, backup.list.
package mcp

import (
	"context"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	rupconfig "github.com/standardbeagle/rup/internal/config"
	"github.com/standardbeagle/rup/internal/symbolindex"
	"github.com/standardbeagle/rup/internal/tokenizer"
)

// Server wraps an mcp.Server bound to one repository root.
type Server struct {
	server   *mcp.Server
	repoRoot string
	cfg      *rupconfig.Config
}

// New constructs a Server rooted at repoRoot, loading config via
// rupconfig.Load and registering rup's three MCP tools.
func New(repoRoot string) (*Server, error) {
	cfg, err := rupconfig.Load(repoRoot)
	if err != nil {
		return nil, err
	}

	s := &Server{
		repoRoot: repoRoot,
		cfg:      cfg,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "rup-mcp-server",
			Version: "0.1.0",
		}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves the registered tools over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "context.assemble",
		Description: "Assemble a token-budgeted context bundle from the symbol index for a set of queries, ranked and deduplicated per rup's Context Assembler pipeline.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"queries": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Symbol/text queries to collect context for.",
				},
				"tier": {
					Type:        "string",
					Description: "Budget tier preset: A, B, or C. Defaults to the repo config's default tier.",
				},
				"anchor_file": {
					Type:        "string",
					Description: "File the caller is currently editing, used for proximity ranking.",
				},
				"anchor_line": {
					Type:        "integer",
					Description: "Line within anchor_file, used for call-distance boosting.",
				},
				"trait_resolve": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "'Type::member' specs to expand into trait/impl/call variants.",
				},
				"callgraph": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Seed function names to derive extra queries from by following the call graph.",
				},
				"fail_signal_log": {
					Type:        "string",
					Description: "Build/test failure log text to parse for proximity boosting.",
				},
			},
			Required: []string{"queries"},
		},
	}, s.handleContextAssemble)

	s.server.AddTool(&mcp.Tool{
		Name:        "edit.apply",
		Description: "Apply a rup edit-format spec to the repository through the Apply Engine, with a Backup Session covering every modified file.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"spec": {
					Type:        "string",
					Description: "The edit-format document to apply.",
				},
				"force": {
					Type:        "boolean",
					Description: "Apply clean file blocks even if other blocks in the same spec conflict.",
				},
			},
			Required: []string{"spec"},
		},
	}, s.handleEditApply)

	s.server.AddTool(&mcp.Tool{
		Name:        "backup.list",
		Description: "List backup sessions recorded for this repository, newest first.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"limit": {
					Type:        "integer",
					Description: "Maximum number of sessions to return (default: all).",
				},
			},
		},
	}, s.handleBackupList)
}

// loadSymbolIndex opens the configured symbol index, returning a
// RepoIssueError (unwrapped by the caller's error-response conversion) if
// it is missing or malformed.
func (s *Server) loadSymbolIndex() (*symbolindex.Index, error) {
	return symbolindex.Load(filepath.Join(s.repoRoot, s.cfg.Index.Path))
}

func (s *Server) loadTokenizer() (tokenizer.Tokenizer, error) {
	return tokenizer.New(s.cfg.Budget.DefaultEncoding)
}
