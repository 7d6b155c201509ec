// Command rup is the CLI entry point for the Context Assembler, Edit
// Engine, and Backup Session Manager, plus the symbol index builder and
// MCP server that back them.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/rup/internal/config"
	rerrors "github.com/standardbeagle/rup/internal/errors"
)

var version = "0.1.0"

// loadConfigWithOverrides loads .rup/rup.kdl under the resolved project
// root and applies CLI flag overrides, mirroring the teacher's
// loadConfigWithOverrides(c *cli.Context) helper.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, err
	}
	cfg.Project.Root = absRoot

	if tier := c.String("tier"); tier != "" {
		cfg.Budget.DefaultTier = tier
	}
	if encoding := c.String("encoding"); encoding != "" {
		cfg.Budget.DefaultEncoding = encoding
	}
	if indexPath := c.String("index"); indexPath != "" {
		cfg.Index.Path = indexPath
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:                   "rup",
		Usage:                  "Token-budgeted context assembly and safe multi-file editing",
		Version:                version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Repository root (default: current directory)",
			},
			&cli.StringFlag{
				Name:  "tier",
				Usage: "Budget tier override: A, B, or C",
			},
			&cli.StringFlag{
				Name:  "encoding",
				Usage: "Tokenizer encoding override (e.g. cl100k_base)",
			},
			&cli.StringFlag{
				Name:  "index",
				Usage: "Symbol index path override, relative to root",
			},
		},
		Commands: []*cli.Command{
			symbolsCommand,
			contextCommand,
			patchCommand,
			editCommand,
			applyCommand,
			backupCommand,
			mcpCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "rup:", err)
		os.Exit(rerrors.ExitCodeFor(err))
	}
}
