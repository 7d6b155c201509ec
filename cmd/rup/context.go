package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/rup/internal/contextasm"
	rerrors "github.com/standardbeagle/rup/internal/errors"
	"github.com/standardbeagle/rup/internal/symbolindex"
	"github.com/standardbeagle/rup/internal/tokenizer"
)

var contextCommand = &cli.Command{
	Name:      "context",
	Usage:     "Assemble a token-budgeted context bundle for one or more queries",
	ArgsUsage: "<query> [query...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Emit the stable JSON manifest instead of plain text",
		},
		&cli.StringFlag{
			Name:  "anchor-file",
			Usage: "File the caller is currently editing, for proximity ranking",
		},
		&cli.IntFlag{
			Name:  "anchor-line",
			Usage: "Line within --anchor-file",
		},
		&cli.BoolFlag{
			Name:  "callgraph",
			Usage: "Treat the given queries as call-graph seeds and derive extra queries",
		},
	},
	Action: contextActionFunc,
}

func contextActionFunc(c *cli.Context) error {
	if c.NArg() < 1 {
		return rerrors.InvalidSpec("usage: rup context <query> [query...]")
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	idx, err := symbolindex.Load(filepath.Join(cfg.Project.Root, cfg.Index.Path))
	if err != nil {
		return err
	}
	tok, err := tokenizer.New(cfg.Budget.DefaultEncoding)
	if err != nil {
		return rerrors.Internal("construct tokenizer %q", cfg.Budget.DefaultEncoding).WithCause(err)
	}

	queries := c.Args().Slice()
	anchorFile := c.String("anchor-file")

	opts := contextasm.Options{
		Model:      cfg.Budget.DefaultEncoding,
		Tier:       contextasm.Tier(cfg.Budget.DefaultTier),
		Queries:    queries,
		AnchorFile: anchorFile,
		AnchorLine: c.Int("anchor-line"),
		HasAnchor:  anchorFile != "",
	}
	if c.Bool("callgraph") {
		opts.Callgraph = queries
	}

	out, err := contextasm.Assemble(idx, tok, readRepoFileUnder(cfg.Project.Root), opts)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		body, err := out.RenderJSON()
		if err != nil {
			return rerrors.Internal("render context manifest").WithCause(err)
		}
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(out.RenderText())
	return nil
}

// readRepoFileUnder returns a contextasm.FileReader reading repo-relative
// paths resolved under root.
func readRepoFileUnder(root string) contextasm.FileReader {
	return func(path string) (string, error) {
		data, err := os.ReadFile(filepath.Join(root, path))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
