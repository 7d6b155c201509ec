package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	rerrors "github.com/standardbeagle/rup/internal/errors"
	"github.com/standardbeagle/rup/internal/editfmt"
	"github.com/standardbeagle/rup/internal/patch"
)

var patchCommand = &cli.Command{
	Name:      "patch",
	Usage:     "Render an edit-format spec as a unified diff without touching the repository",
	ArgsUsage: "<spec-file>",
	Action:    patchActionFunc,
}

func patchActionFunc(c *cli.Context) error {
	if c.NArg() < 1 {
		return rerrors.InvalidSpec("usage: rup patch <spec-file>")
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	specBytes, err := os.ReadFile(c.Args().First())
	if err != nil {
		return rerrors.RepoIssue("read edit spec: %s", c.Args().First()).WithCause(err)
	}
	spec, err := editfmt.Parse(string(specBytes))
	if err != nil {
		return err
	}

	root := cfg.Project.Root
	set, err := patch.Generate(spec, patch.DefaultConfig(), func(path string) (string, error) {
		data, err := os.ReadFile(filepath.Join(root, path))
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
	if err != nil {
		return err
	}

	fmt.Print(patch.RenderUnifiedDiff(set))
	return nil
}
