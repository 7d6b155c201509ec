package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/rup/internal/editengine"
	"github.com/standardbeagle/rup/internal/editfmt"
	rerrors "github.com/standardbeagle/rup/internal/errors"
)

var editCommand = &cli.Command{
	Name:      "edit",
	Usage:     "Apply an edit-format spec to the working tree without a backup session",
	ArgsUsage: "<spec-file>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Write files that validate cleanly even if other blocks in the spec conflict",
		},
	},
	Action: editActionFunc,
}

func editActionFunc(c *cli.Context) error {
	if c.NArg() < 1 {
		return rerrors.InvalidSpec("usage: rup edit <spec-file>")
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

	report, err := editengine.Apply(cfg.Project.Root, spec, c.Bool("force"))
	if err != nil {
		return err
	}

	for _, f := range report.FilesWritten {
		fmt.Println("written:", f)
	}
	for _, conflict := range report.Conflicts {
		fmt.Println("conflict:", conflict.Error())
	}
	if len(report.Conflicts) > 0 {
		return rerrors.Conflicts("%d unresolved conflict(s)", len(report.Conflicts))
	}
	return nil
}
