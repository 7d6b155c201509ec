package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/rup/internal/applyengine"
	"github.com/standardbeagle/rup/internal/editfmt"
	rerrors "github.com/standardbeagle/rup/internal/errors"
)

var applyCommand = &cli.Command{
	Name:      "apply",
	Usage:     "Apply an edit-format spec to the repository through a backed-up session",
	ArgsUsage: "<spec-file>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Apply clean file blocks even if other blocks in the spec conflict",
		},
		&cli.BoolFlag{
			Name:  "no-backup",
			Usage: "Skip the backup session (not recommended)",
		},
	},
	Action: applyActionFunc,
}

func applyActionFunc(c *cli.Context) error {
	if c.NArg() < 1 {
		return rerrors.InvalidSpec("usage: rup apply <spec-file>")
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	specPath := c.Args().First()
	specBytes, err := os.ReadFile(specPath)
	if err != nil {
		return rerrors.RepoIssue("read edit spec: %s", specPath).WithCause(err)
	}
	spec, err := editfmt.Parse(string(specBytes))
	if err != nil {
		return err
	}

	report, err := applyengine.Apply(cfg.Project.Root, spec, applyengine.Options{
		Force:     c.Bool("force"),
		Backup:    !c.Bool("no-backup"),
		Operation: "apply",
		Args:      []string{specPath},
	})
	if err != nil {
		return err
	}

	for _, f := range report.AppliedFiles {
		fmt.Println("applied:", f)
	}
	for _, conflict := range report.Conflicts {
		fmt.Println("conflict:", conflict.Error())
	}
	if report.BackupSessionID != "" {
		fmt.Println("backup session:", report.BackupSessionID)
	}
	if len(report.Conflicts) > 0 {
		return rerrors.Conflicts("%d unresolved conflict(s)", len(report.Conflicts))
	}
	return nil
}
