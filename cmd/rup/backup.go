package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/rup/internal/backup"
	rerrors "github.com/standardbeagle/rup/internal/errors"
)

var backupCommand = &cli.Command{
	Name:  "backup",
	Usage: "Inspect and manage backup sessions",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "List backup sessions, oldest first",
			Action: backupListActionFunc,
		},
		{
			Name:      "restore",
			Usage:     "Restore every file in a finalized session's manifest",
			ArgsUsage: "<session-id>",
			Action:    backupRestoreActionFunc,
		},
		{
			Name:  "gc",
			Usage: "Prune finalized sessions beyond a retention count",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "keep",
					Usage: "Number of newest sessions to retain",
					Value: 10,
				},
			},
			Action: backupGCActionFunc,
		},
	},
}

func backupListActionFunc(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	entries, err := backup.ListSessions(cfg.Project.Root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%s\tfiles=%d\tsuccess=%t\n", e.ID, e.Timestamp, e.Engine, e.Files, e.Success)
	}
	return nil
}

func backupRestoreActionFunc(c *cli.Context) error {
	if c.NArg() < 1 {
		return rerrors.InvalidSpec("usage: rup backup restore <session-id>")
	}
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	restored, err := backup.Restore(cfg.Project.Root, c.Args().First())
	if err != nil {
		return err
	}
	for _, f := range restored {
		fmt.Println("restored:", f)
	}
	return nil
}

func backupGCActionFunc(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	removed, err := backup.GC(cfg.Project.Root, c.Int("keep"))
	if err != nil {
		return err
	}
	for _, id := range removed {
		fmt.Println("removed:", id)
	}
	return nil
}
