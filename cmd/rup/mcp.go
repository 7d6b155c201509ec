package main

import (
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	rupmcp "github.com/standardbeagle/rup/internal/mcp"
)

var mcpCommand = &cli.Command{
	Name:   "mcp",
	Usage:  "Serve rup's context.assemble/edit.apply/backup.list tools over stdio",
	Action: mcpActionFunc,
}

func mcpActionFunc(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := rupmcp.New(cfg.Project.Root)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}
