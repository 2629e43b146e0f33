package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/fieldsrv/guardpost/cmd/app/commands"
)

func getAdminCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-admin-token",
			Usage: "Generate an admin API bearer token and its Argon2id hash",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCreateAdminToken(commands.DefaultIO().Writer)
			},
		},
	}
}
