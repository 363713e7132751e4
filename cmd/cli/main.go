package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/puntualdev/puntual/cmd/cli/internal/commands"
	"github.com/puntualdev/puntual/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Login       commands.LoginCmd       `cmd:"" help:"Log in to the attendance gateway"`
		Logout      commands.LogoutCmd      `cmd:"" help:"Log out and clear the local session"`
		Whoami      commands.WhoamiCmd      `cmd:"" help:"Show the authenticated account"`
		Rule        commands.RuleCmd        `cmd:"" help:"Inspect or edit the automation rule"`
		Mark        commands.MarkCmd        `cmd:"" help:"Trigger an immediate attendance mark"`
		Timezones   commands.TimezonesCmd   `cmd:"" help:"List timezones the gateway accepts"`
		Credentials commands.CredentialsCmd `cmd:"" help:"Manage attendance provider credentials"`
		Debug       bool                    `help:"Enable debug mode."`
		Version     kong.VersionFlag
	}
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	log.Logger = logger.Setup(cli.Debug)
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
