package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	// A .env file is optional and only used for local development.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "toolshed",
		Usage: "Install and manage developer tools in a shared prefix.",
		Flags: getFlags(),
		Commands: []*cli.Command{
			installCommand(),
			ensureCommand(),
			uninstallCommand(),
			listCommand(),
			outdatedCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("error running command")
	}
}
