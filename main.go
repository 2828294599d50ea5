package main

import (
	"os"

	"github.com/franciscotobar/rif-relay-server/cmd"
	"github.com/franciscotobar/rif-relay-server/core/logger"
	"github.com/franciscotobar/rif-relay-server/core/store"

	clipkg "github.com/urfave/cli"
)

func main() {
	client := &cmd.Client{
		Config:     store.NewConfig(),
		AppFactory: cmd.RelayAppFactory{},
		Runner:     cmd.RelayRunner{},
	}

	app := clipkg.NewApp()
	app.Usage = "meta-transaction relay server for RSK"
	app.Commands = []clipkg.Command{
		{
			Name:    "node",
			Aliases: []string{"n"},
			Usage:   "run the relay node",
			Action:  client.RunNode,
		},
		{
			Name:    "accounts",
			Aliases: []string{"a"},
			Usage:   "list relay signing addresses",
			Action:  client.ListAccounts,
		},
	}
	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}
