package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "minter.toml",
			Usage:   "Path to the toml configuration file",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Value: ".env",
			Usage: "Path to a dotenv file loaded before reading the environment",
		},
	}

	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "badge-minter"
	app.Usage = "Mint one NFT per earned achievement"
	app.Before = s.loadConfig
	app.Flags = flags
	app.Commands = []*cli.Command{
		{
			Action:      s.startWorker,
			Name:        "worker",
			Usage:       "Start the mint worker",
			Category:    "Worker",
			Description: `Consumes badge_earned events, mints their badges and publishes nft_minted events.`,
		},
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start the mint api",
			Category:    "Api",
			Description: `Serves the internal api to request a mint and query the mint ledger.`,
		},
		{
			Action:      s.startReconcile,
			Name:        "reconcile",
			Usage:       "Start the mint reconciler",
			Category:    "Worker",
			Description: `Periodically settles broadcast mints whose confirmation was not observed in time.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate the database to the latest version",
			Category:    "Database",
			Description: `Applies the embedded SQL migrations.`,
		},
	}

	s.app = app
}
