package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/plateshare/plateshare/internal/config"
)

func main() {
	app := &cli.App{
		Name:  "plateshare",
		Usage: "Share surplus food with people nearby",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "SQLite path or postgres:// URL (overrides DATABASE_URL)",
			},
			&cli.StringFlag{
				Name:    "log",
				Aliases: []string{"l"},
				Usage:   "also append logs to this file (overrides LOG_FILE)",
			},
		},
		Commands: []*cli.Command{
			serveCommand,
			seedCommand,
			tokenCommand,
			auditCommand,
			clientCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}

// loadConfig reads the environment and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.IsSet("db") {
		cfg.DatabaseURL = c.String("db")
	}
	if c.IsSet("log") {
		cfg.LogFile = c.String("log")
	}
	return cfg, nil
}
