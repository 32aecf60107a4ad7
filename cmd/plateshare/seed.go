package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/plateshare/plateshare/internal/seed"
)

var seedCommand = &cli.Command{
	Name:      "seed",
	Usage:     "Load listings and requests from a YAML fixture",
	ArgsUsage: "<file.yaml>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("expected one fixture file, got %d arguments", c.NArg())
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		logger, closeLog, err := setupLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()

		fixture, err := seed.Load(c.Args().First())
		if err != nil {
			return err
		}

		svc, err := openServices(c.Context, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		seeder := &seed.Seeder{
			Catalog:   svc.catalog,
			Ledger:    svc.ledger,
			Lifecycle: svc.lifecycle,
			Log:       logger,
		}
		res, err := seeder.Apply(c.Context, fixture)
		if err != nil {
			return fmt.Errorf("seeding: %w", err)
		}

		logger.WithFields(logrus.Fields{"foods": res.Foods, "requests": res.Requests}).Info("seed complete")
		return nil
	},
}
