package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/plateshare/plateshare/internal/lifecycle"
)

var auditCommand = &cli.Command{
	Name:  "audit",
	Usage: "Report requests and listings that disagree after partial failures",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "repair", Usage: "mark stale listings of accepted requests as Donated"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "yaml or json", Value: "yaml"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		logger, closeLog, err := setupLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()

		svc, err := openServices(c.Context, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		findings, err := svc.lifecycle.Audit(c.Context)
		if err != nil {
			return err
		}

		if c.Bool("repair") {
			for _, f := range findings {
				if f.Kind != lifecycle.StaleAvailable {
					continue
				}
				if err := svc.lifecycle.Repair(c.Context, f); err != nil {
					return fmt.Errorf("repairing food %s: %w", f.FoodID, err)
				}
				logger.WithFields(logrus.Fields{"food_id": f.FoodID, "requests": f.RequestIDs}).Info("repaired listing")
			}
		}

		return writeFindings(c.App.Writer, c.String("format"), findings)
	},
}

func writeFindings(w io.Writer, format string, findings []lifecycle.Finding) error {
	if findings == nil {
		findings = []lifecycle.Finding{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(findings)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(findings)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
