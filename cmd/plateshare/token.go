package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/plateshare/plateshare/internal/auth"
	"github.com/plateshare/plateshare/internal/model"
)

var tokenCommand = &cli.Command{
	Name:  "token",
	Usage: "Issue a bearer token for an identity",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "identity email", Required: true},
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "display name"},
		&cli.StringFlag{Name: "image", Usage: "avatar URL"},
		&cli.DurationFlag{Name: "ttl", Usage: "token lifetime (default TOKEN_TTL_HOURS)"},
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

		secret, err := svc.tokenSecret(c.Context, cfg)
		if err != nil {
			return err
		}

		ttl := cfg.TokenTTL()
		if c.IsSet("ttl") {
			ttl = c.Duration("ttl")
		}

		who := model.Identity{
			Name:  model.DisplayName(c.String("name")),
			Email: c.String("email"),
			Image: c.String("image"),
		}
		tok, err := auth.GenerateToken(secret, who, ttl)
		if err != nil {
			return err
		}

		fmt.Fprintln(c.App.Writer, tok)
		return nil
	},
}
