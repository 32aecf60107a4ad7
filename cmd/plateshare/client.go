package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/plateshare/plateshare/internal/catalog"
	"github.com/plateshare/plateshare/internal/ledger"
	"github.com/plateshare/plateshare/internal/lifecycle"
	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/remote"
	"github.com/plateshare/plateshare/internal/store"
)

// remoteServices runs the catalog, ledger and coordinator against a
// PlateShare API instead of a local database.
type remoteServices struct {
	client    *remote.Client
	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	lifecycle *lifecycle.Coordinator
}

func openRemote(c *cli.Context) (*remoteServices, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	client := remote.New(c.String("api-url"),
		remote.WithToken(c.String("token")),
		remote.WithTimeout(cfg.RemoteTimeout()),
		remote.WithLogger(logger),
	)
	cat := catalog.New(client)
	led := ledger.New(client, cat)
	return &remoteServices{
		client:  client,
		catalog: cat,
		ledger:  led,
		lifecycle: lifecycle.New(led, cat,
			lifecycle.WithLogger(logger),
			lifecycle.WithStepTimeout(cfg.LifecycleStepTimeout()),
		),
	}, nil
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func oneArg(c *cli.Context, what string) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected a %s argument", what)
	}
	return c.Args().First(), nil
}

var clientCommand = &cli.Command{
	Name:  "client",
	Usage: "Talk to a running PlateShare API",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "base URL of the API",
			Value:   "http://localhost:8080",
			EnvVars: []string{"PLATESHARE_API_URL"},
		},
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   "bearer token (see the token command)",
			EnvVars: []string{"PLATESHARE_TOKEN"},
		},
	},
	Subcommands: []*cli.Command{
		{
			Name:  "whoami",
			Usage: "Show the identity behind the token",
			Action: func(c *cli.Context) error {
				svc, err := openRemote(c)
				if err != nil {
					return err
				}
				who, err := svc.client.Whoami(c.Context)
				if err != nil {
					return err
				}
				return printJSON(c, who)
			},
		},
		{
			Name:  "foods",
			Usage: "List food listings",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "status", Usage: "Available or Donated"},
				&cli.StringFlag{Name: "donor", Usage: "donor email"},
			},
			Action: func(c *cli.Context) error {
				svc, err := openRemote(c)
				if err != nil {
					return err
				}
				foods, err := store.Collect(svc.catalog.List(c.Context, catalog.Filter{
					Status:     c.String("status"),
					DonorEmail: c.String("donor"),
				}))
				if err != nil {
					return err
				}
				return printJSON(c, foods)
			},
		},
		{
			Name:      "food",
			Usage:     "Show one food listing",
			ArgsUsage: "<food-id>",
			Action: func(c *cli.Context) error {
				id, err := oneArg(c, "food id")
				if err != nil {
					return err
				}
				svc, err := openRemote(c)
				if err != nil {
					return err
				}
				f, err := svc.catalog.Get(c.Context, id)
				if err != nil {
					return err
				}
				return printJSON(c, f)
			},
		},
		{
			Name:  "share",
			Usage: "List a food item as the token's identity",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Required: true},
				&cli.StringFlag{Name: "quantity", Required: true},
				&cli.StringFlag{Name: "pickup", Usage: "pickup location", Required: true},
				&cli.StringFlag{Name: "expires", Usage: "expiry date (YYYY-MM-DD)", Value: time.Now().AddDate(0, 0, 1).Format(model.DateLayout)},
				&cli.StringFlag{Name: "category"},
				&cli.StringFlag{Name: "notes"},
				&cli.StringFlag{Name: "image-url"},
				&cli.PathFlag{Name: "image-file", Usage: "JPEG, PNG or WebP photo to upload"},
			},
			Action: func(c *cli.Context) error {
				svc, err := openRemote(c)
				if err != nil {
					return err
				}
				who, err := svc.client.Whoami(c.Context)
				if err != nil {
					return err
				}

				in := catalog.FoodInput{
					Name:           c.String("name"),
					ImageURL:       c.String("image-url"),
					Quantity:       c.String("quantity"),
					Category:       c.String("category"),
					PickupLocation: c.String("pickup"),
					ExpireDate:     c.String("expires"),
					Notes:          c.String("notes"),
				}
				if path := c.Path("image-file"); path != "" {
					if in.ImageData, err = os.ReadFile(path); err != nil {
						return fmt.Errorf("reading image: %w", err)
					}
				}

				f, err := svc.catalog.Create(c.Context, who, in)
				if err != nil {
					return err
				}
				return printJSON(c, f)
			},
		},
		{
			Name:      "request",
			Usage:     "Request pickup of a food item",
			ArgsUsage: "<food-id>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "location", Required: true},
				&cli.StringFlag{Name: "reason", Required: true},
				&cli.StringFlag{Name: "contact", Required: true},
			},
			Action: func(c *cli.Context) error {
				foodID, err := oneArg(c, "food id")
				if err != nil {
					return err
				}
				svc, err := openRemote(c)
				if err != nil {
					return err
				}
				who, err := svc.client.Whoami(c.Context)
				if err != nil {
					return err
				}
				r, err := svc.ledger.Create(c.Context, foodID, who, ledger.RequestInput{
					Location: c.String("location"),
					Reason:   c.String("reason"),
					Contact:  c.String("contact"),
				})
				if err != nil {
					return err
				}
				return printJSON(c, r)
			},
		},
		{
			Name:  "requests",
			Usage: "List requests for one of your listings, or all requests addressed to you",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "food", Usage: "food id"},
				&cli.StringFlag{Name: "status", Usage: "pending, accepted or rejected"},
			},
			Action: func(c *cli.Context) error {
				svc, err := openRemote(c)
				if err != nil {
					return err
				}
				reqs, err := store.Collect(svc.ledger.List(c.Context, ledger.Filter{
					FoodID: c.String("food"),
					Status: c.String("status"),
				}))
				if err != nil {
					return err
				}
				return printJSON(c, reqs)
			},
		},
		decisionCommand("accept", "Accept a request and mark its food Donated", (*lifecycle.Coordinator).Accept),
		decisionCommand("reject", "Reject a request", (*lifecycle.Coordinator).Reject),
	},
}

type decision func(co *lifecycle.Coordinator, ctx context.Context, requestID, ownerEmail string) (*model.Request, error)

func decisionCommand(name, usage string, decide decision) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<request-id>",
		Action: func(c *cli.Context) error {
			id, err := oneArg(c, "request id")
			if err != nil {
				return err
			}
			svc, err := openRemote(c)
			if err != nil {
				return err
			}
			who, err := svc.client.Whoami(c.Context)
			if err != nil {
				return err
			}

			r, err := decide(svc.lifecycle, c.Context, id, who.Email)
			if errors.Is(err, model.ErrPartialFailure) {
				// The decision stands; show it along with the error.
				printJSON(c, r)
			}
			if err != nil {
				return err
			}
			return printJSON(c, r)
		},
	}
}
