package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/plateshare/plateshare/internal/api"
	"github.com/plateshare/plateshare/internal/auth"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP API",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Aliases: []string{"a"},
			Usage:   "listen address (overrides SERVER_ADDR)",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	if cCtx.IsSet("addr") {
		cfg.ServerAddr = cCtx.String("addr")
	}

	logger, closeLog, err := setupLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	svc, err := openServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	secret, err := svc.tokenSecret(ctx, cfg)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Deps{
		Catalog:   svc.catalog,
		Ledger:    svc.ledger,
		Lifecycle: svc.lifecycle,
		Auth:      auth.NewProvider(secret, svc.store),
		Tokens:    svc.store,
		Logger:    logger,
	})
	srv := api.NewServer(api.ServerConfig{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}, router)

	go func() {
		logger.WithField("addr", cfg.ServerAddr).Info("server started")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
		return err
	}
	logger.Info("server stopped, closing database")
	return nil
}
