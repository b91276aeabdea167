package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"safety-vision/config"
	"safety-vision/internal/container"
	"safety-vision/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	app := &cli.App{
		Name:  "trigger",
		Usage: "HTTP service that starts detection sessions on request",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: cfg.TriggerPort, Usage: "listen port"},
			&cli.StringFlag{Name: "detector-bin", Value: cfg.DetectorBin, Usage: "detector executable `PATH`"},
			&cli.StringSliceFlag{Name: "detector-arg", Usage: "argument passed to the detector, repeatable"},
			&cli.StringFlag{Name: "log-level", Value: cfg.LogLevel, Usage: "debug, info, warn or error"},
		},
		Action: func(c *cli.Context) error {
			cfg.TriggerPort = c.Int("port")
			cfg.DetectorBin = c.String("detector-bin")
			if args := c.StringSlice("detector-arg"); len(args) > 0 {
				cfg.DetectorArgs = args
			}
			cfg.LogLevel = c.String("log-level")

			if err := cfg.Validate(); err != nil {
				return cli.Exit(err.Error(), 2)
			}
			return run(c.Context, cfg)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logr, cleanup, err := logger.New(logger.Config{Name: "trigger", Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	trigger := container.NewTrigger(cfg, logr)
	return trigger.Run(ctx, fmt.Sprintf(":%d", cfg.TriggerPort))
}
