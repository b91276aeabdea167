package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/urfave/cli/v2"

	"safety-vision/config"
	"safety-vision/internal/container"
	"safety-vision/internal/logger"
)

func init() {
	// окно OpenCV должно жить в главном потоке
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	app := &cli.App{
		Name:  "detector",
		Usage: "detect PPE compliance on a live camera feed",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Value: cfg.CameraSource, Usage: "camera index or video `PATH`"},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Value: cfg.ModelPath, Usage: "YOLO model `FILE` (.onnx or .weights)"},
			&cli.StringFlag{Name: "model-config", Value: cfg.ModelConfigPath, Usage: "darknet .cfg `FILE`"},
			&cli.StringFlag{Name: "labels", Value: cfg.LabelsPath, Usage: "class names `FILE`, one per line (default: PPE classes)"},
			&cli.StringFlag{Name: "policy", Value: cfg.PolicyPath, Usage: "classification rules YAML `FILE` (default: built-in PPE rules)"},
			&cli.StringFlag{Name: "layout", Value: cfg.ModelLayout, Usage: "network output layout: auto, yolov8, yolov5 or end2end"},
			&cli.Float64Flag{Name: "conf", Value: cfg.ConfidenceThreshold, Usage: "minimum detection confidence"},
			&cli.Float64Flag{Name: "nms", Value: cfg.NMSThreshold, Usage: "IoU threshold for non-maximum suppression"},
			&cli.DurationFlag{Name: "inference-timeout", Value: cfg.InferenceTimeout, Usage: "per-frame inference deadline, 0 disables"},
			&cli.BoolFlag{Name: "retry-inference", Value: cfg.RetryInference, Usage: "retry a failed inference once per frame"},
			&cli.BoolFlag{Name: "headless", Value: cfg.DisplayMode == config.DisplayHeadless, Usage: "run without a window"},
			&cli.IntFlag{Name: "max-frames", Value: cfg.MaxFrames, Usage: "stop after N frames in headless mode, 0 runs until end of stream"},
			&cli.BoolFlag{Name: "pipelined", Value: cfg.Pipelined, Usage: "capture frames on a separate goroutine"},
			&cli.StringFlag{Name: "metrics-addr", Value: cfg.MetricsAddr, Usage: "serve Prometheus metrics on `ADDR`"},
			&cli.StringFlag{Name: "log-level", Value: cfg.LogLevel, Usage: "debug, info, warn or error"},
		},
		Action: func(c *cli.Context) error {
			cfg.CameraSource = c.String("source")
			cfg.ModelPath = c.String("model")
			cfg.ModelConfigPath = c.String("model-config")
			cfg.LabelsPath = c.String("labels")
			cfg.PolicyPath = c.String("policy")
			cfg.ModelLayout = c.String("layout")
			cfg.ConfidenceThreshold = c.Float64("conf")
			cfg.NMSThreshold = c.Float64("nms")
			cfg.InferenceTimeout = c.Duration("inference-timeout")
			cfg.RetryInference = c.Bool("retry-inference")
			if c.Bool("headless") {
				cfg.DisplayMode = config.DisplayHeadless
			}
			cfg.MaxFrames = c.Int("max-frames")
			cfg.Pipelined = c.Bool("pipelined")
			cfg.MetricsAddr = c.String("metrics-addr")
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
	logr, cleanup, err := logger.New(logger.Config{Name: "detector", Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	det, err := container.NewDetector(cfg, logr)
	if err != nil {
		logr.Errorw("failed to start detection", "error", err)
		return err
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := det.Metrics.Serve(ctx, cfg.MetricsAddr, logr); err != nil {
				logr.Errorw("metrics server stopped", "error", err)
			}
		}()
	}

	stats, err := det.Session.Run(ctx)
	logr.Infow("detection finished",
		"session", stats.SessionID,
		"reason", stats.Reason,
		"frames", stats.FramesPresented,
		"alerts", stats.Alerts,
	)
	return err
}
