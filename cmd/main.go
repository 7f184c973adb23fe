package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"example/vision-batch/internal/config"
	"example/vision-batch/internal/gemini"
	"example/vision-batch/internal/service"
	"example/vision-batch/internal/vision"
)

const usage = "Usage: vision <folder>\n  folder = Path to folder to analyze."

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:      "vision",
		Usage:     "Analyze every image in a folder and save each response as formatted JSON",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log level: debug, info, warn, error",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Settings file with APIEndpoint and APIKey",
				Value: config.DefaultSettingsFile,
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Analysis backend: vision or gemini",
			},
			&cli.IntFlag{
				Name:  "concurrent",
				Usage: "Number of images analyzed at the same time",
			},
			&cli.StringFlag{
				Name:  "pattern",
				Usage: "File name pattern to analyze, empty for any image type",
			},
			&cli.BoolFlag{
				Name:  "recursive",
				Usage: "Include images in sub folders",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Write results here instead of next to each image",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := log.ParseLevel(cmd.String("log"))
			if err != nil {
				return ctx, err
			}
			log.SetLevel(level)
			log.SetReportTimestamp(true)
			return ctx, nil
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	folder := cmd.Args().First()
	if folder == "" {
		folder = cfg.ImageDir
	}
	if folder == "" {
		return cli.Exit(usage, 1)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	analyzer, err := newAnalyzer(ctx, cfg)
	if err != nil {
		return err
	}

	processor := service.NewImageProcessor(analyzer, service.Options{
		Concurrent: cfg.Concurrent,
		Pattern:    cfg.Pattern,
		Recursive:  cfg.Recursive,
		OutputDir:  cfg.OutputDir,
		Out:        os.Stdout,
	})

	summary, err := processor.ProcessImages(ctx, folder)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d images failed", summary.Failed, summary.Total), 1)
	}

	log.Info("BatchInvoke completed successfully.")
	return nil
}

func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("backend") {
		cfg.Backend = strings.ToLower(cmd.String("backend"))
	}
	if cmd.IsSet("concurrent") {
		cfg.Concurrent = int(cmd.Int("concurrent"))
	}
	if cmd.IsSet("pattern") {
		cfg.Pattern = cmd.String("pattern")
	}
	if cmd.IsSet("recursive") {
		cfg.Recursive = cmd.Bool("recursive")
	}
	if cmd.IsSet("output-dir") {
		cfg.OutputDir = cmd.String("output-dir")
	}
}

func newAnalyzer(ctx context.Context, cfg *config.Config) (service.Analyzer, error) {
	switch cfg.Backend {
	case config.BackendGemini:
		client, err := gemini.SetupClient(ctx, cfg.Project, cfg.Location)
		if err != nil {
			return nil, err
		}
		return service.NewGeminiAnalyzer(client, cfg.Model, cfg.Language), nil
	default:
		client := vision.NewClient(vision.Options{
			Endpoint:       cfg.Endpoint,
			APIKey:         cfg.APIKey,
			VisualFeatures: cfg.VisualFeatures,
			Language:       cfg.Language,
			Details:        cfg.Details,
			Timeout:        cfg.Timeout,
			RetryMax:       cfg.RetryMax,
		})
		return service.NewVisionAnalyzer(client), nil
	}
}
