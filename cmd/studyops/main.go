// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/poiesic/studyops"
	"github.com/poiesic/studyops/config"
	"github.com/poiesic/studyops/core"
	"github.com/poiesic/studyops/health"
	"github.com/poiesic/studyops/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file",
		Value:   config.DefaultPath,
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "studyops",
		Usage:  "Ingest local notes and documents into a chunk store",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with STUDYOPS_* overrides",
				Value: ".env",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest documents from a directory (md/txt/pdf), chunk them, and store them",
				ArgsUsage: "PATH",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files to process concurrently",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "progress",
						Usage: "Report progress to stderr every N files (0 disables)",
						Value: 0,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each store write",
						Value: ingestion.DefaultRetryAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: ingestion.DefaultRetryBaseDelay,
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Check local dependencies (Redis / Neo4j) connectivity",
				Action: healthCommand,
				Flags: []cli.Flag{
					configFlag(),
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Timeout for each check",
						Value: health.DefaultTimeout,
					},
				},
			},
			{
				Name:   "count",
				Usage:  "Print the number of chunks in the configured collection",
				Action: countCommand,
				Flags: []cli.Flag{
					configFlag(),
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("ingest requires exactly one PATH argument")
	}
	path := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}
	if c.Int("progress") < 0 {
		return fmt.Errorf("progress must not be negative")
	}

	opts := []ingestion.Option{
		ingestion.WithWorkers(c.Int("workers")),
		ingestion.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
	}
	if n := c.Int("progress"); n > 0 {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter, n))
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	result, err := studyops.IngestPath(ctx, path, cfg.StoreConfig(), cfg.ChunkConfig(), opts...)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("ingest failed: %w", err)
	}

	printReport(c.App.Writer, result)
	if err != nil {
		return fmt.Errorf("ingest interrupted: %w", err)
	}
	return nil
}

func printReport(w io.Writer, result core.IngestResult) {
	fmt.Fprintln(w, "Ingest done.")
	fmt.Fprintf(w, "- Files found:    %d\n", result.FilesTotal)
	fmt.Fprintf(w, "- Docs ingested:  %d\n", result.DocsOK)
	fmt.Fprintf(w, "- Docs skipped:   %d\n", result.DocsSkipped)
	fmt.Fprintf(w, "- Chunks written: %d\n", result.ChunksWritten)
}

func healthCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	for _, res := range health.Run(c.Context, cfg, c.Duration("timeout"), slog.Default()) {
		fmt.Fprintln(c.App.Writer, res.String())
	}
	return nil
}

func countCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := studyops.Open(cfg.StoreConfig())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	n, err := db.ChunkRepository().Count(c.Context)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "%s: %d chunks\n", cfg.Store.Collection, n)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
