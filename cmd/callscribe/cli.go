package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/callscribe/internal/config"
	"github.com/hpungsan/callscribe/internal/db"
	"github.com/hpungsan/callscribe/internal/errors"
	"github.com/hpungsan/callscribe/internal/inference"
	"github.com/hpungsan/callscribe/internal/ingest"
	"github.com/hpungsan/callscribe/internal/ops"
	"github.com/hpungsan/callscribe/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "callscribe",
		Usage:   "Voice call transcription and classification service",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(database, cfg),
			reindexCmd(database, cfg),
			categoriesCmd(database),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd runs the HTTP API.
func serveCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (overrides config)"},
			&cli.StringFlag{Name: "inference-url", Usage: "Model server base URL (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			addr := cfg.Addr
			if v := c.String("addr"); v != "" {
				addr = v
			}
			inferenceURL := cfg.InferenceURL
			if v := c.String("inference-url"); v != "" {
				inferenceURL = v
			}

			guard, ingestor := buildPipeline(cfg, inferenceURL)
			srv := web.NewServer(database, guard, ingestor, addr)
			return web.Run(srv)
		},
	}
}

// reindexCmd recomputes membership for one category across the whole corpus.
func reindexCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "reindex",
		Usage:     "Reclassify every call against a category",
		ArgsUsage: "<category-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "inference-url", Usage: "Model server base URL (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("category id argument is required"))
			}
			var id int64
			if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil {
				return outputError(errors.NewInvalidRequest("category id must be an integer"))
			}

			category, err := db.GetCategory(database, id)
			if err != nil {
				return outputError(err)
			}

			inferenceURL := cfg.InferenceURL
			if v := c.String("inference-url"); v != "" {
				inferenceURL = v
			}
			guard, _ := buildPipeline(cfg, inferenceURL)

			output, err := ops.Reindex(c.Context, database, guard, ops.ReindexInput{Category: category})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// categoriesCmd lists the category catalog.
func categoriesCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List the category catalog as JSON",
		Action: func(c *cli.Context) error {
			categories, err := ops.ListCategories(database)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(categories)
		},
	}
}

// buildPipeline wires the remote engines behind the guard plus the ingestor.
func buildPipeline(cfg *config.Config, inferenceURL string) (*inference.Guard, *ingest.Ingestor) {
	remote := inference.NewRemote(inferenceURL)
	guard := inference.NewGuard(inference.Engines{
		Transcriber: remote,
		Sentiment:   remote,
		Entities:    remote,
		ZeroShot:    remote,
	})
	return guard, ingest.New(db.ContentDir(cfg.BaseDir))
}

// outputJSON writes indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError prints a structured error to stderr and returns it.
func outputError(err error) error {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.NewInternal(err)
	}
	fmt.Fprintf(os.Stderr, "error [%s]: %s\n", appErr.Code, appErr.Message)
	return err
}
