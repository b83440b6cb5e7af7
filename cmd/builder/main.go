package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlkg-org/backend/internal/util"
	"github.com/mlkg-org/backend/pkg/ai"
	oai "github.com/mlkg-org/backend/pkg/ai/ollama"
	gai "github.com/mlkg-org/backend/pkg/ai/openai"
	"github.com/mlkg-org/backend/pkg/logger"
	"github.com/mlkg-org/backend/pkg/logger/console"
	"github.com/mlkg-org/backend/pkg/pipeline"
	graphstorage "github.com/mlkg-org/backend/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

// builder runs one graph build from the command line, without the queue.
func main() {
	inputPath := flag.String("input", "", "path to the chunks-and-mentions JSON file")
	outputDir := flag.String("output", "out", "directory for serialized graph files")
	persist := flag.Bool("persist", false, "store the graph in PostgreSQL (DATABASE_URL)")
	flag.Parse()

	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aiClient := newAIClient()

	input, err := pipeline.ReadInput(*inputPath)
	if err != nil {
		logger.Fatal("Failed to read input", "path", *inputPath, "err", err)
	}

	builder := pipeline.New()
	builder.OutputDir = *outputDir

	if *persist {
		databaseURL := util.GetEnv("DATABASE_URL")
		if err := graphstorage.Migrate(databaseURL); err != nil {
			logger.Fatal("Failed to run migrations", "err", err)
		}
		pgConn, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			logger.Fatal("Unable to connect to database", "err", err)
		}
		defer pgConn.Close()
		builder.Storage = graphstorage.NewStorageWithConnection(pgConn)
	}

	result, err := builder.Build(ctx, input, aiClient)
	if err != nil {
		logger.Fatal("Build failed", "err", err)
	}

	fmt.Println(result.Stats.Graph.Report())

	metrics := aiClient.GetMetrics()
	logger.Info("Build completed",
		"entities", len(result.Entities),
		"relations", len(result.Relations),
		"triples", result.Graph.Len(),
		"oracle_requests", metrics.Requests,
		"duration_ms", result.Stats.DurationMs,
	)
}

func newAIClient() ai.Client {
	maxConcurrent := int64(util.GetEnvInt("AI_MAX_CONCURRENT", 4))
	timeout := time.Duration(util.GetEnvInt("AI_REQUEST_TIMEOUT", 120)) * time.Second

	switch util.GetEnv("AI_ADAPTER") {
	case "ollama":
		client, err := oai.NewClient(oai.NewClientParams{
			Model:   util.GetEnv("AI_CHAT_MODEL"),
			BaseURL: util.GetEnv("AI_CHAT_URL"),
			APIKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: maxConcurrent,
			RequestTimeout:        timeout,
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewClient(gai.NewClientParams{
			Model:   util.GetEnv("AI_CHAT_MODEL"),
			BaseURL: util.GetEnv("AI_CHAT_URL"),
			APIKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: maxConcurrent,
			RequestTimeout:        timeout,
		})
	}
}
