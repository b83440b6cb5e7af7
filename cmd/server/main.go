package main

import (
	"time"

	"github.com/mlkg-org/backend/internal/server"
	"github.com/mlkg-org/backend/internal/util"
	"github.com/mlkg-org/backend/pkg/ai"
	oai "github.com/mlkg-org/backend/pkg/ai/ollama"
	gai "github.com/mlkg-org/backend/pkg/ai/openai"
	"github.com/mlkg-org/backend/pkg/logger"
	"github.com/mlkg-org/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init(newAIClient())
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
