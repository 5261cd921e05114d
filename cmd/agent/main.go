package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fx-agent/internal/agent"
	"fx-agent/internal/llm"
	"fx-agent/internal/tools"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// main is the composition root: it loads configuration, builds the model
// client and the tool registry, wires them into the agent driver, and runs
// the HTTP server.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := GetBuildInfo()
	log.Printf("Starting fx-agent | Version: %s | Commit: %s", buildInfo.Version, buildInfo.GitCommit)

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Configuration error: %v", err)
	}
	log.Println("Configuration loaded.")

	client, err := initializeLLMClient(cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	toolManager, err := initializeToolManager(cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	driver := agent.New(client, toolManager, agent.Config{
		Model:         cfg.Model,
		MaxToolRounds: cfg.Agent.MaxToolRounds,
		Temperature:   cfg.Agent.Temperature,
		MaxTokens:     cfg.Agent.MaxTokens,
		TopP:          cfg.Agent.TopP,
	})

	// Redis is optional: without it every request goes straight to the model.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("FATAL: Could not connect to Redis at %s: %v", cfg.RedisAddr, err)
		}
		log.Println("Response cache connected.")
	} else {
		log.Println("REDIS_ADDR not set, response caching disabled.")
	}

	handler := NewAskHandler(driver, cfg, rdb)
	log.Println("All services initialized.")

	gin.SetMode(os.Getenv("GIN_MODE"))
	engine := gin.Default()
	v1 := engine.Group("/api/v1")
	{
		v1.POST("/ask", handler.HandleAsk)
	}

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
	runServerWithGracefulShutdown(srv)
}

// initializeLLMClient picks the provider path from the model id prefix:
// "gpt*" goes through the OpenAI-compatible client, "gemini*" through the
// vendor SDK. Both drive the identical agent loop.
func initializeLLMClient(cfg *AppConfig) (llm.LLMClient, error) {
	switch {
	case strings.HasPrefix(cfg.Model, "gpt"):
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client for %s: %w", cfg.Model, err)
		}
		return client, nil
	case strings.HasPrefix(cfg.Model, "gemini"):
		client, err := llm.NewGeminiClient(cfg.GeminiKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client for %s: %w", cfg.Model, err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown model provider for %q", cfg.Model)
	}
}

// initializeToolManager registers the tool catalog. Registration failures are
// fatal: a tool with a broken schema must never reach the model.
func initializeToolManager(cfg *AppConfig) (*tools.ToolManager, error) {
	manager := tools.NewToolManager()

	if err := manager.Register(tools.NewExchangeRateTool(cfg.ExchangeAPIURL)); err != nil {
		return nil, fmt.Errorf("failed to register exchange rate tool: %w", err)
	}
	if err := manager.Register(tools.NewCurrenciesTool(cfg.ExchangeAPIURL)); err != nil {
		return nil, fmt.Errorf("failed to register currencies tool: %w", err)
	}

	log.Printf("Tool manager initialized with %d tools.", manager.ToolCount())
	return manager, nil
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server) {
	go func() {
		log.Printf("Agent is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Listen error: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server shutdown failed:", err)
	}

	log.Println("Server exited gracefully.")
}
