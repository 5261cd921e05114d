package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"fx-agent/internal/agent"
	"fx-agent/internal/api"
	"fx-agent/internal/llm"
	versionpkg "fx-agent/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const responseCachePrefix = "fxcache"

// AskHandler serves POST /api/v1/ask: check the response cache, run the
// agent loop, cache and return the answer.
type AskHandler struct {
	driver *agent.Driver
	config *AppConfig
	rdb    *redis.Client
}

func NewAskHandler(driver *agent.Driver, config *AppConfig, rdb *redis.Client) *AskHandler {
	return &AskHandler{
		driver: driver,
		config: config,
		rdb:    rdb,
	}
}

func (h *AskHandler) HandleAsk(c *gin.Context) {
	startTime := time.Now()
	var req api.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	log.Printf("--- New request (prompt: '%.40s...') ---", req.Prompt)

	// Only history-free prompts are cacheable: the same question in a
	// different conversation context can deserve a different answer.
	cacheKey := versionpkg.CacheKey(responseCachePrefix, req.Prompt)
	if len(req.History) == 0 {
		if cached, found := h.checkCache(c.Request.Context(), cacheKey); found {
			var cachedResp api.AskResponse
			if json.Unmarshal([]byte(cached), &cachedResp) == nil {
				log.Println("Cache HIT")
				cachedResp.LatencyMS = time.Since(startTime).Milliseconds()
				cachedResp.CacheStatus = "HIT"
				c.JSON(http.StatusOK, cachedResp)
				return
			}
		}
		log.Println("Cache MISS")
	}

	result, err := h.driver.Ask(c.Request.Context(), toDriverHistory(req.History), req.Prompt)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	resp := api.AskResponse{
		Content:     result.Content,
		ModelUsed:   h.config.Model,
		Usage:       result.Usage,
		LatencyMS:   time.Since(startTime).Milliseconds(),
		ToolCalls:   result.ToolCalls,
		CacheStatus: "MISS",
	}

	if len(req.History) == 0 {
		h.setCache(c.Request.Context(), cacheKey, resp)
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AskHandler) checkCache(ctx context.Context, key string) (string, bool) {
	if h.rdb == nil {
		return "", false
	}
	val, err := h.rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (h *AskHandler) setCache(ctx context.Context, key string, resp api.AskResponse) {
	if h.rdb == nil {
		return
	}
	respBytes, err := json.Marshal(resp)
	if err != nil {
		log.Printf("WARNING: Failed to marshal response for caching: %v", err)
		return
	}
	if err := h.rdb.Set(ctx, key, respBytes, h.config.ResponseTTL).Err(); err != nil {
		log.Printf("WARNING: Failed to cache response: %v", err)
	}
}

// toDriverHistory converts the public API message history to the internal
// transcript type. Only user and assistant roles are accepted from callers;
// tool turns are always produced by the driver itself.
func toDriverHistory(apiMessages []api.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(apiMessages))
	for _, msg := range apiMessages {
		role := llm.Role(msg.Role)
		if role != llm.RoleUser && role != llm.RoleAssistant && role != llm.RoleSystem {
			continue
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}
	return messages
}
