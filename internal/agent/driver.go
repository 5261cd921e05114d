// Package agent implements the tool-call resolution loop: it combines a
// conversation transcript, a tool catalog and a tool registry into a final
// natural-language answer, executing whatever tool calls the model requests
// along the way.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fx-agent/internal/api"
	"fx-agent/internal/llm"
	"fx-agent/internal/tools"
)

// DefaultMaxToolRounds bounds the loop to a single tool-resolution round:
// one query that may request tools, then one follow-up that must answer.
const DefaultMaxToolRounds = 1

// Config controls one driver instance. The zero value is not usable; Model
// must be set.
type Config struct {
	Model string
	// MaxToolRounds is the number of tool-resolution rounds allowed before
	// the model is forced to answer in text. Zero selects the default.
	MaxToolRounds int
	Temperature   *float32
	MaxTokens     int
	TopP          *float32
}

// Result is the outcome of one completed query.
type Result struct {
	// Content is the model's final natural-language answer.
	Content string
	// Usage accumulates token consumption across every round of the loop.
	Usage api.Usage
	// ToolCalls counts the tool invocations performed while answering.
	ToolCalls int
}

// Driver owns the conversation loop for one query at a time. It holds no
// per-query state: the transcript lives on the stack of Ask and is discarded
// when the answer is returned, so a single Driver can serve queries
// back-to-back (though not concurrently over one transcript).
type Driver struct {
	client llm.LLMClient
	tools  *tools.ToolManager
	cfg    Config
}

func New(client llm.LLMClient, toolManager *tools.ToolManager, cfg Config) *Driver {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	return &Driver{
		client: client,
		tools:  toolManager,
		cfg:    cfg,
	}
}

// Ask runs one query to completion. The supplied history (possibly empty) is
// extended with the user's prompt, the model is queried with the tool
// catalog attached, any requested tool calls are executed sequentially in
// the order the model returned them, and the model is re-queried with the
// results appended until it answers in text.
//
// Failure semantics: a fault from the model endpoint is fatal and returned
// to the caller. A fault from an individual tool is not — it is serialized
// into the transcript as a tool turn so the model can explain the failure in
// its final answer.
func (d *Driver) Ask(ctx context.Context, history []llm.Message, prompt string) (*Result, error) {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	genConfig := &llm.GenerationConfig{
		Model:       d.cfg.Model,
		Temperature: d.cfg.Temperature,
		MaxTokens:   d.cfg.MaxTokens,
		TopP:        d.cfg.TopP,
	}

	catalog := d.tools.GetDefinitions()
	result := &Result{}

	// Each iteration is one model round-trip. The catalog is withheld on the
	// final budgeted round so the model cannot request further tools and the
	// loop stays bounded even against a model that always asks for more.
	for round := 0; round <= d.cfg.MaxToolRounds; round++ {
		available := catalog
		if round == d.cfg.MaxToolRounds {
			available = nil
		}

		generation, err := d.client.Generate(ctx, messages, genConfig, available)
		if err != nil {
			return nil, fmt.Errorf("model query failed: %w", err)
		}
		result.Usage.Add(generation.Usage)

		if len(generation.ToolCalls) == 0 {
			result.Content = generation.Content
			return result, nil
		}

		// The model's own tool-call-announcing turn goes into the transcript
		// first, then one tool turn per call, in response order.
		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   generation.Content,
			ToolCalls: generation.ToolCalls,
		})
		for _, toolCall := range generation.ToolCalls {
			log.Printf("Executing tool %s (id %s) with args: %s",
				toolCall.Function.Name, toolCall.ID, toolCall.Function.Arguments)
			toolResult := d.tools.Execute(toolCall.Function.Name, toolCall.Function.Arguments)
			if toolResult.Failed() {
				log.Printf("Tool %s failed: %s", toolCall.Function.Name, toolResult.Error)
			}
			result.ToolCalls++
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: toolCall.ID,
				Content:    toolResult.Content(),
			})
		}
	}

	// Only reachable if the model emits tool calls with no catalog attached.
	return nil, errors.New("tool round budget exhausted without a final answer")
}
