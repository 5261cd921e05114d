// Package llm contains the model client layer: the conversation message
// types, the generation configuration, and the LLMClient interface with its
// two implementations (an OpenAI-compatible chat-completions client and the
// native Gemini SDK client). Both drive the same agent loop.
package llm

import (
	"context"

	"fx-agent/internal/api"
	"fx-agent/internal/tools"
)

// Role identifies the originator of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single turn in a conversation transcript. The transcript is
// append-only: turns are never mutated once added.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// ToolCallID ties a tool turn back to the assistant call that requested it.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolCalls carries the calls an assistant turn announced.
	ToolCalls []*tools.ToolCall `json:"tool_calls,omitempty"`
}

// GenerationConfig controls the model's generation behavior. Pointer fields
// distinguish "unset" from an explicit zero.
type GenerationConfig struct {
	Model       string
	Temperature *float32
	MaxTokens   int
	TopP        *float32
}

// GenerationResult is the complete output of one model round-trip: either
// free text, or one or more tool calls in the order the model emitted them.
// That order is the only determinism guarantee the endpoint gives us and is
// preserved all the way through the agent loop.
type GenerationResult struct {
	Content   string
	ToolCalls []*tools.ToolCall
	Usage     api.Usage
}

// StreamingResult is one chunk of a streamed response.
type StreamingResult struct {
	ContentDelta  string
	ToolCallChunk *tools.ToolCall
	Usage         *api.Usage
	Err           error
}

// LLMClient is the interface every provider client implements. The agent
// loop only ever sees this; provider wire formats stay inside the clients.
type LLMClient interface {
	// Generate performs one blocking request with the full transcript and the
	// tool catalog, and returns the complete result.
	Generate(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (*GenerationResult, error)

	// GenerateStream performs a streaming request. The returned channel is
	// closed when the stream ends; errors are delivered on the channel.
	GenerateStream(
		ctx context.Context,
		messages []Message,
		config *GenerationConfig,
		availableTools []tools.Tool,
	) (<-chan *StreamingResult, error)
}
