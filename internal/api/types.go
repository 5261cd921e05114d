// Package api holds the public request and response types of the agent's
// HTTP surface, kept separate from the internal llm types so the wire format
// can evolve independently of the client layer.
package api

// Usage tracks token consumption for a generation request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage record, e.g. across the rounds of a tool loop.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Message is one prior conversation turn supplied by the caller.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Prompt  string    `json:"prompt" binding:"required"`
	History []Message `json:"history,omitempty"`
}

// AskResponse is the agent's answer plus bookkeeping about how it was produced.
type AskResponse struct {
	Content     string `json:"content"`
	ModelUsed   string `json:"model_used"`
	Usage       Usage  `json:"usage"`
	LatencyMS   int64  `json:"latency_ms"`
	ToolCalls   int    `json:"tool_calls"`
	CacheStatus string `json:"cache_status,omitempty"`
}
