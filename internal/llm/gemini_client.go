package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"fx-agent/internal/tools"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiClient drives Google's Gemini models through the vendor-native SDK.
// It is the second of the two equivalent client paths: same agent loop, same
// tool catalog, different wire format.
type GeminiClient struct {
	client *genai.GenerativeModel
}

var _ LLMClient = (*GeminiClient)(nil)

func NewGeminiClient(apiKey, modelID string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(modelID)
	return &GeminiClient{client: model}, nil
}

// Generate performs a standard, blocking request through the SDK's chat API.
func (c *GeminiClient) Generate(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (*GenerationResult, error) {
	if len(messages) == 0 {
		return nil, errors.New("gemini requires at least one message")
	}
	c.configureModel(config, availableTools)
	chat := c.client.StartChat()
	chat.History = toGeminiHistory(messages[:len(messages)-1])

	parts := toGeminiParts(messages[len(messages)-1], collectCallNames(messages))
	resp, err := chat.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseGeminiResponse(ctx, c.client, resp)
}

// GenerateStream performs a streaming request. Tool calls are not streamed
// by this path; callers that need tools use Generate.
func (c *GeminiClient) GenerateStream(
	ctx context.Context,
	messages []Message,
	config *GenerationConfig,
	availableTools []tools.Tool,
) (<-chan *StreamingResult, error) {
	if len(messages) == 0 {
		return nil, errors.New("gemini requires at least one message")
	}
	c.configureModel(config, availableTools)
	chat := c.client.StartChat()
	chat.History = toGeminiHistory(messages[:len(messages)-1])
	parts := toGeminiParts(messages[len(messages)-1], collectCallNames(messages))

	outChan := make(chan *StreamingResult)
	go func() {
		defer close(outChan)
		iter := chat.SendMessageStream(ctx, parts...)
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				outChan <- &StreamingResult{Err: fmt.Errorf("gemini stream error: %w", err)}
				return
			}
			if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
				var contentBuilder strings.Builder
				for _, part := range resp.Candidates[0].Content.Parts {
					if txt, ok := part.(genai.Text); ok {
						contentBuilder.WriteString(string(txt))
					}
				}
				outChan <- &StreamingResult{ContentDelta: contentBuilder.String()}
			}
		}
	}()
	return outChan, nil
}

// configureModel applies generation settings through the SDK's setters and
// attaches or clears the tool catalog.
func (c *GeminiClient) configureModel(config *GenerationConfig, availableTools []tools.Tool) {
	if config != nil {
		if config.Temperature != nil {
			c.client.SetTemperature(*config.Temperature)
		}
		if config.TopP != nil {
			c.client.SetTopP(*config.TopP)
		}
		if config.MaxTokens > 0 {
			c.client.SetMaxOutputTokens(int32(config.MaxTokens))
		} else {
			c.client.SetMaxOutputTokens(4096)
		}
	} else {
		c.client.SetMaxOutputTokens(4096)
	}

	if len(availableTools) > 0 {
		c.client.Tools = toGeminiTools(availableTools)
	} else {
		c.client.Tools = nil
	}
}

func toGeminiTools(toolsToConvert []tools.Tool) []*genai.Tool {
	var geminiTools []*genai.Tool
	for _, t := range toolsToConvert {
		funcDecl := &genai.FunctionDeclaration{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  convertSchema(t.Function.Parameters),
		}
		geminiTools = append(geminiTools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{funcDecl},
		})
	}
	return geminiTools
}

// convertSchema maps our JSONSchema onto the SDK's schema type.
func convertSchema(s tools.JSONSchema) *genai.Schema {
	genaiSchema := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}
	switch s.Type {
	case "object":
		genaiSchema.Type = genai.TypeObject
	case "string":
		genaiSchema.Type = genai.TypeString
	case "number":
		genaiSchema.Type = genai.TypeNumber
	case "integer":
		genaiSchema.Type = genai.TypeInteger
	case "boolean":
		genaiSchema.Type = genai.TypeBoolean
	case "array":
		genaiSchema.Type = genai.TypeArray
	}
	if s.Properties != nil {
		genaiSchema.Properties = make(map[string]*genai.Schema)
		for k, v := range s.Properties {
			genaiSchema.Properties[k] = convertSchema(*v)
		}
	}
	return genaiSchema
}

// collectCallNames maps every announced tool-call id to its function name.
// Gemini correlates function responses by name rather than by id, so tool
// turns need the name of the call they answer.
func collectCallNames(messages []Message) map[string]string {
	names := make(map[string]string)
	for _, msg := range messages {
		for _, tc := range msg.ToolCalls {
			names[tc.ID] = tc.Function.Name
		}
	}
	return names
}

// toGeminiParts converts one transcript turn into SDK content parts.
func toGeminiParts(msg Message, callNames map[string]string) []genai.Part {
	switch msg.Role {
	case RoleTool:
		var response map[string]any
		if err := json.Unmarshal([]byte(msg.Content), &response); err != nil {
			// Non-object payloads still have to reach the model somehow.
			response = map[string]any{"result": msg.Content}
		}
		return []genai.Part{genai.FunctionResponse{
			Name:     callNames[msg.ToolCallID],
			Response: response,
		}}
	case RoleAssistant:
		var parts []genai.Part
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
		for _, tc := range msg.ToolCalls {
			var args map[string]any
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				args = map[string]any{}
			}
			parts = append(parts, genai.FunctionCall{Name: tc.Function.Name, Args: args})
		}
		return parts
	default:
		return []genai.Part{genai.Text(msg.Content)}
	}
}

// toGeminiHistory converts prior turns into SDK content history.
func toGeminiHistory(messages []Message) []*genai.Content {
	callNames := collectCallNames(messages)
	var history []*genai.Content
	for _, msg := range messages {
		role := "user"
		switch msg.Role {
		case RoleAssistant:
			role = "model"
		case RoleTool:
			role = "function"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: toGeminiParts(msg, callNames),
		})
	}
	return history
}

// parseGeminiResponse converts an SDK response into a GenerationResult,
// synthesizing call ids since the SDK does not provide any.
func parseGeminiResponse(
	ctx context.Context,
	client *genai.GenerativeModel,
	resp *genai.GenerateContentResponse,
) (*GenerationResult, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no content returned from Gemini")
	}

	candidate := resp.Candidates[0]
	var contentBuilder strings.Builder
	var toolCalls []*tools.ToolCall

	for i, part := range candidate.Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			contentBuilder.WriteString(string(v))
		case genai.FunctionCall:
			argsJSON, err := json.Marshal(v.Args)
			if err != nil {
				log.Printf("Warning: could not marshal tool call args: %v", err)
				continue
			}
			toolCalls = append(toolCalls, &tools.ToolCall{
				ID:   fmt.Sprintf("gemini-toolcall-%s-%d", v.Name, i),
				Type: tools.ToolTypeFunction,
				Function: tools.ToolCallFunction{
					Name:      v.Name,
					Arguments: string(argsJSON),
				},
			})
		}
	}

	result := &GenerationResult{
		Content:   strings.TrimSpace(contentBuilder.String()),
		ToolCalls: toolCalls,
	}

	if resp.UsageMetadata != nil {
		result.Usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.Usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		result.Usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	// Some responses omit completion tokens from the metadata; count them
	// manually so usage accounting stays meaningful.
	if result.Usage.CompletionTokens == 0 && result.Content != "" {
		countResp, err := client.CountTokens(ctx, genai.Text(result.Content))
		if err != nil {
			log.Printf("Warning: failed to manually count completion tokens: %v", err)
		} else {
			result.Usage.CompletionTokens = int(countResp.TotalTokens)
			result.Usage.TotalTokens = result.Usage.PromptTokens + result.Usage.CompletionTokens
		}
	}

	return result, nil
}
