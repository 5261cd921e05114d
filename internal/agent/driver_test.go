package agent_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fx-agent/internal/agent"
	"fx-agent/internal/api"
	"fx-agent/internal/llm"
	"fx-agent/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateCall records one Generate invocation for later inspection.
type generateCall struct {
	messages []llm.Message
	tools    []tools.Tool
}

// fakeClient returns scripted results in order, recording every call.
type fakeClient struct {
	results []*llm.GenerationResult
	errs    []error
	calls   []generateCall
}

func (f *fakeClient) Generate(ctx context.Context, messages []llm.Message, config *llm.GenerationConfig, availableTools []tools.Tool) (*llm.GenerationResult, error) {
	// Copy the transcript: the driver appends to its own slice and a shared
	// backing array would let later rounds corrupt the recording.
	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	f.calls = append(f.calls, generateCall{messages: snapshot, tools: availableTools})

	i := len(f.calls) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i >= len(f.results) {
		return nil, errors.New("fakeClient: no scripted result left")
	}
	return f.results[i], nil
}

func (f *fakeClient) GenerateStream(ctx context.Context, messages []llm.Message, config *llm.GenerationConfig, availableTools []tools.Tool) (<-chan *llm.StreamingResult, error) {
	return nil, errors.New("fakeClient: streaming not scripted")
}

// echoTool is a registered tool whose executions are observable.
type echoTool struct {
	name    string
	payload string
	err     error
	argLog  []string
}

func (e *echoTool) Definition() tools.Tool {
	return tools.NewFunctionTool(e.name, "test tool", tools.JSONSchema{
		Type:       "object",
		Properties: map[string]*tools.JSONSchema{},
	})
}

func (e *echoTool) Execute(arguments string) ([]byte, error) {
	e.argLog = append(e.argLog, arguments)
	if e.err != nil {
		return nil, e.err
	}
	return []byte(e.payload), nil
}

func toolCall(id, name, args string) *tools.ToolCall {
	return &tools.ToolCall{
		ID:   id,
		Type: tools.ToolTypeFunction,
		Function: tools.ToolCallFunction{
			Name:      name,
			Arguments: args,
		},
	}
}

func newDriver(client llm.LLMClient, executors ...tools.ToolExecutor) *agent.Driver {
	tm := tools.NewToolManager()
	for _, e := range executors {
		if err := tm.Register(e); err != nil {
			panic(err)
		}
	}
	return agent.New(client, tm, agent.Config{Model: "gpt-4o"})
}

func TestAskReturnsDirectAnswerWithoutTools(t *testing.T) {
	require := require.New(t)

	client := &fakeClient{results: []*llm.GenerationResult{
		{Content: "Hello! How can I help?", Usage: api.Usage{TotalTokens: 10}},
	}}
	tool := &echoTool{name: "get_exchange_rate", payload: `{}`}
	driver := newDriver(client, tool)

	result, err := driver.Ask(context.Background(), nil, "hello")
	require.NoError(err)

	// Text passthrough, single query, zero tool invocations.
	require.Equal("Hello! How can I help?", result.Content)
	require.Equal(0, result.ToolCalls)
	require.Len(client.calls, 1)
	require.Empty(tool.argLog)

	// The catalog was attached and the user turn appended.
	require.Len(client.calls[0].tools, 1)
	last := client.calls[0].messages[len(client.calls[0].messages)-1]
	require.Equal(llm.RoleUser, last.Role)
	require.Equal("hello", last.Content)
}

func TestAskResolvesSingleToolCall(t *testing.T) {
	require := require.New(t)

	client := &fakeClient{results: []*llm.GenerationResult{
		{
			ToolCalls: []*tools.ToolCall{
				toolCall("call_abc", "get_exchange_rate", `{"currency_from":"USD","currency_to":"EUR"}`),
			},
			Usage: api.Usage{PromptTokens: 20, CompletionTokens: 5, TotalTokens: 25},
		},
		{
			Content: "100 USD is about 88.645 EUR.",
			Usage:   api.Usage{PromptTokens: 40, CompletionTokens: 10, TotalTokens: 50},
		},
	}}
	tool := &echoTool{name: "get_exchange_rate", payload: `{"amount":100,"rates":{"EUR":88.645}}`}
	driver := newDriver(client, tool)

	result, err := driver.Ask(context.Background(), nil, "100 usd to eur")
	require.NoError(err)

	require.Contains(result.Content, "88.645")
	require.Equal(1, result.ToolCalls)
	require.Equal(75, result.Usage.TotalTokens)

	// Exactly one execution, exactly one follow-up query.
	require.Len(tool.argLog, 1)
	require.Len(client.calls, 2)

	// The follow-up transcript carries the assistant's announcing turn and a
	// tool turn tagged with the original call id.
	followUp := client.calls[1].messages
	require.Len(followUp, 3)
	require.Equal(llm.RoleAssistant, followUp[1].Role)
	require.Len(followUp[1].ToolCalls, 1)
	require.Equal("call_abc", followUp[1].ToolCalls[0].ID)
	require.Equal(llm.RoleTool, followUp[2].Role)
	require.Equal("call_abc", followUp[2].ToolCallID)
	require.Contains(followUp[2].Content, "88.645")

	// The final budgeted round withholds the catalog.
	require.Empty(client.calls[1].tools)
}

func TestAskExecutesMultipleCallsInResponseOrder(t *testing.T) {
	require := require.New(t)

	client := &fakeClient{results: []*llm.GenerationResult{
		{
			ToolCalls: []*tools.ToolCall{
				toolCall("call_1", "get_exchange_rate", `{"n":1}`),
				toolCall("call_2", "list_currencies", `{"n":2}`),
				toolCall("call_3", "get_exchange_rate", `{"n":3}`),
			},
		},
		{Content: "done"},
	}}
	rates := &echoTool{name: "get_exchange_rate", payload: `{"rates":{}}`}
	currencies := &echoTool{name: "list_currencies", payload: `{"EUR":"Euro"}`}
	driver := newDriver(client, rates, currencies)

	result, err := driver.Ask(context.Background(), nil, "compare some currencies")
	require.NoError(err)
	require.Equal(3, result.ToolCalls)

	// All three resolved before the single follow-up query.
	require.Len(client.calls, 2)
	require.Equal([]string{`{"n":1}`, `{"n":3}`}, rates.argLog)
	require.Equal([]string{`{"n":2}`}, currencies.argLog)

	// Tool turns appear in response order, each with its own call id.
	followUp := client.calls[1].messages
	require.Len(followUp, 5)
	require.Equal("call_1", followUp[2].ToolCallID)
	require.Equal("call_2", followUp[3].ToolCallID)
	require.Equal("call_3", followUp[4].ToolCallID)
}

func TestAskFoldsToolFailureIntoTranscript(t *testing.T) {
	require := require.New(t)

	client := &fakeClient{results: []*llm.GenerationResult{
		{ToolCalls: []*tools.ToolCall{
			toolCall("call_bad", "get_exchange_rate", `{"currency_from":"USD","currency_to":"XXX"}`),
		}},
		{Content: "I could not find a rate for XXX."},
	}}
	tool := &echoTool{name: "get_exchange_rate", err: errors.New("exchange rate API returned status 404")}
	driver := newDriver(client, tool)

	result, err := driver.Ask(context.Background(), nil, "100 usd to xxx")
	require.NoError(err)
	require.Equal("I could not find a rate for XXX.", result.Content)

	followUp := client.calls[1].messages
	require.Equal(llm.RoleTool, followUp[2].Role)
	require.Contains(followUp[2].Content, "404")
}

func TestAskHandlesUnknownToolRequest(t *testing.T) {
	require := require.New(t)

	client := &fakeClient{results: []*llm.GenerationResult{
		{ToolCalls: []*tools.ToolCall{toolCall("call_x", "made_up_tool", `{}`)}},
		{Content: "Sorry, I can't do that."},
	}}
	driver := newDriver(client, &echoTool{name: "get_exchange_rate", payload: `{}`})

	result, err := driver.Ask(context.Background(), nil, "do something odd")
	require.NoError(err)
	require.Equal("Sorry, I can't do that.", result.Content)

	followUp := client.calls[1].messages
	require.Contains(followUp[2].Content, "made_up_tool")
}

func TestAskEndpointFaultIsFatal(t *testing.T) {
	assert := assert.New(t)

	client := &fakeClient{errs: []error{errors.New("connection refused")}}
	driver := newDriver(client, &echoTool{name: "get_exchange_rate", payload: `{}`})

	result, err := driver.Ask(context.Background(), nil, "hello")
	assert.Error(err)
	assert.Nil(result)
	assert.Contains(err.Error(), "connection refused")
}

func TestAskRespectsConfiguredRoundBudget(t *testing.T) {
	require := require.New(t)

	// Two tool rounds allowed: tools attached on rounds one and two,
	// withheld on the third.
	client := &fakeClient{results: []*llm.GenerationResult{
		{ToolCalls: []*tools.ToolCall{toolCall("c1", "get_exchange_rate", `{}`)}},
		{ToolCalls: []*tools.ToolCall{toolCall("c2", "get_exchange_rate", `{}`)}},
		{Content: "final answer"},
	}}
	tool := &echoTool{name: "get_exchange_rate", payload: `{"rates":{}}`}

	tm := tools.NewToolManager()
	require.NoError(tm.Register(tool))
	driver := agent.New(client, tm, agent.Config{Model: "gpt-4o", MaxToolRounds: 2})

	result, err := driver.Ask(context.Background(), nil, "chase some rates")
	require.NoError(err)
	require.Equal("final answer", result.Content)
	require.Equal(2, result.ToolCalls)

	require.Len(client.calls, 3)
	require.NotEmpty(client.calls[0].tools)
	require.NotEmpty(client.calls[1].tools)
	require.Empty(client.calls[2].tools)
}

func TestAskPreservesSuppliedHistory(t *testing.T) {
	require := require.New(t)

	client := &fakeClient{results: []*llm.GenerationResult{{Content: "as I said, 0.88645"}}}
	driver := newDriver(client, &echoTool{name: "get_exchange_rate", payload: `{}`})

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "usd to eur?"},
		{Role: llm.RoleAssistant, Content: "The rate is 0.88645."},
	}
	_, err := driver.Ask(context.Background(), history, "say that again")
	require.NoError(err)

	sent := client.calls[0].messages
	require.Len(sent, 3)
	require.Equal("usd to eur?", sent[0].Content)
	require.Equal(llm.RoleAssistant, sent[1].Role)
	require.Equal("say that again", sent[2].Content)
}

// End to end through a real tool against a stub rate service: the loop wires
// prompt, model, executor and transcript together.
func TestAskEndToEndWithExchangeRateTool(t *testing.T) {
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal("/latest", r.URL.Path)
		w.Write([]byte(`{"amount":100,"base":"USD","date":"2025-08-29","rates":{"EUR":88.645}}`))
	}))
	defer server.Close()

	client := &fakeClient{results: []*llm.GenerationResult{
		{ToolCalls: []*tools.ToolCall{
			toolCall("call_fx", "get_exchange_rate", `{"currency_from":"USD","currency_to":"EUR"}`),
		}},
		{Content: "100 USD converts to 88.645 EUR."},
	}}
	driver := newDriver(client, tools.NewExchangeRateTool(server.URL))

	result, err := driver.Ask(context.Background(), nil, "100 usd to eur")
	require.NoError(err)
	require.Contains(result.Content, "88.645")

	// The tool result the model saw carried the live payload.
	followUp := client.calls[1].messages
	require.Contains(followUp[2].Content, `"EUR":88.645`)
}
