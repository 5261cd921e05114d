// Package tools defines the function-calling (tool use) surface of the agent:
// the schema types sent to the model so it knows which functions it may call,
// the call requests it sends back, and the registry that validates and
// dispatches those calls against local executors.
package tools

import "encoding/json"

// ToolTypeFunction is the standard type for function-based tools.
const ToolTypeFunction = "function"

// Tool is the schema for one callable function, in the shape shared by the
// major LLM providers. This is what gets attached to every model request so
// the model knows the tool exists.
type Tool struct {
	Type string `json:"type"`
	// Function holds the detailed definition of the function.
	Function Function `json:"function"`
}

// Function carries the name, description and parameter schema of a tool.
// The description is what the model reads to decide when to call the tool,
// so it should be written for the model, not for a human.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"`
}

// JSONSchema is a structured subset of JSON Schema sufficient for tool
// parameters. Using a typed struct instead of map[string]interface{} keeps
// tool definitions readable and catches shape mistakes at compile time.
type JSONSchema struct {
	// Type is the data type of this schema node ("object", "string", ...).
	// The top-level parameters node must be "object".
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	// Properties maps parameter names to their own schema nodes.
	Properties map[string]*JSONSchema `json:"properties,omitempty"`
	// Required lists the parameter names the model must always supply.
	Required []string `json:"required,omitempty"`
}

// ToolCall is a request from the model to run one tool with given arguments.
type ToolCall struct {
	// ID is the opaque identifier the model attached to this call. The tool
	// result must be tagged with the same ID so the model can correlate them.
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the name and serialized arguments of a requested call.
type ToolCallFunction struct {
	Name string `json:"name"`
	// Arguments is a JSON document produced by the model. It is parsed by the
	// tool itself, never trusted to be well-formed.
	Arguments string `json:"arguments"`
}

// Result is the outcome of one tool invocation. Exactly one of Payload or
// Error is set; both shapes serialize to JSON so the result can always be
// appended to the transcript as a tool turn. Faults never cross this
// boundary as Go errors.
type Result struct {
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Failure wraps an error message in a Result.
func Failure(message string) Result {
	return Result{Error: message}
}

// Success wraps a JSON payload in a Result.
func Success(payload json.RawMessage) Result {
	return Result{Payload: payload}
}

// Failed reports whether the invocation produced an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// Content renders the result as the JSON text placed in the tool turn.
// Failures become {"error": "..."} so the model can narrate what went wrong.
func (r Result) Content() string {
	if r.Failed() {
		msg, _ := json.Marshal(map[string]string{"error": r.Error})
		return string(msg)
	}
	return string(r.Payload)
}

// NewFunctionTool builds a Tool with the correct "function" type.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Type: ToolTypeFunction,
		Function: Function{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}
