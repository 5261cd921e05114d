package tools

import (
	"fmt"
	"slices"
)

// ToolManager holds the registry of available tools. The registry is built
// once at startup and never mutated afterwards; the definition slice handed
// to the model preserves registration order.
type ToolManager struct {
	tools map[string]ToolExecutor
	order []string
}

func NewToolManager() *ToolManager {
	return &ToolManager{
		tools: make(map[string]ToolExecutor),
	}
}

// Register validates a tool's definition and adds it to the registry.
// A tool with an empty or duplicate name, a non-object parameter schema, or
// a required parameter that is not declared under properties is rejected, so
// a misdeclared tool fails at startup rather than mid-conversation.
func (tm *ToolManager) Register(tool ToolExecutor) error {
	def := tool.Definition()
	name := def.Function.Name
	if name == "" {
		return fmt.Errorf("tool has an empty name")
	}
	if _, exists := tm.tools[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}

	params := def.Function.Parameters
	if params.Type != "object" {
		return fmt.Errorf("tool %q: parameter schema must be of type \"object\", got %q", name, params.Type)
	}
	for _, required := range params.Required {
		if _, declared := params.Properties[required]; !declared {
			return fmt.Errorf("tool %q: required parameter %q is not declared in properties", name, required)
		}
	}

	tm.tools[name] = tool
	tm.order = append(tm.order, name)
	return nil
}

// GetDefinitions returns all registered tool definitions in registration
// order. The slice is a fresh copy on every call so callers cannot mutate
// the registry through it.
func (tm *ToolManager) GetDefinitions() []Tool {
	defs := make([]Tool, 0, len(tm.order))
	for _, name := range tm.order {
		defs = append(defs, tm.tools[name].Definition())
	}
	return defs
}

// Execute runs a tool by name with the given raw arguments. Every failure
// mode — unknown tool, malformed arguments, downstream fault — comes back as
// a Failure result, never as an error, so a misbehaving tool call can be
// reported to the model instead of aborting the conversation.
func (tm *ToolManager) Execute(name, arguments string) Result {
	tool, ok := tm.tools[name]
	if !ok {
		return Failure(fmt.Sprintf("unknown tool: %s", name))
	}
	payload, err := tool.Execute(arguments)
	if err != nil {
		return Failure(err.Error())
	}
	return Success(payload)
}

// Has reports whether a tool with the given name is registered.
func (tm *ToolManager) Has(name string) bool {
	return slices.Contains(tm.order, name)
}

// ToolCount returns the number of registered tools.
func (tm *ToolManager) ToolCount() int {
	return len(tm.order)
}
