package tools

// ToolExecutor is the contract every tool implements so the manager can
// describe and run it without knowing anything about its internals.
type ToolExecutor interface {
	// Definition returns the tool's schema, which is handed to the LLM so it
	// understands the tool's name, purpose and arguments.
	Definition() Tool

	// Execute runs the tool's logic. The arguments arrive as the JSON string
	// the model generated against the tool's schema; the returned payload is
	// the JSON document sent back to the model. Returning an error is fine
	// here — the manager folds it into a Result at the boundary.
	Execute(arguments string) ([]byte, error)
}
