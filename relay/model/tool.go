package model

// Tool represents a tool definition or a tool call, depending on direction.
// In requests it carries the function definition; in responses and stream
// chunks it carries the call id and the (possibly partial) arguments.
type Tool struct {
	Id       string    `json:"id,omitempty"`
	Type     string    `json:"type,omitempty"`
	Function *Function `json:"function,omitempty"`
	// Index identifies which tool call the delta is for in streaming
	// responses.
	Index *int `json:"index,omitempty"`
}

// Function is the function half of a Tool: schema on the way in, arguments on
// the way out.
type Function struct {
	Description string `json:"description,omitempty"`
	Name        string `json:"name,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
	Arguments   any    `json:"arguments,omitempty"`
}

// ToolChoiceFunction names the forced function of a
// {"type":"function","function":{"name":...}} tool_choice.
type ToolChoiceFunction struct {
	Name string `json:"name"`
}
