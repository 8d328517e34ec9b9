package orchestrator

import "encoding/json"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the provider-neutral conversation. Assistant
// messages may carry tool calls; tool messages answer exactly one call via
// ToolCallID and must directly follow the assistant message that issued it.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is one model-requested capability invocation. Arguments stay raw
// until the invocation pipeline parses them, so a malformed payload fails
// that invocation alone instead of the whole turn.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func userMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func toolMessage(callID string, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: content}
}
