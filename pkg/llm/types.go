package llm

import (
	"context"

	"github.com/amatiych/llm-work/pkg/catalog"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Provider is a model transport: one request, one response.
type Provider interface {
	// Call makes one model API call
	Call(ctx context.Context, request Request) (*Response, error)

	// Provider returns the provider name
	Provider() string
}

// Request contains the parameters of one model call
type Request struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	Tools        []catalog.Definition
	Temperature  float64
	MaxTokens    int
}

// Response is the model's reply: tool calls, a plain message, or both
type Response struct {
	Content    string
	ToolCalls  []ToolCall
	Usage      *Usage
	StopReason string
}

// ToolCall is a tool invocation requested by the model. ParseError is set
// when the arguments were not valid JSON.
type ToolCall struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Arguments  map[string]interface{} `json:"arguments"`
	ParseError string                 `json:"parse_error,omitempty"`
}

// Message is one entry of the conversation
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
}

// Usage tracks token consumption
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates other into u.
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// UserMessage builds a user text message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// ToolResultMessage builds the result message for a tool call.
func ToolResultMessage(callID, content string, isError bool) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: content, IsError: isError}
}
