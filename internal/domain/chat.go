package domain

import "encoding/json"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat turn shape used by the usecase
// and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FunctionDefinition declares a locally executable function to the model.
// Parameters holds a JSON schema object.
type FunctionDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// FunctionCall is the model's request to run a declared function. Arguments
// is the raw JSON string exactly as the provider returned it.
type FunctionCall struct {
	Name      string
	Arguments string
}

// Completion is the first choice of a chat completion. FunctionCall is nil
// when the model answered in free text.
type Completion struct {
	Content      string
	FunctionCall *FunctionCall
}
