package agent

import (
	"context"

	"github.com/jackzampolin/hrbp/internal/providers"
)

// Tools defines the interface that agent tool implementations must satisfy.
//
// The run ends when the model answers without calling any tool, so
// implementations only describe and execute their tools.
type Tools interface {
	// GetTools returns OpenAI-format tool definitions for the LLM.
	GetTools() []providers.Tool

	// ExecuteTool runs a tool and returns the result as a JSON string.
	// The agent loop calls this for each tool_call in the LLM response.
	ExecuteTool(ctx context.Context, name string, arguments map[string]any) (string, error)
}
