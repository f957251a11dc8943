package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/hrbp/internal/dataset"
	"github.com/jackzampolin/hrbp/internal/providers"
	hrbpprompts "github.com/jackzampolin/hrbp/internal/prompts/hrbp"
)

// DataframeAgentConfig configures a DataframeAgent.
type DataframeAgentConfig struct {
	Client        providers.LLMClient
	Model         string // client default when empty
	MaxIterations int
	SystemPrompt  string // hrbp system prompt when empty
	Logger        *slog.Logger
}

// DataframeAgent answers free-form questions by letting the model call
// dataframe tools over a dataset.
type DataframeAgent struct {
	client        providers.LLMClient
	model         string
	maxIterations int
	systemPrompt  string
	logger        *slog.Logger
}

// NewDataframeAgent creates a dataframe agent.
func NewDataframeAgent(cfg DataframeAgentConfig) (*DataframeAgent, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = hrbpprompts.SystemPrompt()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &DataframeAgent{
		client:        cfg.Client,
		model:         cfg.Model,
		maxIterations: cfg.MaxIterations,
		systemPrompt:  cfg.SystemPrompt,
		logger:        cfg.Logger,
	}, nil
}

// Respond runs one agent conversation for instruction over ds and returns
// the model's final text, which may be empty.
func (d *DataframeAgent) Respond(ctx context.Context, instruction string, ds *dataset.Dataset) (string, error) {
	tools, err := NewDataframeTools(ds)
	if err != nil {
		return "", err
	}

	a := New(Config{
		Tools: tools,
		InitialMessages: []providers.Message{
			{Role: "system", Content: d.systemPrompt},
			{Role: "user", Content: instruction},
		},
		MaxIterations: d.maxIterations,
		Model:         d.model,
		AgentType:     "dataframe",
		Logger:        d.logger,
	})

	result, err := a.Run(ctx, d.client)
	if err != nil {
		return "", fmt.Errorf("%s agent: %w", d.client.Name(), err)
	}
	return result.Output, nil
}
