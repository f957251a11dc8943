package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackzampolin/hrbp/internal/providers"
)

// DefaultMaxIterations bounds the number of LLM calls in one run.
const DefaultMaxIterations = 15

// ErrMaxIterations is returned when the model keeps calling tools past the limit.
var ErrMaxIterations = errors.New("agent did not complete within iteration limit")

// Config configures an agent instance.
type Config struct {
	// ID uniquely identifies this agent (auto-generated if empty)
	ID string

	// Tools provides the agent's capabilities
	Tools Tools

	// InitialMessages sets up the conversation (system prompt + user prompt)
	InitialMessages []providers.Message

	// MaxIterations limits the agent loop (default: 15)
	MaxIterations int

	// Model overrides the client's default model when set.
	Model string

	// AgentType labels log lines, e.g. "dataframe".
	AgentType string
	Logger    *slog.Logger
}

// Agent manages state for a single agent conversation.
// It generates WorkUnits and processes results; Run drives it to completion
// against an LLM client.
type Agent struct {
	mu sync.Mutex

	// Configuration
	id            string
	agentType     string
	tools         Tools
	maxIterations int
	model         string
	logger        *slog.Logger

	// Conversation state
	messages []providers.Message

	// Iteration tracking
	iteration int
	startTime time.Time

	// Tool call state (within an iteration)
	pendingToolCalls []providers.ToolCall
	toolResults      map[string]string // tool_call_id -> result JSON

	// Completion state
	complete bool
	result   *Result
}

// New creates a new Agent with the given configuration.
func New(cfg Config) *Agent {
	id := cfg.ID
	if id == "" {
		id = uuid.New().String()
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	messages := make([]providers.Message, len(cfg.InitialMessages))
	copy(messages, cfg.InitialMessages)

	return &Agent{
		id:            id,
		agentType:     cfg.AgentType,
		tools:         cfg.Tools,
		maxIterations: maxIterations,
		model:         cfg.Model,
		logger:        logger.With("agent_id", id, "agent_type", cfg.AgentType),
		messages:      messages,
		toolResults:   make(map[string]string),
		startTime:     time.Now(),
	}
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() string {
	return a.id
}

// NextWorkUnits returns the next work unit(s) to execute.
// Returns nil when the agent is complete.
func (a *Agent) NextWorkUnits() []WorkUnit {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.complete {
		return nil
	}

	// Outstanding tool calls are executed before the next LLM turn
	if len(a.pendingToolCalls) > 0 && len(a.toolResults) < len(a.pendingToolCalls) {
		var units []WorkUnit
		for _, tc := range a.pendingToolCalls {
			if _, done := a.toolResults[tc.ID]; !done {
				units = append(units, WorkUnit{
					Type:     WorkUnitTypeTool,
					AgentID:  a.id,
					ToolCall: &tc,
				})
			}
		}
		return units
	}

	a.iteration++

	if a.iteration > a.maxIterations {
		a.complete = true
		a.result = &Result{
			Success:       false,
			Error:         fmt.Sprintf("agent did not complete within %d iterations", a.maxIterations),
			Exhausted:     true,
			Iterations:    a.iteration - 1,
			MaxIterations: a.maxIterations,
			ExecutionTime: time.Since(a.startTime),
			FinalMessages: a.messages,
		}
		return nil
	}

	requestMessages := make([]providers.Message, len(a.messages))
	copy(requestMessages, a.messages)

	return []WorkUnit{{
		Type:        WorkUnitTypeLLM,
		AgentID:     a.id,
		ChatRequest: &providers.ChatRequest{Messages: requestMessages, Model: a.model},
		Tools:       a.tools.GetTools(),
		Iteration:   a.iteration,
	}}
}

// HandleLLMResult processes the result of an LLM work unit.
// A reply without tool calls ends the run; its content is the output.
func (a *Agent) HandleLLMResult(result *providers.ChatResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	assistantMsg := providers.Message{
		Role:      "assistant",
		Content:   result.Content,
		ToolCalls: result.ToolCalls,
	}
	a.messages = append(a.messages, assistantMsg)

	if len(result.ToolCalls) > 0 {
		a.pendingToolCalls = result.ToolCalls
		a.toolResults = make(map[string]string) // Reset for new batch
		return
	}

	a.complete = true
	a.result = &Result{
		Success:       true,
		Output:        result.Content,
		Iterations:    a.iteration,
		MaxIterations: a.maxIterations,
		ExecutionTime: time.Since(a.startTime),
		FinalMessages: a.messages,
	}
}

// HandleLLMError ends the run with a failed result.
func (a *Agent) HandleLLMError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.complete = true
	a.result = &Result{
		Success:       false,
		Error:         err.Error(),
		Err:           err,
		Iterations:    a.iteration,
		MaxIterations: a.maxIterations,
		ExecutionTime: time.Since(a.startTime),
		FinalMessages: a.messages,
	}
}

// HandleToolResult processes the result of a tool execution work unit.
// Tool errors are reported back to the model rather than failing the run.
func (a *Agent) HandleToolResult(toolCallID string, result string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		errResult, _ := json.Marshal(map[string]string{
			"error": fmt.Sprintf("Tool execution failed: %v", err),
		})
		a.toolResults[toolCallID] = string(errResult)
	} else {
		a.toolResults[toolCallID] = result
	}

	if len(a.toolResults) == len(a.pendingToolCalls) {
		// Results go back in the order the model asked for them
		for _, tc := range a.pendingToolCalls {
			a.messages = append(a.messages, providers.Message{
				Role:       "tool",
				Content:    a.toolResults[tc.ID],
				ToolCallID: tc.ID,
			})
		}
		a.pendingToolCalls = nil
	}
}

// ExecuteTool runs a tool synchronously.
func (a *Agent) ExecuteTool(ctx context.Context, tc providers.ToolCall) (string, error) {
	args := make(map[string]any)
	if tc.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return "", fmt.Errorf("failed to parse tool arguments: %w", err)
		}
	}

	result, err := a.tools.ExecuteTool(ctx, tc.Function.Name, args)
	if err != nil {
		a.logger.Debug("tool call failed", "iteration", a.Iteration(), "tool", tc.Function.Name, "error", err)
	} else {
		a.logger.Debug("tool call", "iteration", a.Iteration(), "tool", tc.Function.Name, "result_len", len(result))
	}
	return result, err
}

// Run drives the agent to completion, calling client for every LLM work
// unit and executing tool calls inline. A failed run returns the result
// alongside a non-nil error.
func (a *Agent) Run(ctx context.Context, client providers.LLMClient) (*Result, error) {
	for {
		units := a.NextWorkUnits()
		if units == nil {
			break
		}

		for _, unit := range units {
			if err := ctx.Err(); err != nil {
				a.HandleLLMError(err)
				break
			}

			switch unit.Type {
			case WorkUnitTypeLLM:
				a.logger.Debug("llm call", "iteration", unit.Iteration, "messages", len(unit.ChatRequest.Messages))
				result, err := client.ChatWithTools(ctx, unit.ChatRequest, unit.Tools)
				if err != nil {
					a.HandleLLMError(err)
					continue
				}
				a.HandleLLMResult(result)
			case WorkUnitTypeTool:
				out, err := a.ExecuteTool(ctx, *unit.ToolCall)
				a.HandleToolResult(unit.ToolCall.ID, out, err)
			}
		}
	}

	result := a.Result()
	if result.Success {
		a.logger.Debug("agent completed", "iterations", result.Iterations, "duration", result.ExecutionTime)
		return result, nil
	}

	if result.Exhausted {
		return result, fmt.Errorf("%w (%d)", ErrMaxIterations, result.MaxIterations)
	}
	if result.Err != nil {
		return result, result.Err
	}
	return result, errors.New(result.Error)
}

// IsDone returns true if the agent has completed (success or failure).
func (a *Agent) IsDone() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.complete
}

// Result returns the final result. Only valid after IsDone() returns true.
func (a *Agent) Result() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Iteration returns the current iteration number.
func (a *Agent) Iteration() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.iteration
}

// WorkUnit represents a unit of work the agent needs executed.
type WorkUnit struct {
	Type        WorkUnitType
	AgentID     string
	ChatRequest *providers.ChatRequest
	Tools       []providers.Tool // For LLM calls
	ToolCall    *providers.ToolCall
	Iteration   int
}

// WorkUnitType distinguishes LLM calls from tool executions.
type WorkUnitType string

const (
	WorkUnitTypeLLM  WorkUnitType = "llm"
	WorkUnitTypeTool WorkUnitType = "tool"
)
