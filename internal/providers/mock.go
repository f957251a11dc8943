package providers

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
//
// Responses are served from Script in order. Once the script is exhausted
// the client answers with ResponseText and no tool calls.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string
	Script       []ChatResult

	mu       sync.Mutex
	requests []ChatRequest
	tools    [][]Tool
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient(script ...ChatResult) *MockClient {
	return &MockClient{
		ResponseText: "mock response",
		Script:       script,
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	return c.doRequest(ctx, req, nil)
}

// ChatWithTools sends a mock chat request with tools.
func (c *MockClient) ChatWithTools(ctx context.Context, req *ChatRequest, tools []Tool) (*ChatResult, error) {
	return c.doRequest(ctx, req, tools)
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Requests returns copies of the requests received so far.
func (c *MockClient) Requests() []ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// LastTools returns the tool definitions sent with the most recent request.
func (c *MockClient) LastTools() []Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.tools) == 0 {
		return nil
	}
	return c.tools[len(c.tools)-1]
}

func (c *MockClient) doRequest(ctx context.Context, req *ChatRequest, tools []Tool) (*ChatResult, error) {
	start := time.Now()

	c.mu.Lock()
	snapshot := *req
	snapshot.Messages = append([]Message(nil), req.Messages...)
	c.requests = append(c.requests, snapshot)
	c.tools = append(c.tools, tools)
	count := len(c.requests)
	var scripted *ChatResult
	if count <= len(c.Script) {
		r := c.Script[count-1]
		scripted = &r
	}
	c.mu.Unlock()

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
	}

	if c.ShouldFail {
		result.ErrorType = "mock_failure"
		result.ErrorMessage = "mock client configured to fail"
		return result, fmt.Errorf("mock client configured to fail")
	}
	if c.FailAfter > 0 && count > c.FailAfter {
		result.ErrorType = "mock_failure"
		result.ErrorMessage = fmt.Sprintf("mock client failed after %d requests", c.FailAfter)
		return result, fmt.Errorf("mock client failed after %d requests", c.FailAfter)
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			result.ErrorType = "context_cancelled"
			result.ErrorMessage = ctx.Err().Error()
			return result, ctx.Err()
		}
	}

	result.Success = true
	if scripted != nil {
		result.Content = scripted.Content
		result.ToolCalls = scripted.ToolCalls
	} else {
		result.Content = c.ResponseText
	}

	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4 // Rough estimate
	}
	result.PromptTokens = promptTokens
	result.CompletionTokens = len(result.Content) / 4
	result.TotalTokens = result.PromptTokens + result.CompletionTokens
	result.ExecutionTime = time.Since(start)

	return result, nil
}

// ToolCallResult is a helper for scripting a response that requests one tool.
func ToolCallResult(id, name, arguments string) ChatResult {
	return ChatResult{
		ToolCalls: []ToolCall{{
			ID:   id,
			Type: "function",
			Function: ToolCallFunction{
				Name:      name,
				Arguments: arguments,
			},
		}},
	}
}

var _ LLMClient = (*MockClient)(nil)
