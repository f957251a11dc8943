package agent

import (
	"time"

	"github.com/jackzampolin/hrbp/internal/providers"
)

// Result holds the outcome of an agent run.
type Result struct {
	Success bool   // Whether the agent completed successfully
	Output  string // Final assistant text
	Error   string // Error message if failed
	Err     error  `json:"-"` // Underlying LLM error, kept for errors.As

	// Iteration tracking
	Iterations    int  // Number of LLM calls made
	MaxIterations int  // Configured maximum
	Exhausted     bool // Stopped because MaxIterations was reached

	// Timing
	ExecutionTime time.Duration

	// Conversation
	FinalMessages []providers.Message
}
