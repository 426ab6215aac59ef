package orchestrator

import (
	"context"

	"github.com/ShayCichocki/jobhunt/internal/capability"
	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// Request is one worker invocation.
type Request struct {
	// TaskID identifies the task, or the delegating task for nested calls.
	TaskID string
	// Worker is the worker performing the call.
	Worker models.Worker
	// System carries the worker's identity and constraints.
	System string
	// Prompt is the rendered task instruction.
	Prompt string
	// Capabilities are the functions the worker may invoke during the call.
	Capabilities []capability.Capability
}

// Response is the raw worker output.
type Response struct {
	Output    string
	TokensIn  int64
	TokensOut int64
}

// Executor runs a worker against a prompt and returns its raw text. The call
// must honour ctx cancellation.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Response, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, req Request) (*Response, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
