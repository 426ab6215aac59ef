// Package agent runs jobhunt workers against the Anthropic API.
package agent

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/jobhunt/internal/api"
	"github.com/ShayCichocki/jobhunt/internal/orchestrator"
)

// APIExecutor executes worker requests through an API agent loop.
// It implements orchestrator.Executor.
type APIExecutor struct {
	client        *api.Client
	maxIterations int
	onStream      func(taskID string, e api.StreamEvent)
	logger        *orchestrator.DebugLogger
}

// ExecutorOption configures an APIExecutor.
type ExecutorOption func(*APIExecutor)

// WithMaxIterations bounds API calls per request.
func WithMaxIterations(n int) ExecutorOption {
	return func(e *APIExecutor) { e.maxIterations = n }
}

// WithStreamHandler receives loop events tagged with the task ID.
func WithStreamHandler(fn func(taskID string, e api.StreamEvent)) ExecutorOption {
	return func(e *APIExecutor) { e.onStream = fn }
}

// WithLogger sets the debug logger.
func WithLogger(l *orchestrator.DebugLogger) ExecutorOption {
	return func(e *APIExecutor) { e.logger = l }
}

// NewAPIExecutor creates an executor backed by client.
func NewAPIExecutor(client *api.Client, opts ...ExecutorOption) *APIExecutor {
	e := &APIExecutor{client: client, logger: orchestrator.NopLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute implements orchestrator.Executor. Each call runs a fresh loop so
// no conversation state is shared between tasks.
func (e *APIExecutor) Execute(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error) {
	loop := api.NewAgentLoop(api.AgentLoopConfig{
		Client:        e.client,
		MaxIterations: e.maxIterations,
	})
	loop.SetStreamHandler(func(ev api.StreamEvent) {
		if ev.Type == "tool_use" {
			e.logger.Log("[agent] %s (%s): calling %s", req.TaskID, req.Worker.Role, ev.Tool)
		}
		if e.onStream != nil {
			e.onStream(req.TaskID, ev)
		}
	})

	result, err := loop.Run(ctx, req.System, req.Prompt, req.Capabilities)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Worker.Role, err)
	}

	e.logger.Log("[agent] %s (%s): %d iterations, %d tool calls", req.TaskID, req.Worker.Role, result.Iterations, result.ToolCalls)
	return &orchestrator.Response{
		Output:    result.Output,
		TokensIn:  result.TokensIn,
		TokensOut: result.TokensOut,
	}, nil
}

// Usage reports the API calls and tokens spent by this executor's client.
func (e *APIExecutor) Usage() api.Usage {
	return e.client.Tracker().Snapshot()
}
