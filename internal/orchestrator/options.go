package orchestrator

import (
	"time"

	"github.com/ShayCichocki/jobhunt/internal/capability"
)

// DefaultMaxDelegationDepth bounds nested delegation when no option is given.
const DefaultMaxDelegationDepth = 2

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

// orchestratorOptions holds all optional configuration.
type orchestratorOptions struct {
	capabilities       *capability.Set
	logger             *DebugLogger
	observers          []Observer
	taskTimeout        time.Duration
	maxDelegationDepth int
}

// WithCapabilities sets the capabilities workers can be granted by name.
func WithCapabilities(s *capability.Set) Option {
	return func(o *orchestratorOptions) { o.capabilities = s }
}

// WithLogger sets the debug logger.
func WithLogger(l *DebugLogger) Option {
	return func(o *orchestratorOptions) { o.logger = l }
}

// WithObserver adds an observer notified of phase and task events.
func WithObserver(obs Observer) Option {
	return func(o *orchestratorOptions) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithTaskTimeout bounds each worker call. Zero disables the limit.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *orchestratorOptions) { o.taskTimeout = d }
}

// WithMaxDelegationDepth bounds nested delegation. Zero disables delegation.
func WithMaxDelegationDepth(n int) Option {
	return func(o *orchestratorOptions) { o.maxDelegationDepth = n }
}

func defaultOptions() *orchestratorOptions {
	return &orchestratorOptions{
		maxDelegationDepth: DefaultMaxDelegationDepth,
	}
}
