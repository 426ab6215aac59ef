// Package jobhunt wires the orchestrator, checkpoints and capabilities into
// the resume analysis, job search and optimization pipeline.
package jobhunt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"

	"github.com/ShayCichocki/jobhunt/internal/agent"
	"github.com/ShayCichocki/jobhunt/internal/api"
	"github.com/ShayCichocki/jobhunt/internal/capability"
	"github.com/ShayCichocki/jobhunt/internal/checkpoint"
	"github.com/ShayCichocki/jobhunt/internal/config"
	"github.com/ShayCichocki/jobhunt/internal/metrics"
	"github.com/ShayCichocki/jobhunt/internal/orchestrator"
	"github.com/ShayCichocki/jobhunt/internal/pipeline"
	"github.com/ShayCichocki/jobhunt/internal/schema"
	"github.com/ShayCichocki/jobhunt/internal/state"
	"github.com/ShayCichocki/jobhunt/internal/tui"
	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// Request holds the initial parameters of a run.
type Request struct {
	Resume  string
	Roles   []string
	Domains []string
}

// Outcome reports how a run ended.
type Outcome struct {
	// RunID identifies the run in the history store.
	RunID string
	State *RunState
	// Stopped is true when the run ended early without an error, for
	// example because the job search found nothing.
	Stopped bool
	// Usage counts the API calls made during the run. It stays zero for
	// executors that do not report usage.
	Usage api.Usage
}

// UsageReporter is implemented by executors that count their API usage.
type UsageReporter interface {
	Usage() api.Usage
}

// App runs the pipeline.
type App struct {
	cfg       *config.Config
	crew      *Crew
	executor  orchestrator.Executor
	gate      checkpoint.Gate
	jobSearch capability.Capability
	store     *state.DB
	metrics   *metrics.Metrics
	logger    *orchestrator.DebugLogger
	out       io.Writer
	progress  bool
}

// Option configures an App.
type Option func(*App)

// WithExecutor replaces the API backed executor.
func WithExecutor(e orchestrator.Executor) Option {
	return func(a *App) { a.executor = e }
}

// WithGate replaces the checkpoint gate chosen from config.
func WithGate(g checkpoint.Gate) Option {
	return func(a *App) { a.gate = g }
}

// WithJobSearch replaces the Serper job search capability.
func WithJobSearch(c capability.Capability) Option {
	return func(a *App) { a.jobSearch = c }
}

// WithStore records runs in the history store.
func WithStore(db *state.DB) Option {
	return func(a *App) { a.store = db }
}

// WithMetrics records run metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogger sets the debug logger.
func WithLogger(l *orchestrator.DebugLogger) Option {
	return func(a *App) { a.logger = l }
}

// WithOutput sets where status lines and results are written.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithProgress shows a spinner while each phase runs.
func WithProgress(enabled bool) Option {
	return func(a *App) { a.progress = enabled }
}

// New creates an App. A nil crew uses the built-in one.
func New(cfg *config.Config, crew *Crew, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if crew == nil {
		c, err := DefaultCrew()
		if err != nil {
			return nil, err
		}
		crew = c
	}

	a := &App{cfg: cfg, crew: crew, out: os.Stdout}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = orchestrator.NopLogger()
	}

	if a.executor == nil {
		e, err := NewExecutor(cfg, a.logger)
		if err != nil {
			return nil, err
		}
		a.executor = e
	}
	if a.gate == nil {
		a.gate = NewGate(cfg.Checkpoint)
	}
	if og, ok := a.gate.(checkpoint.ObservableGate); ok && a.metrics != nil {
		og.SetSelectionHook(a.metrics.RecordCheckpoint)
	}
	if a.jobSearch == nil {
		key, _ := config.GetSerperKey(cfg)
		a.jobSearch = capability.NewJobSearch(capability.JobSearchConfig{
			APIKey:  key,
			BaseURL: cfg.Serper.BaseURL,
			Country: cfg.Serper.Country,
			Timeout: cfg.Serper.Timeout,
		})
	}
	return a, nil
}

// NewExecutor creates the API backed executor described by cfg.
func NewExecutor(cfg *config.Config, logger *orchestrator.DebugLogger) (orchestrator.Executor, error) {
	clientCfg := api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		UseAWSBedrock: cfg.Bedrock.Enabled,
		AWSRegion:     cfg.Bedrock.Region,
		AWSProfile:    cfg.Bedrock.Profile,
		MaxTokens:     cfg.Anthropic.MaxTokens,
	}
	if !cfg.Bedrock.Enabled {
		key, err := config.GetAPIKey(cfg)
		if err != nil {
			return nil, err
		}
		clientCfg.APIKey = key
	}

	client, err := api.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	return agent.NewAPIExecutor(client,
		agent.WithMaxIterations(cfg.Orchestration.MaxIterations),
		agent.WithLogger(logger),
	), nil
}

// NewGate picks the checkpoint gate for cfg.Interactive: "form", "console",
// or "auto" (forms on an interactive terminal outside CI).
func NewGate(cfg config.CheckpointConfig) checkpoint.Gate {
	useForms := false
	switch cfg.Interactive {
	case "form":
		useForms = true
	case "console":
	default:
		useForms = checkpoint.ShouldUseForms()
	}
	if useForms {
		return checkpoint.NewFormGate(tui.Present, cfg.Timeout)
	}
	return checkpoint.NewStdioGate(
		checkpoint.WithPresenter(tui.Present),
		checkpoint.WithTimeout(cfg.Timeout),
	)
}

// Run executes the pipeline for req.
func (a *App) Run(ctx context.Context, req Request) (*Outcome, error) {
	if req.Resume == "" {
		return nil, errors.New("no resume given")
	}
	doc, err := capability.LoadDocument(req.Resume, 0)
	if err != nil {
		return nil, err
	}

	reg, err := a.crew.Registry()
	if err != nil {
		return nil, err
	}
	phases, err := a.crew.Assemble(reg, schema.Default(), orchestrator.WithPhaseLogger(a.logger))
	if err != nil {
		return nil, err
	}
	steps, err := Steps(phases, CheckpointDefaults{
		Location:    a.cfg.Checkpoint.DefaultLocation,
		Experience:  models.ExperienceLevel(a.cfg.Checkpoint.DefaultExperience),
		MaxListings: a.cfg.Checkpoint.MaxListings,
	})
	if err != nil {
		return nil, err
	}

	run := state.NewRun(req.Resume, req.Roles)
	log := a.logger.With("run " + run.ID[:8])
	relay := &progressRelay{}
	opts := []orchestrator.Option{
		orchestrator.WithCapabilities(capability.NewSet(doc, a.jobSearch)),
		orchestrator.WithLogger(log),
		orchestrator.WithTaskTimeout(a.cfg.Orchestration.TaskTimeout),
		orchestrator.WithMaxDelegationDepth(a.cfg.Orchestration.MaxDelegationDepth),
		orchestrator.WithObserver(relay),
	}

	var recorder *state.Recorder
	if a.store != nil {
		if err := a.store.CreateRun(run); err != nil {
			return nil, err
		}
		recorder = state.NewRecorder(a.store, run.ID)
		opts = append(opts, orchestrator.WithObserver(recorder))
	}

	if a.metrics != nil {
		opts = append(opts, orchestrator.WithObserver(a.metrics))
	}

	orch := orchestrator.New(a.executor, reg, opts...)
	hooks := pipeline.Hooks{
		StepStarted: func(name string) {
			log.Log("step %s started", name)
			if a.progress {
				relay.start(tui.StartProgress(name, a.out))
				return
			}
			color.New(color.FgCyan, color.Bold).Fprintf(a.out, "▶ %s\n", name)
		},
		StepFinished: func(name string, err error) {
			relay.stop(err)
			log.Log("step %s finished: %v", name, err)
		},
	}

	usage, _ := a.executor.(UsageReporter)
	var before api.Usage
	if usage != nil {
		before = usage.Usage()
	}

	st := NewRunState(req.Resume, req.Roles, req.Domains)
	stopped, err := pipeline.NewDriver[RunState](orch, a.gate, hooks).Run(ctx, st, steps)

	status := state.RunCompleted
	switch {
	case err != nil:
		status = state.RunFailed
	case stopped:
		status = state.RunStopped
	}
	if a.store != nil {
		if recErr := recorder.Err(); recErr != nil {
			log.Log("history not fully recorded: %v", recErr)
		}
		if finErr := a.store.FinishRun(run.ID, status, err); finErr != nil {
			log.Log("finish run: %v", finErr)
		}
	}

	outcome := &Outcome{RunID: run.ID, State: st, Stopped: stopped}
	if usage != nil {
		outcome.Usage = usage.Usage().Sub(before)
		log.Log("api usage: %d calls, tokens in=%d out=%d", outcome.Usage.Calls, outcome.Usage.InputTokens, outcome.Usage.OutputTokens)
	}
	if err != nil {
		return outcome, err
	}

	if stopped {
		color.New(color.FgYellow).Fprintln(a.out, "No jobs found. Try different roles or location.")
		return outcome, nil
	}
	if st.SelectedJob != nil {
		color.New(color.FgGreen).Fprintf(a.out, "✓ Optimized for %s at %s\n", st.SelectedJob.Title, st.SelectedJob.Company)
	}
	if st.Optimization != nil {
		tui.Present(a.out, *st.Optimization)
	}
	return outcome, nil
}

// progressRelay forwards events to the progress display of the running
// step and closes it as soon as the phase ends, before any checkpoint.
type progressRelay struct {
	mu      sync.Mutex
	current *tui.Progress
}

func (r *progressRelay) OnEvent(e orchestrator.OrchestratorEvent) {
	r.mu.Lock()
	p := r.current
	r.mu.Unlock()
	if p == nil {
		return
	}

	p.OnEvent(e)
	switch e.Type {
	case orchestrator.EventPhaseCompleted, orchestrator.EventPhaseFailed:
		r.stop(e.Error)
	}
}

func (r *progressRelay) start(p *tui.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = p
}

func (r *progressRelay) stop(err error) {
	r.mu.Lock()
	p := r.current
	r.current = nil
	r.mu.Unlock()
	if p != nil {
		p.Stop(err)
	}
}
