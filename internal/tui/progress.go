package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/jobhunt/internal/orchestrator"
	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// EventMsg carries an orchestrator event into the progress program.
type EventMsg struct {
	Event orchestrator.OrchestratorEvent
}

// DoneMsg ends the progress program.
type DoneMsg struct {
	Err error
}

// taskLine is one row of the task list.
type taskLine struct {
	id       string
	worker   string
	status   models.TaskStatus
	duration time.Duration
	err      error
}

// logEntry is one row of the activity log.
type logEntry struct {
	timestamp time.Time
	message   string
}

// ProgressModel is the bubbletea model behind Progress.
type ProgressModel struct {
	title   string
	spinner spinner.Model
	tasks   []*taskLine
	logs    []logEntry
	done    bool
	err     error
}

// NewProgressModel creates a model for a phase called title.
func NewProgressModel(title string) ProgressModel {
	return ProgressModel{
		title:   title,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(phaseStyle)),
	}
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m.apply(msg.Event)
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m *ProgressModel) apply(e orchestrator.OrchestratorEvent) {
	switch e.Type {
	case orchestrator.EventTaskStarted:
		m.tasks = append(m.tasks, &taskLine{id: e.TaskID, worker: e.Worker, status: models.TaskStatusRunning})
	case orchestrator.EventTaskCompleted, orchestrator.EventTaskFailed:
		if t := m.find(e.TaskID); t != nil {
			t.status = e.Status
			t.duration = e.Duration
			t.err = e.Error
		}
	case orchestrator.EventDelegated:
		m.log(e.Timestamp, fmt.Sprintf("%s delegated: %s", e.Worker, e.Message))
	}
}

func (m *ProgressModel) find(id string) *taskLine {
	for i := len(m.tasks) - 1; i >= 0; i-- {
		if m.tasks[i].id == id {
			return m.tasks[i]
		}
	}
	return nil
}

func (m *ProgressModel) log(ts time.Time, message string) {
	if ts.IsZero() {
		ts = time.Now()
	}
	m.logs = append(m.logs, logEntry{timestamp: ts, message: message})
	if len(m.logs) > 5 {
		m.logs = m.logs[len(m.logs)-5:]
	}
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	var b strings.Builder

	if m.done {
		if m.err != nil {
			b.WriteString(poorStyle.Render("✗ ") + phaseStyle.Render(m.title) + "\n")
		} else {
			b.WriteString(goodStyle.Render("✓ ") + phaseStyle.Render(m.title) + "\n")
		}
	} else {
		b.WriteString(m.spinner.View() + " " + phaseStyle.Render(m.title) + "\n")
	}

	for _, t := range m.tasks {
		var mark string
		switch t.status {
		case models.TaskStatusDone:
			mark = goodStyle.Render("✓")
		case models.TaskStatusFailed:
			mark = poorStyle.Render("✗")
		default:
			mark = stretchStyle.Render("•")
		}
		line := fmt.Sprintf("  %s %s %s", mark, valueStyle.Render(t.id), labelStyle.Render(t.worker))
		if t.duration > 0 {
			line += mutedStyle.Render(fmt.Sprintf(" %s", t.duration.Round(100*time.Millisecond)))
		}
		b.WriteString(line + "\n")
	}

	for _, l := range m.logs {
		b.WriteString(mutedStyle.Render("    "+l.timestamp.Format("15:04:05")+" ") + labelStyle.Render(l.message) + "\n")
	}
	return b.String()
}

// Progress runs a ProgressModel in the background and feeds it events.
type Progress struct {
	program *tea.Program
	events  *orchestrator.EventEmitter
	err     error
	done    chan struct{}
	stop    sync.Once
}

var _ orchestrator.Observer = (*Progress)(nil)

// StartProgress starts a progress display for a phase on out. It never
// reads input and leaves signal handling to the caller.
func StartProgress(title string, out io.Writer) *Progress {
	p := &Progress{
		program: tea.NewProgram(
			NewProgressModel(title),
			tea.WithOutput(out),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		events: orchestrator.NewEventEmitter(64, nil),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		_, _ = p.program.Run()
	}()
	go func() {
		for e := range p.events.Events() {
			p.program.Send(EventMsg{Event: e})
		}
		p.program.Send(DoneMsg{Err: p.err})
	}()
	return p
}

// OnEvent implements orchestrator.Observer. It must not be called after Stop.
func (p *Progress) OnEvent(e orchestrator.OrchestratorEvent) {
	p.events.Emit(e)
}

// Stop flushes pending events, renders the final state and waits for the
// display to exit.
func (p *Progress) Stop(err error) {
	p.stop.Do(func() {
		p.err = err
		p.events.Close()
		<-p.done
	})
}
