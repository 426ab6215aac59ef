package jobhunt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ShayCichocki/jobhunt/internal/api"
	"github.com/ShayCichocki/jobhunt/internal/capability"
	"github.com/ShayCichocki/jobhunt/internal/checkpoint"
	"github.com/ShayCichocki/jobhunt/internal/config"
	"github.com/ShayCichocki/jobhunt/internal/metrics"
	"github.com/ShayCichocki/jobhunt/internal/orchestrator"
	"github.com/ShayCichocki/jobhunt/internal/state"
)

const (
	profileJSON = `{"skills":["Python","PyTorch"],"domains":["AI"],"experience_level":"junior",` +
		`"projects":[{"title":"Recommender","impact":"+12% CTR","tech":["PyTorch"]}],"strengths":["modeling"]}`
	fitJSON = `{"good_fit_roles":["ML Engineer"],"stretch_roles":["Data Scientist"],"poor_fit_roles":[],` +
		`"skill_gaps":["Kubernetes"],"reasoning":"Strong modeling work."}`
	optimizationJSON = `{"section_improvements":{"summary":["Lead with ML impact"],"experience":[],"projects":[],"skills":["Add MLOps"]},` +
		`"rewritten_bullets":[{"before":"Built a model","after":"Built a recommender lifting CTR by 12%"}],` +
		`"keywords_to_add":["MLOps"],"keywords_to_remove":["MS Office"]}`
)

func fenced(s string) string {
	return "Here is the result:\n```json\n" + s + "\n```\n"
}

// fakeExecutor answers each task with canned output. The job search task
// goes through the job_search capability it was given.
type fakeExecutor struct {
	prompts map[string]string
	outputs map[string]string
	calls   int
}

func (f *fakeExecutor) Usage() api.Usage {
	return api.Usage{Calls: f.calls, InputTokens: int64(10 * f.calls), OutputTokens: int64(20 * f.calls)}
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		prompts: make(map[string]string),
		outputs: map[string]string{
			TaskParseResume:    fenced(profileJSON),
			TaskCareerFit:      fenced(fitJSON),
			TaskOptimizeResume: fenced(optimizationJSON),
		},
	}
}

func (f *fakeExecutor) Execute(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error) {
	f.prompts[req.TaskID] = req.Prompt
	f.calls++
	if req.TaskID == TaskJobSearch {
		input, _ := json.Marshal(map[string]string{
			"role":             "ML Engineer",
			"location":         "Remote",
			"experience_level": "junior",
		})
		out, err := capability.Invoke(ctx, req.Capabilities, capability.JobSearchName, input)
		if err != nil {
			return nil, err
		}
		return &orchestrator.Response{Output: fenced(out), TokensIn: 10, TokensOut: 20}, nil
	}
	out, ok := f.outputs[req.TaskID]
	if !ok {
		return nil, fmt.Errorf("unexpected task %s", req.TaskID)
	}
	return &orchestrator.Response{Output: out, TokensIn: 10, TokensOut: 20}, nil
}

func writeResume(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.md")
	content := "# Jane Doe\n\n## Skills\nPython, PyTorch\n\n## Projects\nRecommender system\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openStore(t *testing.T) *state.DB {
	t.Helper()
	db, err := state.OpenMigrated(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenMigrated: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func serperServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAppRunCompletes(t *testing.T) {
	srv := serperServer(t, `{"jobs":[
		{"title":"ML Engineer","companyName":"Acme","location":"Remote","link":"https://acme.example/1"},
		{"title":"Applied Scientist","companyName":"Globex","location":"Remote","link":"https://globex.example/2"}
	]}`)

	exec := newFakeExecutor()
	store := openStore(t)
	m := metrics.NewMetrics()
	var out bytes.Buffer
	// Blank roles and location, an unknown experience level and an
	// out-of-range job index: every answer falls back to its default.
	gate := checkpoint.NewConsoleGate(strings.NewReader("\n\nwizard\n9\n"), &out)

	app, err := New(config.Default(), nil,
		WithExecutor(exec),
		WithGate(gate),
		WithJobSearch(capability.NewJobSearch(capability.JobSearchConfig{APIKey: "test-key", BaseURL: srv.URL})),
		WithStore(store),
		WithMetrics(m),
		WithOutput(&out),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcome, err := app.Run(context.Background(), Request{
		Resume:  writeResume(t),
		Roles:   []string{"ML Engineer", "Data Scientist"},
		Domains: []string{"AI"},
	})
	if err != nil {
		t.Fatalf("Run: %v\noutput:\n%s", err, out.String())
	}
	if outcome.Stopped {
		t.Fatal("run should not stop")
	}

	st := outcome.State
	if len(st.SelectedRoles) != 1 || st.SelectedRoles[0] != "ML Engineer" {
		t.Errorf("SelectedRoles = %v, want [ML Engineer]", st.SelectedRoles)
	}
	if st.Location != "Remote" {
		t.Errorf("Location = %q, want Remote", st.Location)
	}
	if st.Experience != "junior" {
		t.Errorf("Experience = %q, want junior", st.Experience)
	}
	if len(st.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(st.Jobs))
	}
	if st.SelectedJob == nil || st.SelectedJob.Company != "Acme" {
		t.Errorf("SelectedJob = %+v, want the first listing", st.SelectedJob)
	}
	if st.Optimization == nil || len(st.Optimization.KeywordsToAdd) != 1 {
		t.Errorf("Optimization = %+v", st.Optimization)
	}
	if want := (api.Usage{Calls: 4, InputTokens: 40, OutputTokens: 80}); outcome.Usage != want {
		t.Errorf("Usage = %+v, want %+v", outcome.Usage, want)
	}

	if p := exec.prompts[TaskCareerFit]; !strings.Contains(p, "ML Engineer") || !strings.Contains(p, "AI") {
		t.Errorf("career fit prompt missing preferences:\n%s", p)
	}
	if p := exec.prompts[TaskJobSearch]; !strings.Contains(p, "Location: Remote") {
		t.Errorf("job search prompt missing location:\n%s", p)
	}
	if p := exec.prompts[TaskOptimizeResume]; !strings.Contains(p, "Acme") {
		t.Errorf("optimization prompt missing selected job:\n%s", p)
	}
	if !strings.Contains(out.String(), "Optimized for ML Engineer at Acme") {
		t.Errorf("missing completion line in output:\n%s", out.String())
	}

	run, err := store.GetRun(outcome.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v, %v", run, err)
	}
	if run.Status != state.RunCompleted {
		t.Errorf("run status = %s, want completed", run.Status)
	}
	tasks, err := store.ListTaskRuns(outcome.RunID)
	if err != nil {
		t.Fatalf("ListTaskRuns: %v", err)
	}
	if len(tasks) != 4 {
		t.Fatalf("expected 4 task runs, got %d", len(tasks))
	}
	for _, tr := range tasks {
		if tr.Status != state.TaskRunCompleted {
			t.Errorf("task %s status = %s", tr.TaskID, tr.Status)
		}
	}

	if n, err := testutil.GatherAndCount(m.Registry(), "jobhunt_checkpoint_selections_total"); err != nil || n == 0 {
		t.Errorf("checkpoint selections not recorded: n=%d err=%v", n, err)
	}
	if got := testutil.ToFloat64(m.CheckpointDefaults.WithLabelValues("location", "true")); got != 1 {
		t.Errorf("defaulted location count = %v, want 1", got)
	}
}

func TestAppRunCountsExplicitAnswersAsChosen(t *testing.T) {
	srv := serperServer(t, `{"jobs":[
		{"title":"ML Engineer","companyName":"Acme","location":"Remote","link":"https://acme.example/1"}
	]}`)

	m := metrics.NewMetrics()
	// Every answer is typed out and equals the default.
	gate := checkpoint.NewConsoleGate(strings.NewReader("ML Engineer\nRemote\njunior\n1\n"), io.Discard)
	app, err := New(config.Default(), nil,
		WithExecutor(newFakeExecutor()),
		WithGate(gate),
		WithJobSearch(capability.NewJobSearch(capability.JobSearchConfig{APIKey: "test-key", BaseURL: srv.URL})),
		WithMetrics(m),
		WithOutput(io.Discard),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := app.Run(context.Background(), Request{Resume: writeResume(t)}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, field := range []string{FieldLocation, FieldExperience} {
		if got := testutil.ToFloat64(m.CheckpointDefaults.WithLabelValues(field, "true")); got != 0 {
			t.Errorf("%s counted as defaulted %v times", field, got)
		}
		if got := testutil.ToFloat64(m.CheckpointDefaults.WithLabelValues(field, "false")); got != 1 {
			t.Errorf("%s counted as chosen %v times, want 1", field, got)
		}
	}
}

func TestAppRunStopsWhenNoJobs(t *testing.T) {
	exec := newFakeExecutor()
	store := openStore(t)
	var out bytes.Buffer
	gate := checkpoint.NewConsoleGate(strings.NewReader("\n\n\n"), &out)
	noJobs := &capability.Func{
		FuncName: capability.JobSearchName,
		Fn: func(context.Context, json.RawMessage) (string, error) {
			return `{"jobs":[]}`, nil
		},
	}

	app, err := New(config.Default(), nil,
		WithExecutor(exec),
		WithGate(gate),
		WithJobSearch(noJobs),
		WithStore(store),
		WithOutput(&out),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcome, err := app.Run(context.Background(), Request{Resume: writeResume(t), Roles: []string{"ML Engineer"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !outcome.Stopped {
		t.Error("expected the run to stop")
	}
	if outcome.State.Optimization != nil {
		t.Error("optimization must not run after an empty search")
	}
	if _, ran := exec.prompts[TaskOptimizeResume]; ran {
		t.Error("optimize_resume was dispatched")
	}
	if !strings.Contains(out.String(), "No jobs found") {
		t.Errorf("missing stop message in output:\n%s", out.String())
	}

	run, err := store.GetRun(outcome.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != state.RunStopped {
		t.Errorf("run status = %s, want stopped", run.Status)
	}
}

func TestAppRunFailsOnMalformedOutput(t *testing.T) {
	exec := newFakeExecutor()
	exec.outputs[TaskCareerFit] = fenced(`{"good_fit_roles":["ML Engineer"]}`)
	store := openStore(t)
	var out bytes.Buffer

	app, err := New(config.Default(), nil,
		WithExecutor(exec),
		WithGate(checkpoint.NewConsoleGate(strings.NewReader(""), &out)),
		WithJobSearch(&capability.Func{FuncName: capability.JobSearchName}),
		WithStore(store),
		WithOutput(&out),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcome, err := app.Run(context.Background(), Request{Resume: writeResume(t)})
	var taskErr *orchestrator.TaskExecutionError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected *TaskExecutionError, got %v", err)
	}
	if taskErr.TaskID != TaskCareerFit {
		t.Errorf("TaskID = %s, want %s", taskErr.TaskID, TaskCareerFit)
	}
	if _, ran := exec.prompts[TaskJobSearch]; ran {
		t.Error("job search ran after a failed phase")
	}

	run, err := store.GetRun(outcome.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != state.RunFailed || run.Error == "" {
		t.Errorf("run = %+v, want failed with an error", run)
	}
}

func TestAppRunRequiresResume(t *testing.T) {
	app, err := New(config.Default(), nil,
		WithExecutor(newFakeExecutor()),
		WithGate(checkpoint.NewConsoleGate(strings.NewReader(""), &bytes.Buffer{})),
		WithOutput(&bytes.Buffer{}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := app.Run(context.Background(), Request{}); err == nil {
		t.Error("expected error without a resume")
	}
	if _, err := app.Run(context.Background(), Request{Resume: filepath.Join(t.TempDir(), "none.md")}); err == nil {
		t.Error("expected error for a missing resume")
	}
}
