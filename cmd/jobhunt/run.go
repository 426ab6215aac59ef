package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/jobhunt/internal/checkpoint"
	"github.com/ShayCichocki/jobhunt/internal/config"
	"github.com/ShayCichocki/jobhunt/internal/jobhunt"
	"github.com/ShayCichocki/jobhunt/internal/metrics"
	"github.com/ShayCichocki/jobhunt/internal/orchestrator"
	"github.com/ShayCichocki/jobhunt/internal/state"
	"github.com/ShayCichocki/jobhunt/internal/tui"
)

// staleRunAge is how long a run may stay running before the next
// invocation marks it interrupted.
const staleRunAge = time.Hour

var (
	runResume     string
	runRoles      []string
	runDomains    []string
	runCrew       string
	runLogFile    string
	runNoProgress bool
	runNoHistory  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze a resume, search jobs and optimize the resume",
	Long: `Run the full pipeline against a resume.

The resume must be a text or markdown file. Roles and domains default to
search.roles and search.domains from the configuration.

Examples:
  jobhunt run --resume cv.md
  jobhunt run --resume cv.md --roles "ML Engineer,Data Scientist" --domains AI,FinTech
  jobhunt run --resume cv.md --crew my-crew.yaml`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVarP(&runResume, "resume", "r", "", "Resume file (text or markdown)")
	runCmd.Flags().StringSliceVar(&runRoles, "roles", nil, "Preferred roles, comma separated")
	runCmd.Flags().StringSliceVar(&runDomains, "domains", nil, "Preferred domains, comma separated")
	runCmd.Flags().StringVar(&runCrew, "crew", "", "Crew definition file (default: built-in)")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "Debug log file (default: log.file)")
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "Print phase names instead of a spinner")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Do not record the run in the history database")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	req := jobhunt.Request{
		Resume:  runResume,
		Roles:   runRoles,
		Domains: runDomains,
	}
	if req.Resume == "" {
		req.Resume = cfg.Search.Resume
	}
	if req.Resume == "" {
		return fmt.Errorf("no resume given: pass --resume or set search.resume")
	}
	if len(req.Roles) == 0 {
		req.Roles = cfg.Search.Roles
	}
	if len(req.Domains) == 0 {
		req.Domains = cfg.Search.Domains
	}

	var crew *jobhunt.Crew
	if runCrew != "" {
		crew, err = jobhunt.LoadCrew(runCrew)
		if err != nil {
			return err
		}
	}

	logPath := runLogFile
	if logPath == "" {
		logPath = cfg.Log.File
	}
	logger, err := orchestrator.NewDebugLogger(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug log disabled: %v\n", err)
		logger = orchestrator.NopLogger()
	}
	defer logger.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.NewHeader().View())

	m := metrics.NewMetrics()
	opts := []jobhunt.Option{
		jobhunt.WithLogger(logger),
		jobhunt.WithMetrics(m),
		jobhunt.WithOutput(out),
		jobhunt.WithProgress(!runNoProgress && checkpoint.IsInteractive()),
	}

	if !runNoHistory {
		db, err := openHistory(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: run history disabled: %v\n", err)
		} else {
			defer db.Close()
			opts = append(opts, jobhunt.WithStore(db))
		}
	}

	app, err := jobhunt.New(cfg, crew, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, runErr := app.Run(ctx, req)

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteToTextfile(cfg.Metrics.Textfile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: write metrics: %v\n", err)
		}
	}

	if runErr != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %v\n", runErr)
		if outcome != nil {
			fmt.Fprintf(os.Stderr, "  run %s, see 'jobhunt history %s'\n", outcome.RunID, outcome.RunID)
		}
		return runErr
	}
	return nil
}

// openHistory opens the history database and closes out runs left behind
// by a process that did not exit cleanly.
func openHistory(cfg *config.Config) (*state.DB, error) {
	path := cfg.State.DBPath
	if path == "" {
		path = state.DefaultDBPath()
	}
	db, err := state.OpenMigrated(path)
	if err != nil {
		return nil, err
	}

	n, err := state.NewRecoveryManager(db, staleRunAge).CleanAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: recover interrupted runs: %v\n", err)
	} else if n > 0 {
		color.New(color.FgYellow).Fprintf(os.Stderr, "Marked %d interrupted run(s)\n", n)
	}
	return db, nil
}
