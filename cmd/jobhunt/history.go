package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/jobhunt/internal/config"
	"github.com/ShayCichocki/jobhunt/internal/state"
)

var (
	historyLimit int
	historyPurge time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show past runs",
	Long: `List recent runs, or show the task executions of one run.

Examples:
  jobhunt history                 # the 10 most recent runs
  jobhunt history -n 50           # the 50 most recent runs
  jobhunt history <run-id>        # tasks, durations and tokens of a run
  jobhunt history --purge 720h    # delete runs older than 30 days`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to list")
	historyCmd.Flags().DurationVar(&historyPurge, "purge", 0, "Delete runs older than this duration")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := cfg.State.DBPath
	if path == "" {
		path = state.DefaultDBPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs yet. Run 'jobhunt run --resume FILE' to start.")
		return nil
	}

	db, err := state.OpenMigrated(path)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	switch {
	case historyPurge > 0:
		n, err := db.PurgeOldRuns(historyPurge)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d run(s)\n", n)
		return nil
	case len(args) == 1:
		return displayRun(out, db, args[0])
	default:
		return displayRuns(out, db, historyLimit)
	}
}

func displayRuns(w io.Writer, db *state.DB, limit int) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs yet.")
		return nil
	}

	fmt.Fprintln(w, "Recent Runs:")
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %s  %s ago  %s\n",
			r.ID, statusColor(string(r.Status)).Sprintf("%-11s", r.Status),
			formatDuration(time.Since(r.StartedAt)), strings.Join(r.Roles, ", "))
	}
	return nil
}

func displayRun(w io.Writer, db *state.DB, id string) error {
	r, err := db.GetRun(id)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("run %s not found", id)
	}

	fmt.Fprintf(w, "Run: %s\n", r.ID)
	fmt.Fprintf(w, "  Resume: %s\n", r.Resume)
	fmt.Fprintf(w, "  Roles: %s\n", strings.Join(r.Roles, ", "))
	fmt.Fprintf(w, "  Started: %s\n", r.StartedAt.Format(time.RFC1123))
	if r.FinishedAt != nil {
		fmt.Fprintf(w, "  Took: %s\n", formatDuration(r.FinishedAt.Sub(r.StartedAt)))
	}
	fmt.Fprintf(w, "  Status: %s\n", statusColor(string(r.Status)).Sprint(r.Status))
	if r.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", r.Error)
	}

	tasks, err := db.ListTaskRuns(r.ID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	var tokensIn, tokensOut int64
	fmt.Fprintln(w, "\nTasks:")
	for _, t := range tasks {
		fmt.Fprintf(w, "  %-13s %-16s %-20s %s  %6s  %s in / %s out\n",
			t.Phase, t.TaskID, t.Worker,
			statusColor(string(t.Status)).Sprintf("%-9s", t.Status),
			formatDuration(t.Duration), formatNumber(t.TokensIn), formatNumber(t.TokensOut))
		if t.Error != "" {
			fmt.Fprintf(w, "      %s\n", t.Error)
		}
		tokensIn += t.TokensIn
		tokensOut += t.TokensOut
	}
	fmt.Fprintf(w, "\nTokens: %s in / %s out\n", formatNumber(tokensIn), formatNumber(tokensOut))
	return nil
}

func statusColor(status string) *color.Color {
	switch status {
	case string(state.RunCompleted):
		return color.New(color.FgGreen)
	case string(state.RunFailed), string(state.RunInterrupted):
		return color.New(color.FgRed)
	case string(state.RunStopped), string(state.RunRunning):
		return color.New(color.FgYellow)
	default:
		return color.New(color.Reset)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}

// formatNumber formats a number with commas.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	offset := len(s) % 3
	if offset > 0 {
		result.WriteString(s[:offset])
	}
	for i := offset; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
