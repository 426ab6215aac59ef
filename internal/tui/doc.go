// Package tui renders jobhunt output in the terminal.
//
// It has two parts:
//   - Present and the Render* functions draw phase results (career fit,
//     job listings, resume improvements) with lipgloss, for checkpoints and
//     the final report.
//   - Progress is a small bubbletea program that shows a spinner and the
//     task list while a phase runs. It implements orchestrator.Observer:
//
//     p := tui.StartProgress("discovery", os.Stderr)
//     // pass p as an orchestrator observer, run the phase
//     p.Stop(err)
//
// Progress never reads from stdin, so a checkpoint can prompt right after
// Stop returns.
package tui
