package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobhunt",
	Short: "Resume analysis and job search assistant",
	Long: `jobhunt runs a crew of AI workers over your resume in three phases:

  1. discovery     parse the resume and assess fit for your preferred roles
  2. job_search    search current openings for the roles you pick
  3. optimization  suggest resume changes for the job you pick

You confirm roles, location and experience level after discovery, and pick
a job after the search.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(crewCmd)
	rootCmd.AddCommand(versionCmd)
}
