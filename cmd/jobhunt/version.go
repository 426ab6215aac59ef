package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/jobhunt/internal/version"
)

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		if versionVerbose {
			fmt.Fprintf(cmd.OutOrStdout(), "jobhunt %s\n", version.Long())
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "jobhunt version %s\n", version.Get())
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "Include build details")
}
