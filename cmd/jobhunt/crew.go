package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/jobhunt/internal/jobhunt"
	"github.com/ShayCichocki/jobhunt/internal/schema"
)

var crewCheck string

var crewCmd = &cobra.Command{
	Use:   "crew",
	Short: "Print or check a crew definition",
	Long: `Without flags, prints the built-in crew definition. Save it to a file,
edit it and pass it to 'jobhunt run --crew FILE' to change worker
instructions or task descriptions.

With --check FILE, loads the file and assembles every phase without
running anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if crewCheck == "" {
			_, err := cmd.OutOrStdout().Write(jobhunt.DefaultCrewYAML())
			return err
		}

		c, err := jobhunt.LoadCrew(crewCheck)
		if err != nil {
			return err
		}
		reg, err := c.Registry()
		if err != nil {
			return err
		}
		phases, err := c.Assemble(reg, schema.Default())
		if err != nil {
			return err
		}
		for _, p := range c.Phases {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", p.Name, phases[p.Name].Order())
		}
		return nil
	},
}

func init() {
	crewCmd.Flags().StringVar(&crewCheck, "check", "", "Crew file to validate")
}
