package jobhunt

import (
	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// RunState carries everything one run learns from phase to phase. A fresh
// value is created for every run.
type RunState struct {
	// Inputs
	ResumePath       string
	PreferredRoles   []string
	PreferredDomains []string

	// Discovery
	Profile *models.ResumeProfile
	Fit     *models.CareerFit

	// First checkpoint
	SelectedRoles []string
	Location      string
	Experience    models.ExperienceLevel

	// Job search and second checkpoint
	Jobs        []models.Job
	SelectedJob *models.Job

	// Optimization
	Optimization *models.ResumeOptimization
}

// NewRunState creates the state for a run over the resume at path.
func NewRunState(resumePath string, roles, domains []string) *RunState {
	return &RunState{
		ResumePath:       resumePath,
		PreferredRoles:   append([]string(nil), roles...),
		PreferredDomains: append([]string(nil), domains...),
	}
}

// Listings returns the first max jobs, the ones offered at the checkpoint.
func (s *RunState) Listings(max int) []models.Job {
	if max <= 0 || max > len(s.Jobs) {
		return s.Jobs
	}
	return s.Jobs[:max]
}
