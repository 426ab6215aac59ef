package jobhunt

import (
	"fmt"

	"github.com/ShayCichocki/jobhunt/internal/checkpoint"
	"github.com/ShayCichocki/jobhunt/internal/orchestrator"
	"github.com/ShayCichocki/jobhunt/internal/pipeline"
	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// Checkpoint field names.
const (
	FieldRoles      = "selected_roles"
	FieldLocation   = "location"
	FieldExperience = "experience_level"
	FieldJob        = "job"
)

// CheckpointDefaults holds the fallbacks applied at checkpoints.
type CheckpointDefaults struct {
	Location    string
	Experience  models.ExperienceLevel
	MaxListings int
}

func (d CheckpointDefaults) normalize() CheckpointDefaults {
	if d.Location == "" {
		d.Location = "Remote"
	}
	if !d.Experience.Valid() {
		d.Experience = models.ExperienceJunior
	}
	if d.MaxListings <= 0 {
		d.MaxListings = 5
	}
	return d
}

// Steps builds the discovery, job search and optimization steps.
func Steps(phases map[string]*orchestrator.Phase, defaults CheckpointDefaults) ([]pipeline.Step[RunState], error) {
	defaults = defaults.normalize()
	for _, name := range []string{PhaseDiscovery, PhaseJobSearch, PhaseOptimization} {
		if phases[name] == nil {
			return nil, fmt.Errorf("phase %s not assembled", name)
		}
	}

	return []pipeline.Step[RunState]{
		{
			Name:   PhaseDiscovery,
			Phase:  phases[PhaseDiscovery],
			Inputs: discoveryInputs,
			Apply:  applyDiscovery,
			Fields: func(s *RunState) []checkpoint.FieldSpec { return discoveryFields(s, defaults) },
			Review: func(s *RunState, _ *orchestrator.PhaseResult) any { return *s.Fit },
			Select: func(s *RunState, sel checkpoint.Selection) error { return selectSearch(s, sel, defaults) },
		},
		{
			Name:   PhaseJobSearch,
			Phase:  phases[PhaseJobSearch],
			Inputs: searchInputs,
			Apply:  applyJobSearch,
			Fields: func(s *RunState) []checkpoint.FieldSpec { return jobFields(s, defaults.MaxListings) },
			Review: func(s *RunState, _ *orchestrator.PhaseResult) any {
				return models.JobSearchResult{Jobs: s.Listings(defaults.MaxListings)}
			},
			Select: func(s *RunState, sel checkpoint.Selection) error { return selectJob(s, sel, defaults.MaxListings) },
		},
		{
			Name:   PhaseOptimization,
			Phase:  phases[PhaseOptimization],
			Inputs: optimizationInputs,
			Apply:  applyOptimization,
		},
	}, nil
}

func discoveryInputs(s *RunState) (map[string]any, error) {
	return map[string]any{
		"resume_file":       s.ResumePath,
		"preferred_roles":   s.PreferredRoles,
		"preferred_domains": s.PreferredDomains,
	}, nil
}

func applyDiscovery(s *RunState, result *orchestrator.PhaseResult) error {
	var profile models.ResumeProfile
	if err := result.Decode(TaskParseResume, &profile); err != nil {
		return err
	}
	var fit models.CareerFit
	if err := result.Decode(TaskCareerFit, &fit); err != nil {
		return err
	}
	s.Profile = &profile
	s.Fit = &fit
	return nil
}

// defaultRoles picks the first good fit role, then the first stretch role,
// then the first preferred role.
func defaultRoles(s *RunState) []string {
	switch {
	case len(s.Fit.GoodFitRoles) > 0:
		return s.Fit.GoodFitRoles[:1]
	case len(s.Fit.StretchRoles) > 0:
		return s.Fit.StretchRoles[:1]
	case len(s.PreferredRoles) > 0:
		return s.PreferredRoles[:1]
	}
	return nil
}

func discoveryFields(s *RunState, d CheckpointDefaults) []checkpoint.FieldSpec {
	return []checkpoint.FieldSpec{
		{
			Name:           FieldRoles,
			Prompt:         "Roles to search for (names or numbers, comma separated)",
			Kind:           checkpoint.KindMultiChoice,
			Options:        s.Fit.CandidateRoles(),
			AllowCustom:    true,
			DefaultChoices: append([]string(nil), defaultRoles(s)...),
		},
		{
			Name:    FieldLocation,
			Prompt:  "Preferred job location (e.g. Remote, Mumbai, Bangalore)",
			Kind:    checkpoint.KindText,
			Default: d.Location,
		},
		{
			Name:    FieldExperience,
			Prompt:  "Experience level",
			Kind:    checkpoint.KindEnum,
			Options: models.ExperienceLevels(),
			Default: string(d.Experience),
		},
	}
}

func selectSearch(s *RunState, sel checkpoint.Selection, d CheckpointDefaults) error {
	s.SelectedRoles = sel.Strings(FieldRoles)
	if len(s.SelectedRoles) == 0 {
		return fmt.Errorf("no roles selected")
	}

	s.Location = sel.String(FieldLocation)
	if s.Location == "" {
		s.Location = d.Location
	}

	level, ok := models.ParseExperienceLevel(sel.String(FieldExperience))
	if !ok {
		level = d.Experience
	}
	s.Experience = level
	return nil
}

func searchInputs(s *RunState) (map[string]any, error) {
	return map[string]any{
		"selected_roles":   s.SelectedRoles,
		"location":         s.Location,
		"experience_level": string(s.Experience),
	}, nil
}

func applyJobSearch(s *RunState, result *orchestrator.PhaseResult) error {
	var found models.JobSearchResult
	if err := result.Decode(TaskJobSearch, &found); err != nil {
		return err
	}
	s.Jobs = found.Jobs
	if len(s.Jobs) == 0 {
		return pipeline.ErrStop
	}
	return nil
}

func jobFields(s *RunState, max int) []checkpoint.FieldSpec {
	listings := s.Listings(max)
	options := make([]string, len(listings))
	for i, j := range listings {
		options[i] = fmt.Sprintf("%s at %s", j.Title, j.Company)
	}
	return []checkpoint.FieldSpec{{
		Name:         FieldJob,
		Prompt:       fmt.Sprintf("Job to optimize your resume for (1-%d)", len(listings)),
		Kind:         checkpoint.KindIndex,
		Options:      options,
		DefaultIndex: 1,
	}}
}

func selectJob(s *RunState, sel checkpoint.Selection, max int) error {
	listings := s.Listings(max)
	idx := sel.Index(FieldJob)
	if idx < 0 || idx >= len(listings) {
		idx = 0
	}
	job := listings[idx]
	s.SelectedJob = &job
	return nil
}

func optimizationInputs(s *RunState) (map[string]any, error) {
	if s.SelectedJob == nil {
		return nil, fmt.Errorf("no job selected")
	}
	return map[string]any{
		"resume_file":  s.ResumePath,
		"selected_job": *s.SelectedJob,
	}, nil
}

func applyOptimization(s *RunState, result *orchestrator.PhaseResult) error {
	var opt models.ResumeOptimization
	if err := result.Decode(TaskOptimizeResume, &opt); err != nil {
		return err
	}
	s.Optimization = &opt
	return nil
}
