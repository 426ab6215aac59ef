package models

import "strings"

// ExperienceLevel is the seniority band used for job searches.
type ExperienceLevel string

const (
	ExperienceIntern ExperienceLevel = "intern"
	ExperienceJunior ExperienceLevel = "junior"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
)

// ExperienceLevels lists the accepted levels in ascending order.
func ExperienceLevels() []string {
	return []string{
		string(ExperienceIntern),
		string(ExperienceJunior),
		string(ExperienceMid),
		string(ExperienceSenior),
	}
}

// Valid returns true if the level is a known value.
func (l ExperienceLevel) Valid() bool {
	switch l {
	case ExperienceIntern, ExperienceJunior, ExperienceMid, ExperienceSenior:
		return true
	default:
		return false
	}
}

// ParseExperienceLevel normalises s and reports whether it is a known level.
func ParseExperienceLevel(s string) (ExperienceLevel, bool) {
	l := ExperienceLevel(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Valid()
}

// ResumeProfile is the structured profile extracted from a resume.
type ResumeProfile struct {
	Skills          []string  `json:"skills"`
	Domains         []string  `json:"domains"`
	ExperienceLevel string    `json:"experience_level"`
	Projects        []Project `json:"projects"`
	Strengths       []string  `json:"strengths"`
}

// Project is a resume project entry.
type Project struct {
	Title  string   `json:"title"`
	Impact string   `json:"impact"`
	Tech   []string `json:"tech"`
}

// CareerFit classifies roles against a resume profile.
type CareerFit struct {
	GoodFitRoles []string `json:"good_fit_roles"`
	StretchRoles []string `json:"stretch_roles"`
	PoorFitRoles []string `json:"poor_fit_roles"`
	SkillGaps    []string `json:"skill_gaps"`
	Reasoning    string   `json:"reasoning"`
}

// CandidateRoles returns good fit roles followed by stretch roles.
func (c CareerFit) CandidateRoles() []string {
	roles := make([]string, 0, len(c.GoodFitRoles)+len(c.StretchRoles))
	roles = append(roles, c.GoodFitRoles...)
	return append(roles, c.StretchRoles...)
}

// Job is a normalised job listing.
type Job struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	ApplyLink string `json:"apply_link"`
	// PostedDaysAgo is nil when the listing carries no posting age.
	PostedDaysAgo *float64 `json:"posted_days_ago"`
}

// JobSearchResult is the output of a job search task.
type JobSearchResult struct {
	Jobs []Job `json:"jobs"`
}

// ResumeOptimization holds targeted resume improvements for one job.
type ResumeOptimization struct {
	SectionImprovements SectionImprovements `json:"section_improvements"`
	RewrittenBullets    []BulletRewrite     `json:"rewritten_bullets"`
	KeywordsToAdd       []string            `json:"keywords_to_add"`
	KeywordsToRemove    []string            `json:"keywords_to_remove"`
}

// SectionImprovements groups suggestions by resume section.
type SectionImprovements struct {
	Summary    []string `json:"summary"`
	Experience []string `json:"experience"`
	Projects   []string `json:"projects"`
	Skills     []string `json:"skills"`
}

// BulletRewrite is a before/after pair for a resume bullet.
type BulletRewrite struct {
	Before string `json:"before"`
	After  string `json:"after"`
}
