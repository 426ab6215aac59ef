package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// Present writes result to w using the renderer for its type. Unknown
// types are shown as indented JSON. It matches checkpoint.Presenter.
func Present(w io.Writer, result any) {
	var out string
	switch r := result.(type) {
	case models.ResumeProfile:
		out = RenderProfile(r)
	case *models.ResumeProfile:
		out = RenderProfile(*r)
	case models.CareerFit:
		out = RenderCareerFit(r)
	case *models.CareerFit:
		out = RenderCareerFit(*r)
	case models.JobSearchResult:
		out = RenderJobs(r.Jobs)
	case *models.JobSearchResult:
		out = RenderJobs(r.Jobs)
	case []models.Job:
		out = RenderJobs(r)
	case models.ResumeOptimization:
		out = RenderOptimization(r)
	case *models.ResumeOptimization:
		out = RenderOptimization(*r)
	default:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			out = fmt.Sprintf("%v", result)
		} else {
			out = string(data)
		}
	}
	fmt.Fprintln(w, out)
}

// RenderProfile draws an extracted resume profile.
func RenderProfile(p models.ResumeProfile) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Resume Profile"))
	b.WriteString("\n")
	writeField(&b, "Level", p.ExperienceLevel)
	writeField(&b, "Skills", strings.Join(p.Skills, ", "))
	writeField(&b, "Domains", strings.Join(p.Domains, ", "))
	writeField(&b, "Strengths", strings.Join(p.Strengths, ", "))
	for _, proj := range p.Projects {
		b.WriteString(fmt.Sprintf("  %s %s\n", valueStyle.Render(proj.Title), mutedStyle.Render(strings.Join(proj.Tech, ", "))))
		if proj.Impact != "" {
			b.WriteString("    " + proj.Impact + "\n")
		}
	}
	return b.String()
}

// RenderCareerFit draws the role classification with numbered candidate
// roles, matching the indices a checkpoint accepts.
func RenderCareerFit(c models.CareerFit) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Career Fit"))
	b.WriteString("\n")

	n := 1
	for _, role := range c.GoodFitRoles {
		b.WriteString(indexStyle.Render(fmt.Sprintf("%d.", n)) + goodStyle.Render("good     ") + role + "\n")
		n++
	}
	for _, role := range c.StretchRoles {
		b.WriteString(indexStyle.Render(fmt.Sprintf("%d.", n)) + stretchStyle.Render("stretch  ") + role + "\n")
		n++
	}
	for _, role := range c.PoorFitRoles {
		b.WriteString(indexStyle.Render("") + poorStyle.Render("poor     ") + mutedStyle.Render(role) + "\n")
	}

	if len(c.SkillGaps) > 0 {
		b.WriteString("\n")
		writeField(&b, "Skill gaps", strings.Join(c.SkillGaps, ", "))
	}
	if c.Reasoning != "" {
		b.WriteString("\n")
		b.WriteString(boxStyle.Render(c.Reasoning))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderJobs draws numbered job listings.
func RenderJobs(jobs []models.Job) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Job Listings (%d)", len(jobs))))
	b.WriteString("\n")

	if len(jobs) == 0 {
		b.WriteString(mutedStyle.Render("No listings found."))
		b.WriteString("\n")
		return b.String()
	}

	for i, j := range jobs {
		title := valueStyle.Render(j.Title)
		company := labelStyle.Render(j.Company + " · " + j.Location)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, indexStyle.Render(fmt.Sprintf("%d.", i+1)), title))
		b.WriteString("\n    " + company)
		if j.PostedDaysAgo != nil {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  (%s)", postedAgo(*j.PostedDaysAgo))))
		}
		b.WriteString("\n")
		if j.ApplyLink != "" {
			b.WriteString("    " + mutedStyle.Render(j.ApplyLink) + "\n")
		}
	}
	return b.String()
}

func postedAgo(days float64) string {
	switch {
	case days < 1:
		return "today"
	case days < 2:
		return "1 day ago"
	default:
		return fmt.Sprintf("%.0f days ago", days)
	}
}

// RenderOptimization draws resume improvements for the chosen job.
func RenderOptimization(o models.ResumeOptimization) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Resume Improvements"))
	b.WriteString("\n")

	sections := []struct {
		name  string
		items []string
	}{
		{"Summary", o.SectionImprovements.Summary},
		{"Experience", o.SectionImprovements.Experience},
		{"Projects", o.SectionImprovements.Projects},
		{"Skills", o.SectionImprovements.Skills},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		b.WriteString(phaseStyle.Render(s.name))
		b.WriteString("\n")
		for _, item := range s.items {
			b.WriteString("  • " + item + "\n")
		}
	}

	if len(o.RewrittenBullets) > 0 {
		b.WriteString("\n")
		b.WriteString(phaseStyle.Render("Rewritten bullets"))
		b.WriteString("\n")
		for _, r := range o.RewrittenBullets {
			b.WriteString("  " + poorStyle.Render("- ") + mutedStyle.Render(r.Before) + "\n")
			b.WriteString("  " + goodStyle.Render("+ ") + r.After + "\n")
		}
	}

	if len(o.KeywordsToAdd) > 0 || len(o.KeywordsToRemove) > 0 {
		b.WriteString("\n")
		writeField(&b, "Add", goodStyle.Render(strings.Join(o.KeywordsToAdd, ", ")))
		writeField(&b, "Remove", poorStyle.Render(strings.Join(o.KeywordsToRemove, ", ")))
	}
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(labelStyle.Width(12).Render(label+":") + value + "\n")
}
