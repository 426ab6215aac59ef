package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/jobhunt/pkg/models"
)

// systemPrompt renders a worker's identity and constraints.
func systemPrompt(w models.Worker) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the %s.\n\n", w.Role)
	fmt.Fprintf(&sb, "## Goal\n%s\n", w.Goal)
	if w.Backstory != "" {
		fmt.Fprintf(&sb, "\n## Background\n%s\n", w.Backstory)
	}
	return sb.String()
}

// upstream is a completed dependency passed to a task as context.
type upstream struct {
	taskID string
	record map[string]any
}

// taskPrompt renders the instruction sent to a worker: the task text, the
// results of its dependencies and the output contract it must satisfy.
func taskPrompt(instruction string, deps []upstream, schemaJSON string) string {
	var sb strings.Builder

	sb.WriteString("## Task\n")
	sb.WriteString(strings.TrimSpace(instruction))
	sb.WriteString("\n")

	if len(deps) > 0 {
		sb.WriteString("\n## Context from previous tasks\n")
		for _, d := range deps {
			b, err := json.MarshalIndent(d.record, "", "  ")
			if err != nil {
				b = []byte(fmt.Sprint(d.record))
			}
			fmt.Fprintf(&sb, "\n### %s\n```json\n%s\n```\n", d.taskID, b)
		}
	}

	sb.WriteString("\n## Expected output\n")
	sb.WriteString("Respond with a single JSON object in a ```json fenced block. ")
	sb.WriteString("It must validate against this JSON schema. Do not add commentary inside the block.\n")
	fmt.Fprintf(&sb, "```json\n%s\n```\n", schemaJSON)

	return sb.String()
}

// delegatedPrompt renders a nested request from one worker to a coworker.
func delegatedPrompt(from, task, context string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Request from the %s\n%s\n", from, strings.TrimSpace(task))
	if strings.TrimSpace(context) != "" {
		fmt.Fprintf(&sb, "\n## Context\n%s\n", strings.TrimSpace(context))
	}
	sb.WriteString("\nAnswer the request directly. Plain text is fine.\n")
	return sb.String()
}
