package api

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/jobhunt/internal/capability"
)

// ToolsFor converts capabilities into tool schemas for Claude API calls.
func ToolsFor(caps []capability.Capability) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(caps))
	for _, c := range caps {
		params := c.Parameters()
		properties := params.Properties
		if properties == nil {
			properties = map[string]any{}
		}
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        c.Name(),
				Description: anthropic.String(c.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: properties,
					Required:   params.Required,
				},
			},
		})
	}
	return tools
}
