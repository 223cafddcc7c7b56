package tools

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/wagiedev/claude-code-mcp/internal/prompt"
)

// Tool names exposed over MCP.
const (
	ExplainCode     = "explain_code"
	ReviewCode      = "review_code"
	FixCode         = "fix_code"
	EditCode        = "edit_code"
	TestCode        = "test_code"
	SimulateCommand = "simulate_command"
	YourOwnQuery    = "your_own_query"
)

// Argument describes one tool argument.
type Argument struct {
	Name        string
	Description string
	Required    bool
	Default     string
}

// Definition describes one tool.
type Definition struct {
	Name        string
	Description string
	Arguments   []Argument
}

var definitions = []Definition{
	{
		Name:        ExplainCode,
		Description: "Get a detailed explanation of a piece of code from Claude Code.",
		Arguments: []Argument{
			{Name: "code", Description: "The code to explain", Required: true},
			{Name: "context", Description: "Additional context about the code"},
		},
	},
	{
		Name:        ReviewCode,
		Description: "Have Claude Code review code for bugs, security, performance and style.",
		Arguments: []Argument{
			{Name: "code", Description: "The code to review", Required: true},
			{Name: "focus_areas", Description: "Specific areas to focus the review on"},
		},
	},
	{
		Name:        FixCode,
		Description: "Have Claude Code fix a described issue in a piece of code.",
		Arguments: []Argument{
			{Name: "code", Description: "The code to fix", Required: true},
			{Name: "issue_description", Description: "Description of the issue to fix", Required: true},
		},
	},
	{
		Name:        EditCode,
		Description: "Have Claude Code edit code according to instructions.",
		Arguments: []Argument{
			{Name: "code", Description: "The code to edit", Required: true},
			{Name: "instructions", Description: "How the code should be changed", Required: true},
		},
	},
	{
		Name:        TestCode,
		Description: "Have Claude Code write tests for a piece of code.",
		Arguments: []Argument{
			{Name: "code", Description: "The code to test", Required: true},
			{
				Name:        "test_framework",
				Description: "The testing framework to use",
				Default:     prompt.DefaultTestFramework,
			},
		},
	},
	{
		Name:        SimulateCommand,
		Description: "Have Claude Code describe what a command would output, without running it.",
		Arguments: []Argument{
			{Name: "command", Description: "The command to simulate", Required: true},
			{Name: "input", Description: "Input the command would receive"},
		},
	},
	{
		Name:        YourOwnQuery,
		Description: "Send a free-form query to Claude Code.",
		Arguments: []Argument{
			{Name: "query", Description: "The query to send", Required: true},
			{Name: "context", Description: "Additional context for the query"},
		},
	},
}

var byName = func() map[string]*Definition {
	m := make(map[string]*Definition, len(definitions))
	for i := range definitions {
		m[definitions[i].Name] = &definitions[i]
	}

	return m
}()

// Definitions returns a copy of the static tool table in declaration order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	for i, d := range definitions {
		d.Arguments = append([]Argument(nil), d.Arguments...)
		out[i] = d
	}

	return out
}

// Lookup returns the definition for name.
func Lookup(name string) (Definition, bool) {
	d, ok := byName[name]
	if !ok {
		return Definition{}, false
	}

	return *d, true
}

// Required returns the names of the required arguments.
func (d Definition) Required() []string {
	var names []string

	for _, a := range d.Arguments {
		if a.Required {
			names = append(names, a.Name)
		}
	}

	return names
}

// InputSchema renders the definition as a JSON Schema object.
func (d Definition) InputSchema() *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(d.Arguments))

	for _, a := range d.Arguments {
		prop := &jsonschema.Schema{
			Type:        "string",
			Description: a.Description,
		}

		if a.Default != "" {
			if raw, err := json.Marshal(a.Default); err == nil {
				prop.Default = raw
			}
		}

		properties[a.Name] = prop
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   d.Required(),
	}
}
