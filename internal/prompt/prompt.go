// Package prompt turns a tool call into the natural-language instruction that
// is written to the Claude CLI's standard input.
//
// Code arguments are base64-encoded so that quotes, newlines and control
// characters survive intact; free-text arguments are embedded as-is. Every
// value is truncated to the builder's maximum length first.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wagiedev/claude-code-mcp/internal/codec"
)

const (
	// DefaultMaxInputLength is the per-argument character limit.
	DefaultMaxInputLength = 10000

	// TruncationMarker is appended to any argument cut at the limit.
	TruncationMarker = "\n[truncated]"

	// DefaultTestFramework is used by test_code when no framework is given.
	DefaultTestFramework = "an appropriate testing framework"
)

// ErrUnknownTemplate is returned for a tool name with no prompt template.
var ErrUnknownTemplate = errors.New("no prompt template for tool")

// Builder renders tool prompts. It holds no mutable state and is safe for
// concurrent use.
type Builder struct {
	maxInputLength int
}

// NewBuilder creates a Builder. A non-positive maxInputLength selects
// DefaultMaxInputLength.
func NewBuilder(maxInputLength int) *Builder {
	if maxInputLength <= 0 {
		maxInputLength = DefaultMaxInputLength
	}

	return &Builder{maxInputLength: maxInputLength}
}

// MaxInputLength returns the per-argument character limit.
func (b *Builder) MaxInputLength() int {
	return b.maxInputLength
}

type template func(b *Builder, args map[string]string) string

var templates = map[string]template{
	"explain_code": func(b *Builder, args map[string]string) string {
		var sb strings.Builder

		sb.WriteString("Explain the following code in detail: what it does, how it works, " +
			"and any notable patterns or pitfalls.\n\n")
		b.writeCode(&sb, args["code"])
		b.writeOptional(&sb, "Additional context", args["context"])

		return sb.String()
	},
	"review_code": func(b *Builder, args map[string]string) string {
		var sb strings.Builder

		sb.WriteString("Review the following code. Report bugs, security issues, performance problems " +
			"and style concerns, and suggest concrete improvements.\n\n")
		b.writeCode(&sb, args["code"])
		b.writeOptional(&sb, "Focus areas", args["focus_areas"])

		return sb.String()
	},
	"fix_code": func(b *Builder, args map[string]string) string {
		var sb strings.Builder

		sb.WriteString("Fix the issue described below in the following code. " +
			"Return the corrected code and a short explanation of the fix.\n\n")
		b.writeCode(&sb, args["code"])
		b.writeOptional(&sb, "Issue", args["issue_description"])

		return sb.String()
	},
	"edit_code": func(b *Builder, args map[string]string) string {
		var sb strings.Builder

		sb.WriteString("Edit the following code according to the instructions below. " +
			"Return the complete edited code.\n\n")
		b.writeCode(&sb, args["code"])
		b.writeOptional(&sb, "Instructions", args["instructions"])

		return sb.String()
	},
	"test_code": func(b *Builder, args map[string]string) string {
		var sb strings.Builder

		framework := args["test_framework"]
		if framework == "" {
			framework = DefaultTestFramework
		}

		fmt.Fprintf(&sb, "Write comprehensive tests for the following code using %s. "+
			"Cover normal cases, edge cases and error paths.\n\n", b.truncate(framework))
		b.writeCode(&sb, args["code"])

		return sb.String()
	},
	"simulate_command": func(b *Builder, args map[string]string) string {
		var sb strings.Builder

		sb.WriteString("Simulate running the following command and describe the output " +
			"it would most likely produce. Do not execute anything.\n\n")
		b.writeOptional(&sb, "Command", args["command"])
		b.writeOptional(&sb, "Input", args["input"])

		return sb.String()
	},
	"your_own_query": func(b *Builder, args map[string]string) string {
		var sb strings.Builder

		sb.WriteString("Answer the following query as an experienced software engineer. " +
			"Be accurate and concise, and include code examples where they help.\n\n")
		b.writeOptional(&sb, "Query", args["query"])
		b.writeOptional(&sb, "Context", args["context"])

		return sb.String()
	},
}

// Build renders the prompt for toolName. Absent optional arguments are
// omitted; Build does not check for required ones.
func (b *Builder) Build(toolName string, args map[string]string) (string, error) {
	tmpl, ok := templates[toolName]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, toolName)
	}

	return strings.TrimRight(tmpl(b, args), "\n"), nil
}

// Has reports whether a template exists for toolName.
func Has(toolName string) bool {
	_, ok := templates[toolName]

	return ok
}

// Truncate cuts text to the builder's limit and appends TruncationMarker.
func (b *Builder) Truncate(text string) string {
	return b.truncate(text)
}

func (b *Builder) truncate(text string) string {
	if utf8.RuneCountInString(text) <= b.maxInputLength {
		return text
	}

	var (
		count int
		cut   = len(text)
	)

	for i := range text {
		if count == b.maxInputLength {
			cut = i

			break
		}

		count++
	}

	return text[:cut] + TruncationMarker
}

func (b *Builder) writeCode(sb *strings.Builder, code string) {
	sb.WriteString("The code is base64-encoded. Decode it before working on it.\n")
	sb.WriteString("Code (base64): ")
	sb.WriteString(codec.Encode(b.truncate(code)))
	sb.WriteString("\n\n")
}

func (b *Builder) writeOptional(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}

	sb.WriteString(label)
	sb.WriteString(":\n")
	sb.WriteString(b.truncate(value))
	sb.WriteString("\n\n")
}
