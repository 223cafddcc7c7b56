// Package tools defines the static tool catalogue and the dispatcher that
// turns a tool call into one Claude CLI run.
//
// A call moves through Received, Validated (known tool name), Prompt-Built
// (required arguments present), Process-Invoked and finally Responded or
// Failed. Failures leave the dispatcher only as *errors.ToolError.
package tools
