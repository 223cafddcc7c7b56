// Package errors defines error types for the Claude Code MCP server.
//
// Process-level failures (CLI not found, spawn failure, timeout, non-zero
// exit) have their own types so they can be logged in full. At the tool
// dispatcher boundary every failure is reshaped into a ToolError carrying one
// of two codes, CodeNotFound or CodeInternal. All types support unwrapping
// and can be checked with errors.Is, errors.As and errors.AsType.
package errors
