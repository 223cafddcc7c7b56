// Package mcp exposes the tool dispatcher as a Model Context Protocol server.
//
// It registers one MCP tool per entry of the static tool table on an
// official go-sdk server, converts call arguments to strings, and maps
// dispatcher errors onto JSON-RPC errors:
//
//   - unknown tool    -> CodeMethodNotFound (-32601)
//   - any other error -> CodeInternalError (-32603)
//
// Calls naming an unregistered tool are intercepted by a receiving
// middleware and passed to the dispatcher, so they are logged there and
// answered with CodeMethodNotFound rather than the SDK's invalid-params error.
//
// The transport is supplied by the caller; the command uses stdio.
package mcp
