package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/claude-code-mcp/internal/errors"
	"github.com/wagiedev/claude-code-mcp/internal/tools"
)

// JSON-RPC error codes used for tool failures.
const (
	CodeMethodNotFound int64 = -32601
	CodeInternalError  int64 = -32603
)

// Dispatcher is the subset of *tools.Dispatcher the server needs.
type Dispatcher interface {
	Definitions() []tools.Definition
	Call(ctx context.Context, req tools.Request) (string, error)
}

// Compile-time verification that the tool dispatcher satisfies Dispatcher.
var _ Dispatcher = (*tools.Dispatcher)(nil)

// Info identifies the server during MCP initialization.
type Info struct {
	Name         string
	Version      string
	Instructions string
}

// Server wraps the official MCP SDK server with the tool table registered.
type Server struct {
	server     *mcp.Server
	dispatcher Dispatcher
	known      map[string]bool
	log        *slog.Logger
}

// NewServer creates a Server and registers every tool of the dispatcher.
func NewServer(info Info, dispatcher Dispatcher, log *slog.Logger) *Server {
	s := &Server{
		server: mcp.NewServer(
			&mcp.Implementation{Name: info.Name, Version: info.Version},
			&mcp.ServerOptions{Instructions: info.Instructions},
		),
		dispatcher: dispatcher,
		known:      make(map[string]bool),
		log:        log.With("component", "mcp_server"),
	}

	for _, def := range dispatcher.Definitions() {
		s.server.AddTool(NewTool(def), s.handler(def.Name))
		s.known[def.Name] = true
	}

	s.server.AddReceivingMiddleware(s.routeUnknownTools)

	return s
}

// Run serves MCP over transport until the peer disconnects or ctx is done.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.log.Info("MCP server listening")

	if err := s.server.Run(ctx, transport); err != nil && !stderrors.Is(err, context.Canceled) {
		return fmt.Errorf("run MCP server: %w", err)
	}

	return nil
}

// Connect attaches the server to a single transport and returns the session.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

// CallTool dispatches name directly, bypassing the transport. Unknown names
// reach the dispatcher and come back as a not-found protocol error.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	return s.call(ctx, name, StringArguments(args))
}

func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := ParseArguments(req)
		if err != nil {
			s.log.Error("Invalid tool arguments", "tool", name, "error", err)

			return nil, ProtocolError(errors.Internal(name, err))
		}

		return s.call(ctx, name, args)
	}
}

// routeUnknownTools hands tools/call requests for unregistered names to the
// dispatcher. The SDK would otherwise answer them with an invalid-params
// error before any handler runs.
func (s *Server) routeUnknownTools(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		if method != "tools/call" {
			return next(ctx, method, req)
		}

		callReq, ok := req.(*mcp.CallToolRequest)
		if !ok || callReq.Params == nil || s.known[callReq.Params.Name] {
			return next(ctx, method, req)
		}

		name := callReq.Params.Name

		args, err := ParseArguments(callReq)
		if err != nil {
			args = make(map[string]string)
		}

		res, err := s.call(ctx, name, args)
		if err != nil {
			return nil, err
		}

		return res, nil
	}
}

func (s *Server) call(ctx context.Context, name string, args map[string]string) (*mcp.CallToolResult, error) {
	out, err := s.dispatcher.Call(ctx, tools.Request{Name: name, Arguments: args})
	if err != nil {
		return nil, ProtocolError(err)
	}

	return TextResult(out), nil
}

// NewTool converts a tool definition into an MCP tool.
func NewTool(def tools.Definition) *mcp.Tool {
	return &mcp.Tool{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: def.InputSchema(),
	}
}

// TextResult creates a CallToolResult with a single text content entry.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ProtocolError maps a dispatcher error onto a JSON-RPC error. Errors that
// are not a *errors.ToolError are treated as internal.
func ProtocolError(err error) *jsonrpc.Error {
	toolErr, ok := stderrors.AsType[*errors.ToolError](err)
	if !ok {
		return &jsonrpc.Error{Code: CodeInternalError, Message: err.Error()}
	}

	code := CodeInternalError
	if toolErr.Code == errors.CodeNotFound {
		code = CodeMethodNotFound
	}

	return &jsonrpc.Error{Code: code, Message: toolErr.Message}
}

// ParseArguments unmarshals CallToolRequest arguments into string values.
func ParseArguments(req *mcp.CallToolRequest) (map[string]string, error) {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return make(map[string]string), nil
	}

	var args map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
	}

	return StringArguments(args), nil
}

// StringArguments flattens decoded JSON arguments to strings. Strings pass
// through, nulls are dropped and any other value is re-encoded as JSON.
func StringArguments(args map[string]any) map[string]string {
	out := make(map[string]string, len(args))

	for key, value := range args {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			out[key] = v
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				out[key] = fmt.Sprint(v)

				continue
			}

			out[key] = string(raw)
		}
	}

	return out
}
