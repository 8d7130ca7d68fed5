package agenttools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tmc/langchaingo/tools"
)

const serverVersion = "1.0.0"

// NewMCPServer wraps every langchaingo tool as an MCP tool with a
// single "input" argument.
func (s *Service) NewMCPServer() *server.MCPServer {
	srv := server.NewMCPServer("framewise", serverVersion)

	for _, tool := range s.Tools() {
		srv.AddTool(
			mcp.NewTool(tool.Name(),
				mcp.WithDescription(tool.Description()),
				mcp.WithString("input",
					mcp.Required(),
					mcp.Description("Tool input, see the tool description for the expected format"),
				),
			),
			toolHandler(tool),
		)
	}

	return srv
}

// ServeStdio blocks serving the tools over MCP stdio.
func (s *Service) ServeStdio() error {
	return server.ServeStdio(s.NewMCPServer())
}

func toolHandler(tool tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := req.RequireString("input")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := tool.Call(ctx, input)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(result), nil
	}
}
