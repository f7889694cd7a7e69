package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/opsight-ai/opsight-engine/pkg/agents"
)

// RegisterCapabilitiesTool adds the capabilities tool: the static catalog
// of supported question types, same text the chat responder serves for
// help requests.
func RegisterCapabilitiesTool(s *server.MCPServer) {
	tool := mcp.NewTool(
		"capabilities",
		mcp.WithDescription("Lists the question types this engine can answer, with examples"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(agents.Capabilities()), nil
	})
}
