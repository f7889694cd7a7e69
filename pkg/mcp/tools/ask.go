// Package tools provides the MCP tool implementations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/services"
)

// RegisterAskTool adds the ask tool: free-text questions answered through
// the full resolution pipeline, returning the response envelope as JSON.
func RegisterAskTool(s *server.MCPServer, router services.Router, logger *zap.Logger) {
	tool := mcp.NewTool(
		"ask",
		mcp.WithDescription(
			"Ask a question about the OpEx spend, resource demand, and project "+
				"priority dataset in plain English. Returns a JSON envelope whose "+
				"status field is success, clarification_needed, or error. On "+
				"success the envelope carries the executed SQL, rendered results, "+
				"an explanation, and follow-up suggestions. "+
				"Example: ask(question='total spend by project in FY2025').",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question to answer (e.g., 'total spend by project in FY2025')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return nil, err
		}

		question = strings.TrimSpace(question)
		if question == "" {
			return NewErrorResult("invalid_parameters", "question parameter cannot be empty"), nil
		}

		logger.Info("MCP ask", zap.Int("question_chars", len(question)))

		envelope := router.Resolve(ctx, question)

		jsonResult, err := json.Marshal(envelope)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal envelope: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
