package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"artdocent-backend/pkg/logger"

	"github.com/cloudwego/eino/components/tool"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverVersion = "1.0.0"

// NewMCPServer exposes the docent tools to MCP clients. Tool definitions come
// from each tool's Info, the same description the eino graph would see.
func NewMCPServer(ctx context.Context, gallery ArtworkSearcher, docent DocentAsker) (*server.MCPServer, error) {
	s := server.NewMCPServer("artdocent", serverVersion, server.WithToolCapabilities(false))

	for _, t := range []tool.InvokableTool{
		&SearchArtworksTool{Gallery: gallery},
		&AskDocentTool{Docent: docent},
	} {
		def, err := mcpTool(ctx, t)
		if err != nil {
			return nil, err
		}
		s.AddTool(def, toolHandler(t))
	}

	return s, nil
}

// mcpTool converts an eino tool description into an MCP tool definition.
func mcpTool(ctx context.Context, t tool.BaseTool) (mcp.Tool, error) {
	info, err := t.Info(ctx)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("tool info: %w", err)
	}
	params, err := info.ParamsOneOf.ToOpenAPIV3()
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("tool %s parameters: %w", info.Name, err)
	}

	inputSchema := json.RawMessage(`{"type":"object"}`)
	if params != nil {
		sort.Strings(params.Required)
		if inputSchema, err = json.Marshal(params); err != nil {
			return mcp.Tool{}, fmt.Errorf("tool %s schema: %w", info.Name, err)
		}
	}
	return mcp.NewToolWithRawSchema(info.Name, info.Desc, inputSchema), nil
}

// NewMCPHandler serves the MCP server over streamable HTTP at path.
func NewMCPHandler(s *server.MCPServer, path string) http.Handler {
	return server.NewStreamableHTTPServer(s, server.WithEndpointPath(path))
}

// toolHandler runs an eino tool for an MCP call. Tool failures become error
// results so the client sees the message instead of a protocol error.
func toolHandler(t tool.InvokableTool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		out, err := t.InvokableRun(ctx, string(args))
		if err != nil {
			logger.Warnf("MCP tool %s failed: %v", req.Params.Name, err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}
