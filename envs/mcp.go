package envs

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// MCPClient is the slice of the protocol client the bridge needs. The real
// client (stdio or HTTP) satisfies it; tests use a stub.
type MCPClient interface {
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// MCPTools discovers the remote tools and wraps each one as a Tool. The
// server's declared input schema drives validation; results come back as the
// concatenated text content, or an error when the server flags one.
func MCPTools(ctx context.Context, c MCPClient) ([]Tool, error) {
	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	var tools []Tool
	for _, remote := range listed.Tools {
		remote := remote
		name := BindingName(remote.Name)

		var schema map[string]any
		if data, err := json.Marshal(remote.InputSchema); err == nil {
			_ = json.Unmarshal(data, &schema)
		}

		tools = append(tools, Tool{
			Decl: FuncDecl{
				Name:        name,
				Description: remote.Description,
			},
			RawSchema: schema,
			Execute: func(ctx context.Context, params map[string]any) (any, error) {
				req := mcp.CallToolRequest{}
				req.Params.Name = remote.Name
				req.Params.Arguments = params
				res, err := c.CallTool(ctx, req)
				if err != nil {
					return nil, err
				}
				text := contentText(res.Content)
				if res.IsError {
					return nil, fmt.Errorf("%s", text)
				}
				return text, nil
			},
		})
	}
	return tools, nil
}

func contentText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

var invalidNameRune = regexp.MustCompile(`[^A-Za-z0-9_$]`)

// BindingName turns a discovered tool name into a bare identifier the plan
// language can call.
func BindingName(name string) string {
	name = invalidNameRune.ReplaceAllString(name, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	return name
}
