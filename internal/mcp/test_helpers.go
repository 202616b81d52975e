package mcp

// In-process tool calls for tests: CallTool invokes a registered handler
// directly, without the stdio transport.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CallTool runs toolName with params and returns the response text. Error
// responses come back as Go errors.
func (s *Server) CallTool(toolName string, params map[string]interface{}) (string, error) {
	handler, ok := s.handlers[toolName]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", toolName)
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      toolName,
			Arguments: paramsJSON,
		},
	}

	result, err := handler(context.Background(), req)
	if err != nil {
		return "", err
	}
	if result == nil || len(result.Content) == 0 {
		return "", nil
	}

	textContent, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return "", fmt.Errorf("unexpected content type %T", result.Content[0])
	}

	if result.IsError {
		var response struct {
			Error       string   `json:"error"`
			Suggestions []string `json:"suggestions"`
		}
		if json.Unmarshal([]byte(textContent.Text), &response) == nil {
			errorDetails := "MCP error: " + response.Error
			for _, s := range response.Suggestions {
				errorDetails += "\nSuggestion: " + s
			}
			return "", fmt.Errorf("%s", errorDetails)
		}
		return "", fmt.Errorf("MCP error: %s", textContent.Text)
	}

	return textContent.Text, nil
}

// ToolNames lists the registered tools
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	return names
}
