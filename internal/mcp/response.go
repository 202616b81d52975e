package mcp

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	dxerrors "github.com/standardbeagle/dextract/internal/errors"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse reports a tool failure inside the result with
// IsError set, so the client model can see it and retry
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}
	if suggestions := generateErrorSuggestions(operation, err); len(suggestions) > 0 {
		errorData["suggestions"] = suggestions
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true

	return response, nil
}

// generateErrorSuggestions gives hints for the common failure kinds
func generateErrorSuggestions(operation string, err error) []string {
	var suggestions []string

	switch {
	case dxerrors.IsInputPathError(err):
		suggestions = append(suggestions, "Pass an existing file or directory; relative paths resolve against the project root")
	case isConfigError(err):
		msg := err.Error()
		if strings.Contains(msg, "unknown language") {
			suggestions = append(suggestions, "Call list_languages to see the supported language names")
		}
		if strings.Contains(msg, "glob") {
			suggestions = append(suggestions, "Globs use doublestar syntax, e.g. \"**/vendor/**\"")
		}
		if strings.Contains(msg, "size") {
			suggestions = append(suggestions, "Sizes look like \"5MB\", \"500KB\" or a plain byte count")
		}
	}

	if operation == "classify_file" && len(suggestions) == 0 {
		suggestions = append(suggestions, "classify_file expects a single file path")
	}
	return suggestions
}

func isConfigError(err error) bool {
	var cfgErr *dxerrors.ConfigError
	return stderrors.As(err, &cfgErr)
}
